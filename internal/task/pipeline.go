package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/respack/internal/logging"
	"github.com/agentic-research/respack/internal/resource"
)

// Report summarizes one pass.
type Report struct {
	Visited     int
	Offers      int
	Claims      map[string]int
	Diagnostics []Diagnostic
}

// Count returns the number of diagnostics at exactly level.
func (r *Report) Count(level slog.Level) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Level == level {
			n++
		}
	}
	return n
}

// Pipeline is an ordered list of tasks.
type Pipeline struct {
	tasks []Task
}

// NewPipeline returns a pipeline offering nodes to tasks in the given order.
func NewPipeline(tasks ...Task) *Pipeline {
	return &Pipeline{tasks: tasks}
}

// Tasks returns the task list.
func (p *Pipeline) Tasks() []Task {
	return append([]Task(nil), p.tasks...)
}

// Run makes a single pass over env.Tree. Task failures are reported as
// diagnostics; only cancellation of ctx aborts the pass.
func (p *Pipeline) Run(ctx context.Context, env *Env) (*Report, error) {
	if env.Logger == nil {
		env.Logger = logging.NewNop()
	}
	rep := &Report{Claims: map[string]int{}}
	if err := p.visit(ctx, env, env.Tree.Root(), rep); err != nil {
		return rep, err
	}
	return rep, nil
}

func (p *Pipeline) visit(ctx context.Context, env *Env, n *resource.Node, rep *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.Removed() {
		return nil
	}
	rep.Visited++

	p.offer(ctx, env, n, rep, func(t Task) (func() Outcome, bool) {
		return func() Outcome { return t.Operate(ctx, env, n) }, true
	})
	if n.Removed() || !n.IsDir() {
		return nil
	}

	// Children may be added or removed while we iterate. The cursor walks a
	// snapshot and restarts over a fresh one, skipping visited ids, whenever
	// the child sequence changed.
	visited := roaring.New()
	children, version := n.Snapshot()
	for i := 0; ; i++ {
		if v := n.Version(); v != version {
			children, version = n.Snapshot()
			i = 0
		}
		for i < len(children) && visited.Contains(uint32(children[i].ID())) {
			i++
		}
		if i >= len(children) {
			break
		}
		next := children[i]
		visited.Add(uint32(next.ID()))
		if err := p.visit(ctx, env, next, rep); err != nil {
			return err
		}
	}

	if n.Removed() {
		return nil
	}
	p.offer(ctx, env, n, rep, func(t Task) (func() Outcome, bool) {
		l, ok := t.(Leaver)
		if !ok {
			return nil, false
		}
		return func() Outcome { return l.Leave(ctx, env, n) }, true
	})
	return nil
}

// offer runs the tasks selected by hook against n until one claims it.
func (p *Pipeline) offer(ctx context.Context, env *Env, n *resource.Node, rep *Report, hook func(Task) (func() Outcome, bool)) {
	node := n.String()
	for _, t := range p.tasks {
		if n.Removed() {
			return
		}
		call, ok := hook(t)
		if !ok {
			continue
		}
		rep.Offers++
		out := safeCall(call)
		for _, d := range out.Diagnostics {
			d.Task = t.Name()
			d.Node = node
			rep.Diagnostics = append(rep.Diagnostics, d)
			args := append([]any{logging.FieldTask, d.Task, logging.FieldNode, d.Node}, d.Args...)
			env.Logger.Log(ctx, d.Level, d.Message, args...)
		}
		if out.Claimed {
			rep.Claims[t.Name()]++
			return
		}
	}
}

func safeCall(fn func() Outcome) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Claim()
			out.Error("task panicked", logging.FieldError, fmt.Sprint(r))
		}
	}()
	return fn()
}
