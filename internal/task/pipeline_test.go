package task

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/respack/internal/resource"
)

func TestPipeline_SinglePass(t *testing.T) {
	env := newEnv(t, newFS(t, "a.txt", "dir/", "dir/b.txt", "dir/c.txt"))
	first := &recorder{name: "never"}
	seen := map[string]int{}
	second := funcTask{name: "always", fn: func(_ *Env, n *resource.Node) Outcome {
		seen[n.Path()]++
		return Claim()
	}}

	rep := run(t, env, first, second)

	want := []string{"", "a.txt", "dir", "dir/b.txt", "dir/c.txt"}
	assert.Equal(t, want, first.offered)
	assert.Len(t, seen, len(want))
	for p, count := range seen {
		assert.Equal(t, 1, count, p)
	}
	assert.Equal(t, 5, rep.Visited)
	assert.Equal(t, 10, rep.Offers)
	assert.Equal(t, map[string]int{"always": 5}, rep.Claims)
}

func TestPipeline_FirstClaimStops(t *testing.T) {
	env := newEnv(t, newFS(t, "a.txt"))
	claimer := funcTask{name: "claimer", fn: func(_ *Env, n *resource.Node) Outcome {
		if n.Name() == "a.txt" {
			return Claim()
		}
		return Pass()
	}}
	after := &recorder{name: "after"}

	run(t, env, claimer, after)
	assert.Equal(t, []string{""}, after.offered)
}

func TestPipeline_MutationVisibility(t *testing.T) {
	fs := newFS(t, "dir/", "dir/x.src", "dir/z.txt", "staged/y.out", "staged/w.out")
	env := newEnv(t, fs)
	first := &recorder{name: "first"}
	replacer := funcTask{name: "replacer", fn: func(env *Env, n *resource.Node) Outcome {
		if n.Ext() != "src" {
			return Pass()
		}
		staged := resource.Location{FS: fs, Path: "/src/staged"}
		_, err := replace(n, []resource.Location{staged.Join("y.out"), staged.Join("w.out")}, nil)
		require.NoError(t, err)
		return Claim()
	}}
	last := &recorder{name: "last"}

	run(t, env, first, replacer, last)

	// x is never offered after its removal; y and w get the whole list.
	assert.Equal(t, []string{"", "dir", "dir/x.src", "dir/z.txt", "dir/y.out", "dir/w.out", "staged", "staged/w.out", "staged/y.out"}, first.offered)
	assert.NotContains(t, last.offered, "dir/x.src")
	assert.Contains(t, last.offered, "dir/y.out")
	assert.Contains(t, last.offered, "dir/w.out")
	assert.Equal(t, []string{"dir", "dir/z.txt", "dir/y.out", "dir/w.out", "staged", "staged/w.out", "staged/y.out"}, paths(t, env.Tree))
}

func TestPipeline_RemovedNodesAreSkipped(t *testing.T) {
	env := newEnv(t, newFS(t, "a.txt", "b/", "b/inner.txt", "c.txt"))
	killer := funcTask{name: "killer", fn: func(_ *Env, n *resource.Node) Outcome {
		if n.Name() != "a.txt" {
			return Pass()
		}
		for _, sib := range n.Parent().Children() {
			if sib.Name() == "b" {
				require.NoError(t, sib.Remove())
			}
		}
		return Claim()
	}}
	rec := &recorder{name: "rec"}

	rep := run(t, env, rec, killer)
	assert.Equal(t, []string{"", "a.txt", "c.txt"}, rec.offered)
	assert.Equal(t, 3, rep.Visited)
}

func TestPipeline_WideDirectoryMutatedMidway(t *testing.T) {
	var entries []string
	for i := 0; i < 300; i++ {
		entries = append(entries, fmt.Sprintf("f%03d.txt", i))
	}
	fs := newFS(t, append(entries, "extra/", "extra/late.txt")...)
	env := newEnv(t, fs)
	mutator := funcTask{name: "mutator", fn: func(_ *Env, n *resource.Node) Outcome {
		if n.Name() != "f100.txt" {
			return Pass()
		}
		edit := n.Parent().Edit()
		for _, sib := range n.Parent().Children() {
			if sib.Name() == "f200.txt" {
				require.NoError(t, edit.Remove(sib))
			}
		}
		_, err := edit.Add(resource.Location{FS: fs, Path: "/src/extra/late.txt"})
		require.NoError(t, err)
		edit.Commit()
		return Claim()
	}}
	rec := &recorder{name: "rec"}

	run(t, env, rec, mutator)

	want := []string{"", "extra", "extra/late.txt"}
	for i := 0; i < 300; i++ {
		if i != 200 {
			want = append(want, fmt.Sprintf("f%03d.txt", i))
		}
	}
	want = append(want, "late.txt")
	assert.Equal(t, want, rec.offered)
}

func TestPipeline_RemovingTheNodeSkipsChildren(t *testing.T) {
	env := newEnv(t, newFS(t, "gone/", "gone/inner.txt", "kept/", "kept/inner.txt"))
	remover := funcTask{name: "remover", fn: func(_ *Env, n *resource.Node) Outcome {
		if n.Name() != "gone" {
			return Pass()
		}
		require.NoError(t, n.Remove())
		return Claim()
	}}
	rec := &recorder{name: "rec"}

	run(t, env, remover, rec)
	assert.Equal(t, []string{"", "kept", "kept/inner.txt"}, rec.offered)
}

func TestPipeline_PanicBecomesDiagnostic(t *testing.T) {
	env := newEnv(t, newFS(t, "a.txt", "b.txt"))
	boom := funcTask{name: "boom", fn: func(_ *Env, n *resource.Node) Outcome {
		if n.Name() == "a.txt" {
			panic("bad input")
		}
		return Pass()
	}}
	rec := &recorder{name: "rec"}

	rep := run(t, env, boom, rec)
	assert.Equal(t, []string{"", "b.txt"}, rec.offered)
	assert.Equal(t, 1, rep.Claims["boom"])
	require.Len(t, rep.Diagnostics, 1)
	d := rep.Diagnostics[0]
	assert.Equal(t, slog.LevelError, d.Level)
	assert.Equal(t, "boom", d.Task)
	assert.Equal(t, "a.txt", d.Node)
	assert.Equal(t, "task panicked", d.Message)
}

func TestPipeline_Cancelled(t *testing.T) {
	env := newEnv(t, newFS(t, "a.txt"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPipeline(&recorder{name: "rec"}).Run(ctx, env)
	assert.ErrorIs(t, err, context.Canceled)
}

type leaveRecorder struct {
	recorder
	left []string
}

func (l *leaveRecorder) Leave(_ context.Context, _ *Env, n *resource.Node) Outcome {
	l.left = append(l.left, n.Path())
	return Pass()
}

func TestPipeline_LeaveIsPostOrder(t *testing.T) {
	env := newEnv(t, newFS(t, "a/", "a/b/", "a/b/f.txt", "c/"))
	l := &leaveRecorder{recorder: recorder{name: "leave"}}

	rep := run(t, env, l)
	assert.Equal(t, []string{"a/b", "a", "c", ""}, l.left)
	// Files get Operate only; directories get Operate and Leave.
	assert.Equal(t, 5+4, rep.Offers)
}

func TestPipeline_LeaveFollowsAPreOrderClaim(t *testing.T) {
	env := newEnv(t, newFS(t, "a/", "a/f.txt"))
	claimer := funcTask{name: "claimer", fn: func(_ *Env, n *resource.Node) Outcome {
		if n.Name() == "a" {
			return Claim()
		}
		return Pass()
	}}
	l := &leaveRecorder{recorder: recorder{name: "leave"}}

	rep := run(t, env, claimer, l)
	// The claim stops the Operate offers for "a" but not the Leave phase.
	assert.Equal(t, []string{"", "a/f.txt"}, l.offered)
	assert.Equal(t, []string{"a", ""}, l.left)
	assert.Equal(t, 1, rep.Claims["claimer"])
}

func TestReport_Count(t *testing.T) {
	rep := &Report{Diagnostics: []Diagnostic{
		{Level: slog.LevelWarn}, {Level: slog.LevelError}, {Level: slog.LevelWarn},
	}}
	assert.Equal(t, 2, rep.Count(slog.LevelWarn))
	assert.Equal(t, 0, rep.Count(slog.LevelInfo))
}

func TestDefault_Order(t *testing.T) {
	var names []string
	var post []string
	for _, task := range Default() {
		names = append(names, task.Name())
		if task.Contract().PostOrder {
			_, ok := task.(Leaver)
			assert.True(t, ok, task.Name())
			post = append(post, task.Name())
		}
	}
	assert.Equal(t, []string{"ignore", "fonts", "flatten", "resize", "preblend", "pack", "prune"}, names)
	assert.Equal(t, []string{"pack", "prune"}, post)
}
