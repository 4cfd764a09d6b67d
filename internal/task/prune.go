package task

import (
	"context"

	"github.com/agentic-research/respack/internal/logging"
	"github.com/agentic-research/respack/internal/resource"
)

// Prune removes directories left empty once their children were processed.
type Prune struct{}

func (Prune) Name() string { return "prune" }

func (Prune) Contract() Contract {
	return Contract{Expects: "empty directory", Produces: "nothing; the directory is removed", PostOrder: true}
}

func (Prune) Operate(context.Context, *Env, *resource.Node) Outcome { return Pass() }

func (Prune) Leave(_ context.Context, _ *Env, n *resource.Node) Outcome {
	if !n.IsDir() || n.Parent() == nil || len(n.Children()) > 0 {
		return Pass()
	}
	out := Claim()
	if err := n.Remove(); err != nil {
		out.Error("remove failed", logging.FieldError, err)
		return out
	}
	out.Debug("pruned empty directory")
	return out
}
