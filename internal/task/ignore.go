package task

import (
	"context"

	"github.com/agentic-research/respack/internal/flags"
	"github.com/agentic-research/respack/internal/logging"
	"github.com/agentic-research/respack/internal/resource"
)

// Ignore drops every node flagged "ignore", subtree included.
type Ignore struct{}

func (Ignore) Name() string { return "ignore" }

func (Ignore) Contract() Contract {
	return Contract{Expects: "any node flagged ignore", Produces: "nothing; the node and its subtree are removed"}
}

func (Ignore) Operate(_ context.Context, _ *Env, n *resource.Node) Outcome {
	if n.Parent() == nil || !flags.Has(flags.Ignore, n.Flags()) {
		return Pass()
	}
	out := Claim()
	if err := n.Remove(); err != nil {
		out.Error("remove failed", logging.FieldError, err)
		return out
	}
	out.Debug("ignored")
	return out
}
