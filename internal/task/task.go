// Package task defines the transformation stages applied to a resource tree
// and the pipeline that runs them.
//
// The pipeline walks the tree depth first. Each node is offered to the tasks
// in list order until one claims it. A claim means the node belongs to that
// task, whether or not it was transformed. Directories are additionally
// offered to Leaver tasks once their whole subtree has been processed, even
// when a task claimed them on the way down.
package task

import (
	"context"
	"image"
	"image/color"
	"log/slog"

	"github.com/agentic-research/respack/internal/atlas"
	"github.com/agentic-research/respack/internal/fontpack"
	"github.com/agentic-research/respack/internal/resource"
)

// Task is one stage of the pipeline.
type Task interface {
	Name() string
	Contract() Contract
	// Operate inspects n and reports whether the task claims it. A task only
	// mutates n itself, through its parent.
	Operate(ctx context.Context, env *Env, n *resource.Node) Outcome
}

// Leaver is implemented by tasks that act on a directory after its children
// were processed.
type Leaver interface {
	Leave(ctx context.Context, env *Env, n *resource.Node) Outcome
}

// Contract documents what a task expects to see and what it leaves behind,
// which makes the task order auditable.
type Contract struct {
	Expects  string
	Produces string
	// PostOrder is set for tasks that act in Leave rather than Operate.
	PostOrder bool
}

// FontRasterizer converts a font file into a descriptor followed by pages.
type FontRasterizer interface {
	Rasterize(ctx context.Context, src, out resource.Location, p fontpack.Params) ([]resource.Location, error)
}

// ImageProcessor edits image files.
type ImageProcessor interface {
	Size(loc resource.Location) (image.Point, error)
	Clamp(loc resource.Location) error
	PreBlend(loc resource.Location, bg color.NRGBA) error
	Resize(src, dst resource.Location, width, height int) error
	Convert(src, dst resource.Location) error
}

// AtlasPacker packs sprites into a descriptor followed by pages.
type AtlasPacker interface {
	Pack(ctx context.Context, sprites []atlas.Sprite, out resource.Location, name string, opts atlas.Options) ([]resource.Location, error)
}

// Env is what tasks operate with.
type Env struct {
	Tree    *resource.Tree
	Fonts   FontRasterizer
	Images  ImageProcessor
	Atlases AtlasPacker
	// Atlas holds the default atlas page settings; a size flag on the
	// packed directory overrides the page size.
	Atlas  atlas.Options
	Logger *slog.Logger
}

// Diagnostic is a message a task reports about a node.
type Diagnostic struct {
	Level   slog.Level
	Task    string
	Node    string
	Message string
	Args    []any
}

// Outcome is the result of offering a node to a task.
type Outcome struct {
	Claimed     bool
	Diagnostics []Diagnostic
}

// Pass is the outcome of a task that does not handle the node.
func Pass() Outcome { return Outcome{} }

// Claim returns a claimed outcome to attach diagnostics to.
func Claim() Outcome { return Outcome{Claimed: true} }

func (o *Outcome) add(level slog.Level, msg string, args []any) {
	o.Diagnostics = append(o.Diagnostics, Diagnostic{Level: level, Message: msg, Args: args})
}

// Debug records a debug diagnostic. args are slog key/value pairs.
func (o *Outcome) Debug(msg string, args ...any) { o.add(slog.LevelDebug, msg, args) }

// Info records an info diagnostic.
func (o *Outcome) Info(msg string, args ...any) { o.add(slog.LevelInfo, msg, args) }

// Warn records a warning.
func (o *Outcome) Warn(msg string, args ...any) { o.add(slog.LevelWarn, msg, args) }

// Error records an error diagnostic.
func (o *Outcome) Error(msg string, args ...any) { o.add(slog.LevelError, msg, args) }
