// Package packer runs one complete conversion of a source tree into an
// output bundle.
package packer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/agentic-research/respack/api"
	"github.com/agentic-research/respack/internal/atlas"
	"github.com/agentic-research/respack/internal/config"
	"github.com/agentic-research/respack/internal/fontpack"
	"github.com/agentic-research/respack/internal/imaging"
	"github.com/agentic-research/respack/internal/index"
	"github.com/agentic-research/respack/internal/ingest"
	"github.com/agentic-research/respack/internal/logging"
	"github.com/agentic-research/respack/internal/resource"
	"github.com/agentic-research/respack/internal/task"
)

var (
	ErrLocked      = errors.New("output is locked by another run")
	ErrOverlapping = errors.New("source and output overlap")
)

// Options configures a run.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// Tasks overrides task.Default().
	Tasks []task.Task
	// Staging overrides the staging filesystem chosen from the config.
	Staging billy.Filesystem
}

// Result describes a finished run.
type Result struct {
	RunID    string
	Report   *task.Report
	Assets   []api.Asset
	Duration time.Duration
}

// Files counts the file assets written.
func (r *Result) Files() int {
	n := 0
	for _, a := range r.Assets {
		if !a.Dir {
			n++
		}
	}
	return n
}

// Bytes sums the size of every asset written.
func (r *Result) Bytes() int64 {
	var n int64
	for _, a := range r.Assets {
		n += a.Size
	}
	return n
}

// Run converts the tree at src into out/outDir. Index files named in the
// config are written to the host filesystem.
func Run(ctx context.Context, src resource.Location, out billy.Filesystem, outDir string, opts Options) (*Result, error) {
	start := time.Now()
	cfg := opts.Config
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	runID := uuid.NewString()
	logger = logger.With(logging.FieldRunID, runID)

	staging := opts.Staging
	stagingDir := "/staging"
	if staging == nil {
		if cfg.Output.StagingDir != "" {
			staging = osfs.New(cfg.Output.StagingDir)
			stagingDir = "/respack-" + runID
		} else {
			staging = memfs.New()
		}
	}

	tree, err := ingest.Discover(src, ingest.Options{
		Ignore:     cfg.Ingest.Ignore,
		Staging:    staging,
		StagingDir: stagingDir,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := tree.Close(); err != nil {
			logger.Warn("staging cleanup failed", logging.FieldError, err)
		}
	}()

	tasks := opts.Tasks
	if tasks == nil {
		tasks = task.Default()
	}
	env := &task.Env{
		Tree:    tree,
		Fonts:   fontpack.NewRasterizer(fontpack.Options{PageSize: cfg.Fonts.PageSize, Padding: cfg.Fonts.Padding}),
		Images:  imaging.New(),
		Atlases: atlas.NewPacker(),
		Atlas:   atlas.Options{MaxPageSize: cfg.Atlas.MaxPageSize, Padding: cfg.Atlas.Padding},
		Logger:  logging.Component(logger, "pipeline"),
	}
	report, err := task.NewPipeline(tasks...).Run(ctx, env)
	if err != nil {
		return nil, err
	}

	if err := util.RemoveAll(out, outDir); err != nil {
		return nil, fmt.Errorf("clear output: %w", err)
	}
	assets, err := tree.Flush(out, outDir)
	if err != nil {
		return nil, fmt.Errorf("flush output: %w", err)
	}

	if err := writeIndexes(cfg, runID, assets, logger); err != nil {
		return nil, err
	}

	res := &Result{RunID: runID, Report: report, Assets: assets, Duration: time.Since(start)}
	logger.Info("run complete",
		"files", res.Files(),
		"bytes", res.Bytes(),
		"visited", report.Visited,
		"warnings", report.Count(slog.LevelWarn),
		"errors", report.Count(slog.LevelError),
		"duration", res.Duration.Round(time.Millisecond).String(),
	)
	return res, nil
}

func writeIndexes(cfg *config.Config, runID string, assets []api.Asset, logger *slog.Logger) error {
	if p := cfg.Output.IndexDB; p != "" {
		if err := index.WriteSQLite(p, runID, assets); err != nil {
			return err
		}
		logger.Info("index database written", "path", p, "assets", len(assets))
	}
	if p := cfg.Output.GoIndex; p != "" {
		if err := index.WriteGoFile(p, cfg.Output.GoPackage, assets); err != nil {
			return err
		}
		logger.Info("go index written", "path", p, "package", cfg.Output.GoPackage)
	}
	return nil
}

// RunDirs runs with host directories, holding a lock next to output for the
// duration of the run.
func RunDirs(ctx context.Context, source, output string, opts Options) (*Result, error) {
	source, output, err := checkDirs(source, output)
	if err != nil {
		return nil, err
	}

	lockPath := output + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", output, ErrLocked)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}()

	srcFS := osfs.New(source)
	outFS := osfs.New(filepath.Dir(output))
	return Run(ctx, resource.Location{FS: srcFS, Path: "/"}, outFS, filepath.Base(output), opts)
}

func checkDirs(source, output string) (string, string, error) {
	src, err := filepath.Abs(source)
	if err != nil {
		return "", "", err
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return "", "", err
	}
	info, err := os.Stat(src)
	if err != nil {
		return "", "", fmt.Errorf("source: %w", err)
	}
	if !info.IsDir() {
		return "", "", fmt.Errorf("source %s: %w", src, resource.ErrNotDir)
	}
	if within(out, src) || within(src, out) {
		return "", "", fmt.Errorf("%s and %s: %w", src, out, ErrOverlapping)
	}
	return src, out, nil
}

// within reports whether path equals dir or lies beneath it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
