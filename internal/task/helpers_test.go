package task

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/respack/internal/atlas"
	"github.com/agentic-research/respack/internal/fontpack"
	"github.com/agentic-research/respack/internal/imaging"
	"github.com/agentic-research/respack/internal/logging"
	"github.com/agentic-research/respack/internal/resource"
)

// newFS creates files (and directories, when the entry ends in "/") under /src.
func newFS(t *testing.T, entries ...string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/src", 0o755))
	for _, e := range entries {
		p := filepath.Join("/src", e)
		if strings.HasSuffix(e, "/") {
			require.NoError(t, fs.MkdirAll(p, 0o755))
			continue
		}
		require.NoError(t, util.WriteFile(fs, p, []byte(e), 0o644))
	}
	return fs
}

func writePNG(t *testing.T, fs billy.Filesystem, name string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	require.NoError(t, imaging.Encode(resource.Location{FS: fs, Path: filepath.Join("/src", name)}, img))
}

func newEnv(t *testing.T, fs billy.Filesystem) *Env {
	t.Helper()
	tree, err := resource.NewTree(resource.Location{FS: fs, Path: "/src"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tree.Close() })
	return &Env{
		Tree:    tree,
		Fonts:   &stubFonts{pages: 1},
		Images:  imaging.New(),
		Atlases: atlas.NewPacker(),
		Atlas:   atlas.Options{MaxPageSize: 256, Padding: 1},
		Logger:  logging.NewNop(),
	}
}

func run(t *testing.T, env *Env, tasks ...Task) *Report {
	t.Helper()
	rep, err := NewPipeline(tasks...).Run(context.Background(), env)
	require.NoError(t, err)
	return rep
}

// paths lists the live tree below the root in pre-order.
func paths(t *testing.T, tree *resource.Tree) []string {
	t.Helper()
	var out []string
	require.NoError(t, tree.Walk(func(n *resource.Node) error {
		if n.Parent() != nil {
			out = append(out, n.Path())
		}
		return nil
	}))
	return out
}

func find(t *testing.T, tree *resource.Tree, path string) *resource.Node {
	t.Helper()
	var found *resource.Node
	require.NoError(t, tree.Walk(func(n *resource.Node) error {
		if n.Path() == path {
			found = n
		}
		return nil
	}))
	require.NotNil(t, found, path)
	return found
}

// recorder never claims and remembers every node it was offered.
type recorder struct {
	name    string
	offered []string
}

func (r *recorder) Name() string       { return r.name }
func (r *recorder) Contract() Contract { return Contract{} }
func (r *recorder) Operate(_ context.Context, _ *Env, n *resource.Node) Outcome {
	r.offered = append(r.offered, n.Path())
	return Pass()
}

// funcTask claims whatever fn claims.
type funcTask struct {
	name string
	fn   func(env *Env, n *resource.Node) Outcome
}

func (f funcTask) Name() string       { return f.name }
func (f funcTask) Contract() Contract { return Contract{} }
func (f funcTask) Operate(_ context.Context, env *Env, n *resource.Node) Outcome {
	return f.fn(env, n)
}

// stubFonts writes a descriptor and the requested number of pages.
type stubFonts struct {
	pages  int
	err    error
	called []fontpack.Params
}

func (s *stubFonts) Rasterize(_ context.Context, _, out resource.Location, p fontpack.Params) ([]resource.Location, error) {
	s.called = append(s.called, p)
	if s.err != nil {
		return nil, s.err
	}
	desc := out.Join(p.Name + ".fnt")
	if err := desc.WriteFile([]byte("info")); err != nil {
		return nil, err
	}
	locs := []resource.Location{desc}
	for i := 0; i < s.pages; i++ {
		name := p.Name + ".png"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.png", p.Name, i)
		}
		page := out.Join(name)
		if err := page.WriteFile([]byte("png")); err != nil {
			return nil, err
		}
		locs = append(locs, page)
	}
	return locs, nil
}

// stubImages records calls instead of touching pixels.
type stubImages struct {
	mu       sync.Mutex
	calls    []string
	clampErr error
}

func (s *stubImages) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *stubImages) Size(resource.Location) (image.Point, error) { return image.Pt(1, 1), nil }

func (s *stubImages) Clamp(loc resource.Location) error {
	s.record("clamp " + loc.Name())
	return s.clampErr
}

func (s *stubImages) PreBlend(loc resource.Location, bg color.NRGBA) error {
	s.record(fmt.Sprintf("preblend %s %02x%02x%02x%02x", loc.Name(), bg.R, bg.G, bg.B, bg.A))
	return nil
}

func (s *stubImages) Resize(src, _ resource.Location, w, h int) error {
	s.record(fmt.Sprintf("resize %s %dx%d", src.Name(), w, h))
	return nil
}

func (s *stubImages) Convert(src, _ resource.Location) error {
	s.record("convert " + src.Name())
	return nil
}
