package services

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"audionav/logging"
	"audionav/types"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	logging.SetLogger(zap.NewNop())
}

// newTestFS builds an in-memory filesystem. Paths ending in "/" are directories.
func newTestFS(t *testing.T, paths ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, p := range paths {
		if p[len(p)-1] == '/' {
			require.NoError(t, fs.MkdirAll(p, 0o755))
			continue
		}
		require.NoError(t, afero.WriteFile(fs, p, []byte("data"), 0o644))
	}
	return fs
}

type errLister struct{ err error }

func (l errLister) ExternalStorageDirs(context.Context) ([]string, error) {
	return nil, l.err
}

type staticVolumes []types.Entry

func (v staticVolumes) Discover(context.Context) []types.Entry {
	return append([]types.Entry(nil), v...)
}

// fakeGate counts permission checks and answers with allow.
type fakeGate struct {
	mu    sync.Mutex
	allow bool
	calls int
}

func (g *fakeGate) EnsurePermission(context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.allow
}

func (g *fakeGate) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// failingFS injects errors for chosen paths.
type failingFS struct {
	afero.Fs
	openErr map[string]error
	statErr map[string]error
}

func (f failingFS) Open(name string) (afero.File, error) {
	if err, ok := f.openErr[name]; ok {
		return nil, err
	}
	return f.Fs.Open(name)
}

func (f failingFS) Stat(name string) (os.FileInfo, error) {
	if err, ok := f.statErr[name]; ok {
		return nil, err
	}
	return f.Fs.Stat(name)
}

// failingFavorites returns err from every call.
type failingFavorites struct{ err error }

func (f failingFavorites) Get(context.Context, string) (bool, error)    { return false, f.err }
func (f failingFavorites) Set(context.Context, types.Entry, bool) error { return f.err }
func (f failingFavorites) List(context.Context) ([]types.Entry, error)  { return nil, f.err }

var errBoom = errors.New("boom")
