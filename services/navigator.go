package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"audionav/logging"
	"audionav/metrics"
	"audionav/types"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Messages surfaced through BrowserState.Error.
var (
	ErrPermissionDenied  = errors.New("Storage permission denied")
	ErrDirectoryNotFound = errors.New("Directory does not exist")
)

// VolumeSource produces the browsable storage roots.
type VolumeSource interface {
	Discover(ctx context.Context) []types.Entry
}

// SnapshotListener is called with every committed snapshot and its request sequence number.
type SnapshotListener func(seq uint64, state types.BrowserState)

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithFavorites sets the store pins are read from and written to.
func WithFavorites(store FavoritesStore) NavigatorOption {
	return func(n *Navigator) { n.favorites = store }
}

// WithListener registers a callback for published snapshots.
func WithListener(listener SnapshotListener) NavigatorOption {
	return func(n *Navigator) { n.listener = listener }
}

// Navigator owns the browsing state of one session.
//
// Every operation builds a new snapshot from the previous one. Operations are numbered
// as they start; a snapshot is only committed while its operation is the latest one
// issued, so a slow navigation can never overwrite the result of a newer one.
type Navigator struct {
	fs        afero.Fs
	volumes   VolumeSource
	gate      PermissionGate
	favorites FavoritesStore
	listener  SnapshotListener

	// pubMu orders listener calls; it is taken before mu and held while the listener runs.
	pubMu sync.Mutex
	mu    sync.Mutex
	seq   uint64
	state types.BrowserState
}

// NewNavigator creates a navigator on the volume selection screen, in the loading state.
func NewNavigator(fs afero.Fs, volumes VolumeSource, gate PermissionGate, opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		fs:      fs,
		volumes: volumes,
		gate:    gate,
		state:   types.InitialState(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.gate == nil {
		n.gate = NoopPermissionGate{}
	}
	if n.favorites == nil {
		n.favorites = NewMemoryFavorites()
	}
	return n
}

// State returns a copy of the current snapshot.
func (n *Navigator) State() types.BrowserState {
	_, state := n.Snapshot()
	return state
}

// Snapshot returns a copy of the current snapshot with the number of the request that
// produced it.
func (n *Navigator) Snapshot() (uint64, types.BrowserState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.seq, n.state.Clone()
}

// Init discovers the volumes and shows the volume selection screen.
func (n *Navigator) Init(ctx context.Context) types.BrowserState {
	seq, prev := n.begin()

	loading := prev
	loading.IsLoading = true
	loading.Error = ""
	n.commit(seq, loading)

	volumes := n.hydratePins(ctx, n.volumes.Discover(ctx))

	n.commit(seq, types.BrowserState{
		Items:        cloneEntries(volumes),
		Storages:     volumes,
		IsRootScreen: true,
	})
	metrics.RecordNavigation("init", "ok")
	return n.State()
}

// NavigateTo lists path. Leaving the volume selection screen requires the storage
// permission and makes path the browsing root; otherwise the root only changes when
// setRoot is true. Failures are reported through the snapshot's Error field.
func (n *Navigator) NavigateTo(ctx context.Context, path string, setRoot bool) types.BrowserState {
	seq, prev := n.begin()
	logger := logging.WithContext(ctx).With(zap.String("path", path))

	working := prev
	working.IsLoading = true
	working.Error = ""
	n.commit(seq, working)

	fail := func(result string, err error) types.BrowserState {
		failed := prev
		failed.IsLoading = false
		failed.Error = err.Error()
		n.commit(seq, failed)
		metrics.RecordNavigation("navigate", result)
		return n.State()
	}

	if prev.IsRootScreen {
		if !n.gate.EnsurePermission(ctx) {
			logger.Warn("storage permission denied")
			return fail("permission_denied", ErrPermissionDenied)
		}
		working.IsRootScreen = false
		working.RootPath = path
	}

	exists, err := afero.DirExists(n.fs, path)
	if err != nil {
		logger.Error("directory check failed", zap.Error(err))
		return fail("error", err)
	}
	if !exists {
		return fail("not_found", ErrDirectoryNotFound)
	}

	entries := n.hydratePins(ctx, n.list(ctx, path))
	if err := ctx.Err(); err != nil {
		return fail("error", err)
	}

	next := working
	next.IsLoading = false
	next.CurrentPath = path
	next.Items = entries
	if setRoot {
		next.RootPath = path
	}
	n.commit(seq, next)

	metrics.RecordNavigation("navigate", "ok")
	logger.Debug("directory listed", zap.Int("items", len(entries)))
	return n.State()
}

// GoBack returns to the volume selection screen when the current directory is the
// browsing root and lists the parent directory otherwise.
func (n *Navigator) GoBack(ctx context.Context) types.BrowserState {
	current := n.State()
	if current.IsRootScreen {
		return current
	}

	if samePath(current.CurrentPath, current.RootPath) {
		seq, prev := n.begin()
		next := prev
		next.IsRootScreen = true
		next.RootPath = ""
		next.CurrentPath = ""
		next.Items = cloneEntries(prev.Storages)
		next.IsLoading = false
		next.Error = ""
		n.commit(seq, next)
		metrics.RecordNavigation("back", "volume_selection")
		return n.State()
	}

	metrics.RecordNavigation("back", "parent")
	return n.NavigateTo(ctx, filepath.Dir(filepath.Clean(current.CurrentPath)), false)
}

// TogglePin flips the persisted pin state of entry and refreshes the pin flags of the
// entries currently shown. It does not supersede an in-flight navigation.
func (n *Navigator) TogglePin(ctx context.Context, entry types.Entry) types.BrowserState {
	if entry.Name == "" {
		entry.Name = entryName(entry.Path)
	}

	err := n.togglePin(ctx, entry)
	if err != nil {
		logging.WithContext(ctx).Error("toggle pin failed", zap.String("path", entry.Path), zap.Error(err))
		metrics.RecordNavigation("pin", "error")
		n.patch(func(s *types.BrowserState) { s.Error = err.Error() })
		return n.State()
	}

	pinned, err := n.pinnedPaths(ctx)
	if err != nil {
		logging.WithContext(ctx).Warn("could not refresh pins", zap.Error(err))
	}
	n.patch(func(s *types.BrowserState) {
		s.Error = ""
		applyPins(s.Items, pinned)
		applyPins(s.Storages, pinned)
	})
	metrics.RecordNavigation("pin", "ok")
	return n.State()
}

func (n *Navigator) togglePin(ctx context.Context, entry types.Entry) error {
	pinned, err := n.favorites.Get(ctx, entry.Path)
	if err != nil {
		return fmt.Errorf("toggle pin: %w", err)
	}
	if err := n.favorites.Set(ctx, entry, !pinned); err != nil {
		return fmt.Errorf("toggle pin: %w", err)
	}
	return nil
}

// begin issues a new request number and returns it with a copy of the current snapshot.
func (n *Navigator) begin() (uint64, types.BrowserState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seq++
	return n.seq, n.state.Clone()
}

// commit publishes state if request seq is still the latest one issued. Listeners see
// snapshots in commit order, so the sequence numbers they receive never decrease.
func (n *Navigator) commit(seq uint64, state types.BrowserState) bool {
	n.pubMu.Lock()
	defer n.pubMu.Unlock()

	n.mu.Lock()
	if seq != n.seq {
		n.mu.Unlock()
		metrics.RecordStaleSnapshot()
		return false
	}
	n.state = state.Clone()
	listener := n.listener
	n.mu.Unlock()

	if listener != nil {
		listener(seq, state.Clone())
	}
	return true
}

// patch edits the current snapshot without issuing a new request number.
func (n *Navigator) patch(edit func(*types.BrowserState)) {
	n.pubMu.Lock()
	defer n.pubMu.Unlock()

	n.mu.Lock()
	next := n.state.Clone()
	edit(&next)
	n.state = next
	seq := n.seq
	listener := n.listener
	n.mu.Unlock()

	if listener != nil {
		listener(seq, next.Clone())
	}
}

// list returns the audio-relevant children of dir, sorted. Enumeration errors are
// swallowed: whatever could be read is returned, possibly nothing.
func (n *Navigator) list(ctx context.Context, dir string) []types.Entry {
	entries := []types.Entry{}

	f, err := n.fs.Open(dir)
	if err != nil {
		logging.WithContext(ctx).Debug("open directory failed", zap.String("path", dir), zap.Error(err))
		return entries
	}
	defer f.Close()

	children, err := f.Readdir(-1)
	if err != nil {
		logging.WithContext(ctx).Debug("directory partially listed", zap.String("path", dir), zap.Error(err))
	}

	for _, child := range children {
		if child == nil {
			continue
		}
		path := filepath.Join(dir, child.Name())
		isDir := child.IsDir()
		if !isDir && !IsAudioFile(path) {
			continue
		}
		entries = append(entries, types.Entry{
			Path:        path,
			Name:        entryName(path),
			IsDirectory: isDir,
		})
	}

	SortEntries(entries)
	return entries
}

// hydratePins sets IsPinned from the favorites store. Store failures leave entries unpinned.
func (n *Navigator) hydratePins(ctx context.Context, entries []types.Entry) []types.Entry {
	pinned, err := n.pinnedPaths(ctx)
	if err != nil {
		logging.WithContext(ctx).Warn("could not load pins", zap.Error(err))
	}
	applyPins(entries, pinned)
	return entries
}

func (n *Navigator) pinnedPaths(ctx context.Context) (map[string]bool, error) {
	favorites, err := n.favorites.List(ctx)
	if err != nil {
		return nil, err
	}
	pinned := make(map[string]bool, len(favorites))
	for _, f := range favorites {
		pinned[normalizeFavoritePath(f.Path)] = true
	}
	return pinned, nil
}

func applyPins(entries []types.Entry, pinned map[string]bool) {
	if pinned == nil {
		return
	}
	for i := range entries {
		entries[i].IsPinned = pinned[normalizeFavoritePath(entries[i].Path)]
	}
}

// SortEntries orders directories before files, each group by case-insensitive name.
func SortEntries(entries []types.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDirectory != b.IsDirectory {
			return a.IsDirectory
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}

// entryName is the final path segment, "/" for the filesystem root.
func entryName(path string) string {
	name := filepath.Base(path)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "/"
	}
	return name
}

// samePath compares two paths after resolving ".", ".." and trailing separators.
func samePath(a, b string) bool {
	return normalizePath(a) == normalizePath(b)
}

func normalizePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func cloneEntries(in []types.Entry) []types.Entry {
	out := make([]types.Entry, len(in))
	copy(out, in)
	return out
}
