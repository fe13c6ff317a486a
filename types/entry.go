package types

// Entry is one filesystem node visible to the browser.
// Entries are recreated on every listing and carry no identity beyond Path.
type Entry struct {
	Path            string `json:"path"`
	Name            string `json:"name"`
	IsDirectory     bool   `json:"isDirectory"`
	IsPinned        bool   `json:"isPinned"`
	IsPrimaryVolume bool   `json:"isPrimaryVolume"`
}

// BrowserState is an immutable snapshot of a browsing session.
//
// On the volume selection screen CurrentPath is empty and Items equals Storages.
// On the listing screen RootPath and CurrentPath are set and Items holds the
// filtered listing of CurrentPath.
type BrowserState struct {
	RootPath     string  `json:"rootPath,omitempty"`
	CurrentPath  string  `json:"currentPath"`
	Items        []Entry `json:"items"`
	IsLoading    bool    `json:"isLoading"`
	Error        string  `json:"error,omitempty"`
	IsRootScreen bool    `json:"isRootScreen"`
	Storages     []Entry `json:"storages"`
}

// InitialState is the snapshot a session starts with, before discovery has run.
func InitialState() BrowserState {
	return BrowserState{
		Items:        []Entry{},
		Storages:     []Entry{},
		IsLoading:    true,
		IsRootScreen: true,
	}
}

// Clone returns a deep copy so callers can never alias a published snapshot.
func (s BrowserState) Clone() BrowserState {
	s.Items = cloneEntries(s.Items)
	s.Storages = cloneEntries(s.Storages)
	return s
}

func cloneEntries(in []Entry) []Entry {
	out := make([]Entry, len(in))
	copy(out, in)
	return out
}
