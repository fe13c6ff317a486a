package types

// AudioMetadata holds tag information for one audio file.
type AudioMetadata struct {
	Path        string `json:"path"`
	Format      string `json:"format"` // "flac", "mp3", etc.
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Year        int    `json:"year,omitempty"`
	TrackNumber int    `json:"trackNumber,omitempty"`
	Size        int64  `json:"size"`
	FromTags    bool   `json:"fromTags"`
}

// NavigateRequest is the body of a navigate call.
type NavigateRequest struct {
	Path    string `json:"path" binding:"required"`
	SetRoot bool   `json:"setRoot"`
}

// PinRequest is the body of a pin toggle call.
type PinRequest struct {
	Path        string `json:"path" binding:"required"`
	Name        string `json:"name"`
	IsDirectory bool   `json:"isDirectory"`
}

// SessionResponse pairs a session id with its current snapshot.
type SessionResponse struct {
	ID    string       `json:"id"`
	State BrowserState `json:"state"`
}
