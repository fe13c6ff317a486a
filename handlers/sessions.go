package handlers

import (
	"net/http"
	"time"

	"audionav/logging"
	"audionav/services"
	"audionav/types"
	"audionav/websocket"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SessionHandler exposes browsing sessions: lifecycle, navigation and snapshot streaming.
type SessionHandler struct {
	sessions *services.SessionManager
	hub      websocket.Hub
	upgrader gorilla.Upgrader
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *services.SessionManager, hub websocket.Hub, allowedOrigins []string) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		hub:      hub,
		upgrader: websocket.NewUpgrader(allowedOrigins),
	}
}

// CreateSession opens a session on the volume selection screen.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	session := h.sessions.Create(c.Request.Context())
	c.JSON(http.StatusCreated, types.SessionResponse{ID: session.ID, State: session.State()})
}

// ListSessions returns the open sessions.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions := h.sessions.List()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns the current snapshot of a session.
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, types.SessionResponse{ID: session.ID, State: session.State()})
}

// CloseSession closes a session and disconnects its subscribers.
func (h *SessionHandler) CloseSession(c *gin.Context) {
	if !h.sessions.Close(c.Request.Context(), c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Init reruns volume discovery and returns to the volume selection screen.
func (h *SessionHandler) Init(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, types.SessionResponse{ID: session.ID, State: session.Init(c.Request.Context())})
}

// Navigate lists a directory. Navigation failures are reported in the state's error field.
func (h *SessionHandler) Navigate(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req types.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}

	state := session.NavigateTo(c.Request.Context(), req.Path, req.SetRoot)
	c.JSON(http.StatusOK, types.SessionResponse{ID: session.ID, State: state})
}

// Back goes to the parent directory or the volume selection screen.
func (h *SessionHandler) Back(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, types.SessionResponse{ID: session.ID, State: session.GoBack(c.Request.Context())})
}

// TogglePin flips the pin state of an entry.
func (h *SessionHandler) TogglePin(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req types.PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}

	state := session.TogglePin(c.Request.Context(), types.Entry{
		Path:        req.Path,
		Name:        req.Name,
		IsDirectory: req.IsDirectory,
	})
	c.JSON(http.StatusOK, types.SessionResponse{ID: session.ID, State: state})
}

// HandleWebSocketConnection streams the snapshots of a session. The current snapshot
// is sent first.
func (h *SessionHandler) HandleWebSocketConnection(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.WithContext(c.Request.Context()).Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	seq, state := session.Snapshot()
	client := websocket.NewClient(h.hub, conn, session.ID)
	client.Prime(types.StateMessage{
		SessionID: session.ID,
		Type:      types.MessageState,
		Seq:       seq,
		State:     &state,
		Timestamp: time.Now(),
	})
	h.hub.RegisterClient(client)
	client.StartPumps()
}

func (h *SessionHandler) session(c *gin.Context) (*services.Session, bool) {
	session, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return session, true
}
