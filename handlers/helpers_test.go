package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"audionav/logging"
	"audionav/services"
	"audionav/websocket"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	logging.SetLogger(zap.NewNop())
}

// TestHelper runs the HTTP API against an in-memory device filesystem.
type TestHelper struct {
	Server    *httptest.Server
	Router    *gin.Engine
	FS        afero.Fs
	Sessions  *services.SessionManager
	Favorites services.FavoritesStore
	Hub       websocket.Hub
}

// NewTestHelper creates a new test helper with an internal volume holding a Music
// folder and one removable card.
func NewTestHelper(t *testing.T) *TestHelper {
	gin.SetMode(gin.TestMode)

	fs := afero.NewMemMapFs()
	for path, content := range map[string]string{
		"/storage/emulated/0/Music/b.mp3":          "data",
		"/storage/emulated/0/Music/a.flac":         "data",
		"/storage/emulated/0/Music/c.txt":          "text",
		"/storage/emulated/0/Music/A/01 - One.mp3": "data",
		"/storage/ABCD-1234/Podcasts/ep1.mp3":      "episode",
		"/etc/secret.mp3":                          "nope",
	} {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	discovery := services.NewVolumeDiscovery(fs, services.StaticStorageLister{"/storage/emulated/0/Android/data/app/files"}, "/storage")
	favorites := services.NewMemoryFavorites()

	ctx, cancel := context.WithCancel(context.Background())
	hub := websocket.NewHub()
	go hub.Run(ctx)

	sessions := services.NewSessionManager(func(opts ...services.NavigatorOption) *services.Navigator {
		opts = append(opts, services.WithFavorites(favorites))
		return services.NewNavigator(fs, discovery, services.NoopPermissionGate{}, opts...)
	}, hub)

	router := setupTestRouter(discovery, sessions, hub, favorites, fs)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return &TestHelper{
		Server:    server,
		Router:    router,
		FS:        fs,
		Sessions:  sessions,
		Favorites: favorites,
		Hub:       hub,
	}
}

// setupTestRouter mounts the handlers on the routes the server uses.
func setupTestRouter(discovery *services.VolumeDiscovery, sessions *services.SessionManager, hub websocket.Hub, favorites services.FavoritesStore, fs afero.Fs) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	health := NewHealthHandler(sessions, "/storage")
	volumes := NewVolumeHandler(discovery)
	sessionHandler := NewSessionHandler(sessions, hub, nil)
	favoritesHandler := NewFavoritesHandler(favorites)
	files := NewFileHandler(fs, discovery)

	router.GET("/health", health.HealthCheck)
	api := router.Group("/api")
	{
		api.GET("/status", health.APIStatus)
		api.GET("/volumes", volumes.ListVolumes)
		api.GET("/favorites", favoritesHandler.ListFavorites)
		api.POST("/sessions", sessionHandler.CreateSession)
		api.GET("/sessions", sessionHandler.ListSessions)
		api.GET("/sessions/:id", sessionHandler.GetSession)
		api.DELETE("/sessions/:id", sessionHandler.CloseSession)
		api.POST("/sessions/:id/init", sessionHandler.Init)
		api.POST("/sessions/:id/navigate", sessionHandler.Navigate)
		api.POST("/sessions/:id/back", sessionHandler.Back)
		api.POST("/sessions/:id/pin", sessionHandler.TogglePin)
		api.GET("/ws/sessions/:id", sessionHandler.HandleWebSocketConnection)
		api.GET("/files/metadata", files.GetMetadata)
		api.GET("/files/stream/*filepath", files.StreamFile)
	}
	return router
}

// MakeRequest makes an HTTP request to the test server
func (h *TestHelper) MakeRequest(t *testing.T, method, path string, body interface{}, headers ...string) *http.Response {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, h.Server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// GetJSON makes a GET request and unmarshals JSON response
func (h *TestHelper) GetJSON(t *testing.T, path string, target interface{}) *http.Response {
	return h.doJSON(t, http.MethodGet, path, nil, target)
}

// PostJSON makes a POST request with JSON body and unmarshals JSON response
func (h *TestHelper) PostJSON(t *testing.T, path string, requestBody interface{}, target interface{}) *http.Response {
	return h.doJSON(t, http.MethodPost, path, requestBody, target)
}

func (h *TestHelper) doJSON(t *testing.T, method, path string, requestBody interface{}, target interface{}) *http.Response {
	resp := h.MakeRequest(t, method, path, requestBody)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if target != nil {
		require.NoError(t, json.Unmarshal(body, target), string(body))
	}
	return resp
}

// ConnectWebSocket connects to a WebSocket endpoint
func (h *TestHelper) ConnectWebSocket(t *testing.T, path string) *gorilla.Conn {
	wsURL := "ws" + h.Server.URL[4:] + path // Replace http:// with ws://

	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}
