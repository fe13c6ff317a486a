package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"audionav/config"
	"audionav/handlers"
	"audionav/logging"
	"audionav/metrics"
	"audionav/middleware"
	"audionav/services"
	"audionav/websocket"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Services bundles the components shared by the web server and the CLI commands.
type Services struct {
	Config    *config.Config
	FS        afero.Fs
	Discovery *services.VolumeDiscovery
	Gate      services.PermissionGate
	Favorites services.FavoritesStore

	closers []func() error
}

// NewServices wires the browser components described by cfg on top of fs.
func NewServices(ctx context.Context, cfg *config.Config, fs afero.Fs) (*Services, error) {
	favorites, closer, err := newFavoritesStore(ctx, cfg, fs)
	if err != nil {
		return nil, err
	}

	svc := &Services{
		Config:    cfg,
		FS:        fs,
		Discovery: services.NewVolumeDiscovery(fs, services.StaticStorageLister(cfg.ExternalDirs), cfg.StorageRoot),
		Gate:      services.NewPermissionGate(cfg.PermissionMode, cfg.StorageRoot),
		Favorites: favorites,
	}
	if closer != nil {
		svc.closers = append(svc.closers, closer)
	}
	return svc, nil
}

// Close releases the resources held by the services.
func (s *Services) Close() error {
	var errs []error
	for _, closer := range s.closers {
		errs = append(errs, closer())
	}
	return errors.Join(errs...)
}

// NewNavigator builds a navigator sharing the services' collaborators.
func (s *Services) NewNavigator(opts ...services.NavigatorOption) *services.Navigator {
	opts = append([]services.NavigatorOption{services.WithFavorites(s.Favorites)}, opts...)
	return services.NewNavigator(s.FS, s.Discovery, s.Gate, opts...)
}

func newFavoritesStore(ctx context.Context, cfg *config.Config, fs afero.Fs) (services.FavoritesStore, func() error, error) {
	switch cfg.FavoritesBackend {
	case config.FavoritesMemory:
		return services.NewMemoryFavorites(), nil, nil
	case config.FavoritesPostgres:
		store, err := services.NewPostgresFavorites(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres favorites: %w", err)
		}
		return store, store.Close, nil
	default:
		store, err := services.NewFileFavorites(fs, cfg.FavoritesFile)
		if err != nil {
			return nil, nil, fmt.Errorf("file favorites: %w", err)
		}
		return store, nil, nil
	}
}

// NewRouter builds the HTTP API over svc.
func NewRouter(svc *Services, hub websocket.Hub, sessions *services.SessionManager) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logging())
	r.Use(middleware.CORS(svc.Config.CORSOrigins))
	r.Use(middleware.Security())

	setupRoutes(r,
		handlers.NewHealthHandler(sessions, svc.Config.StorageRoot),
		handlers.NewVolumeHandler(svc.Discovery),
		handlers.NewSessionHandler(sessions, hub, svc.Config.CORSOrigins),
		handlers.NewFavoritesHandler(svc.Favorites),
		handlers.NewFileHandler(svc.FS, svc.Discovery),
	)
	return r
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, healthHandler *handlers.HealthHandler, volumeHandler *handlers.VolumeHandler, sessionHandler *handlers.SessionHandler, favoritesHandler *handlers.FavoritesHandler, fileHandler *handlers.FileHandler) {
	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)
		apiGroup.GET("/volumes", volumeHandler.ListVolumes)
		apiGroup.GET("/favorites", favoritesHandler.ListFavorites)

		sessionsGroup := apiGroup.Group("/sessions")
		{
			sessionsGroup.POST("", sessionHandler.CreateSession)
			sessionsGroup.GET("", sessionHandler.ListSessions)
			sessionsGroup.GET("/:id", sessionHandler.GetSession)
			sessionsGroup.DELETE("/:id", sessionHandler.CloseSession)
			sessionsGroup.POST("/:id/init", sessionHandler.Init)
			sessionsGroup.POST("/:id/navigate", sessionHandler.Navigate)
			sessionsGroup.POST("/:id/back", sessionHandler.Back)
			sessionsGroup.POST("/:id/pin", sessionHandler.TogglePin)
		}

		apiGroup.GET("/ws/sessions/:id", sessionHandler.HandleWebSocketConnection)

		apiGroup.GET("/files/metadata", fileHandler.GetMetadata)
		apiGroup.GET("/files/stream/*filepath", fileHandler.StreamFile)
	}
}

// StartWebServer starts the web server and blocks until SIGINT or SIGTERM.
// A positive port overrides the configured one.
func StartWebServer(cfg *config.Config, port int) error {
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := NewServices(ctx, cfg, afero.NewOsFs())
	if err != nil {
		return err
	}
	defer svc.Close()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	sessions := services.NewSessionManager(svc.NewNavigator, hub)

	portStr := cfg.ServerPort
	if port > 0 {
		portStr = strconv.Itoa(port)
	}

	httpServer := &http.Server{
		Addr:        ":" + portStr,
		Handler:     NewRouter(svc, hub, sessions),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.L().Info("audionav web server starting",
			zap.String("port", portStr),
			zap.String("storage_root", cfg.StorageRoot),
			zap.String("favorites", cfg.FavoritesBackend),
			zap.String("permission", cfg.PermissionMode))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logging.L().Info("server stopped")
	return nil
}
