package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	oauth2api "google.golang.org/api/oauth2/v2"

	"github.com/adanyl0v/go-todo-lists/internal/config"
	"github.com/adanyl0v/go-todo-lists/internal/delivery/http/v1"
	"github.com/adanyl0v/go-todo-lists/internal/notify"
	"github.com/adanyl0v/go-todo-lists/internal/services"
	"github.com/adanyl0v/go-todo-lists/internal/storage/postgres"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(requestLogger())
	router.Use(gin.Recovery())
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// SIGKILL cannot be caught.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	cfg := config.Global()
	store := postgres.New(globalLogger, globalPostgresPool)

	var notifier notify.Notifier
	if cfg.Notify.Enabled {
		notifier = notify.NewLogNotifier(globalLogger.With().Str("component", "notify").Logger())
	}

	userService := services.NewUserService(globalLogger, store)
	authService := services.NewAuthService(
		globalLogger,
		userService,
		store,
		googleOAuthConfig(cfg.Google),
		cfg.JWT.Issuer,
		[]byte(cfg.JWT.SigningKey),
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
	)

	v1Handler := v1.New(
		globalLogger,
		authService,
		services.NewSessionService(globalLogger, store),
		userService,
		services.NewListService(globalLogger, store, notifier),
		services.NewTaskService(globalLogger, store, notifier),
	)
	v1.RegisterRoutes(router, v1Handler)
}

// googleOAuthConfig returns nil when Google sign-in is not configured.
func googleOAuthConfig(cfg config.GoogleConfig) *oauth2.Config {
	if !cfg.Enabled() {
		return nil
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     endpoints.Google,
		Scopes: []string{
			oauth2api.OpenIDScope,
			oauth2api.UserinfoEmailScope,
			oauth2api.UserinfoProfileScope,
		},
	}
}

// requestLogger writes one zerolog line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := globalLogger.Info()
		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			event = globalLogger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}
