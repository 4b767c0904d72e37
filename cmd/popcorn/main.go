package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"popcorn/config"
	"popcorn/handlers"
	"popcorn/internal/database"
	"popcorn/services/auth"
	"popcorn/services/favorites"
	"popcorn/services/search"
	"popcorn/services/tmdb"
	"popcorn/utils"
)

func main() {
	configPath := flag.String("config", envOr("POPCORN_CONFIG", "settings.json"), "path to the settings file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server.fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	manager := config.NewManager(configPath)
	settings, err := manager.Load()
	if err != nil {
		return err
	}

	setupLogging(settings.Logging)

	fs := afero.NewOsFs()

	provider, verifier, err := buildAuth(manager, settings)
	if err != nil {
		return err
	}

	store := favorites.NewStore(fs, filepath.Join(settings.Data.Dir, "favorites.json"))

	searchSvc, err := search.Load(fs, settings.Search.IndexDir)
	if err != nil {
		// The rest of the app works without the index; /search returns 503.
		slog.Warn("search.index.unavailable", "dir", settings.Search.IndexDir, "error", err)
		searchSvc = nil
	} else {
		slog.Info("search.index.loaded", "items", searchSvc.Len(), "dim", searchSvc.Dim())
	}

	tmdbClient := tmdb.NewClient(settings.TMDb.APIKey,
		time.Duration(settings.TMDb.CacheTTLMinutes)*time.Minute)

	cookieOpts := utils.CookieOptions{
		Secure: settings.Auth.SecureCookies,
		Domain: settings.Auth.CookieDomain,
	}

	router := utils.NewRouter(settings.Server.CORSOrigin)
	handlers.NewAuthHandler(provider, verifier, cookieOpts).Register(router)
	handlers.NewFavoritesHandler(store, verifier).Register(router)
	handlers.NewSearchHandler(searchSvc).Register(router)
	handlers.NewMoviesHandler(tmdbClient).Register(router)
	handlers.NewPostersHandler(fs, settings.Posters.CacheDir, settings.Posters.AllowedHosts).Register(router)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server.listening", "addr", addr, "authMode", settings.Auth.Mode)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		slog.Info("server.shutting_down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// buildAuth constructs the credential provider and token verifier selected by
// auth.mode. Local and memory modes need a signing secret, generated and
// saved back to the settings file on first run.
func buildAuth(manager *config.Manager, settings *config.Settings) (auth.Provider, auth.Verifier, error) {
	switch settings.Auth.Mode {
	case "cognito":
		cfg := settings.Auth.Cognito
		if cfg.Region == "" || cfg.UserPoolID == "" || cfg.ClientID == "" {
			return nil, nil, fmt.Errorf("cognito auth requires region, userPoolId and clientId")
		}
		client := auth.NewCognitoClient(auth.CognitoConfig{
			Region:       cfg.Region,
			UserPoolID:   cfg.UserPoolID,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
		})
		return client, client, nil

	case "local":
		issuer, err := tokenIssuer(manager, settings)
		if err != nil {
			return nil, nil, err
		}
		db, err := database.NewDB(database.Config{DatabasePath: settings.Auth.DatabasePath})
		if err != nil {
			return nil, nil, err
		}
		provider := auth.NewLocalProvider(db.Users, issuer)
		return provider, provider, nil

	case "memory":
		issuer, err := tokenIssuer(manager, settings)
		if err != nil {
			return nil, nil, err
		}
		provider := auth.NewLocalProvider(auth.NewMemoryStore(), issuer)
		return provider, provider, nil

	default:
		return nil, nil, fmt.Errorf("unknown auth mode %q", settings.Auth.Mode)
	}
}

func tokenIssuer(manager *config.Manager, settings *config.Settings) (*auth.TokenIssuer, error) {
	if settings.Auth.TokenSecret == "" {
		secret, err := utils.GenerateTokenSecret()
		if err != nil {
			return nil, err
		}
		settings.Auth.TokenSecret = secret
		if err := manager.Save(settings); err != nil {
			return nil, fmt.Errorf("persist generated token secret: %w", err)
		}
		slog.Info("auth.token_secret.generated")
	}
	return auth.NewTokenIssuer(settings.Auth.TokenSecret), nil
}

func setupLogging(cfg config.LoggingSettings) {
	var out io.Writer = os.Stderr
	if cfg.File != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
