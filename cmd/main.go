package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/melodymix/melodyctl/internal/guard"
	"github.com/melodymix/melodyctl/internal/notify"
	"github.com/melodymix/melodyctl/internal/repositories"
	"github.com/melodymix/melodyctl/internal/session"
	"github.com/melodymix/melodyctl/internal/shared"
	"github.com/melodymix/melodyctl/internal/stores"
	"github.com/urfave/cli/v3"

	apipkg "github.com/melodymix/melodyctl/internal/api"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	runner, cleanup, err := buildRunner(config, logger)
	if err != nil {
		logger.Fatalf("startup failed: %v", err)
	}
	defer cleanup()

	app := &cli.Command{
		Name:     "melodyctl",
		Usage:    "Stream, like, and organize music from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

// buildRunner wires the credential store, gateway, session manager, and
// stores into a Runner. The returned cleanup closes the database.
func buildRunner(config *shared.Config, logger *log.Logger) (*Runner, func(), error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	cleanup := func() { db.Close() }

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	creds := repositories.NewCredentialRepository(db)
	notifier := notify.NewLogNotifier(logger)
	navigator := guard.NewLogNavigator(logger)

	gatewayLogger := shared.WithLogger(logger, "component", "gateway")
	client := apipkg.NewClient(apipkg.ClientOpts{
		BaseURL: config.Server.BaseURL,
		Logger:  gatewayLogger,
	})
	client.Use(
		apipkg.RequestIDStage(gatewayLogger),
		apipkg.RateLimitStage(apipkg.NewLimiter(config.Server.RequestsPerSecond)),
		apipkg.BearerStage(creds),
	)

	manager := session.NewManager(session.ManagerOpts{
		API:         client,
		Credentials: creds,
		Notifier:    notifier,
		Navigator:   navigator,
		Logger:      shared.WithLogger(logger, "component", "session"),
	})

	// Expired sessions tear down through the same path as an explicit logout.
	client.Observe(apipkg.AuthObserverStage(manager.Logout, notifier, gatewayLogger))

	playlists := stores.NewPlaylistStore(stores.PlaylistStoreOpts{
		API:      client,
		Notifier: notifier,
		Logger:   shared.WithLogger(logger, "component", "playlists"),
	})
	likes := stores.NewLikedSongs(stores.LikedSongsOpts{
		API:      client,
		Notifier: notifier,
		Logger:   shared.WithLogger(logger, "component", "likes"),
	})
	player := stores.NewPlayer(shared.WithLogger(logger, "component", "player"))

	runner := NewRunner(RunnerOpts{
		Config:      config,
		Logger:      logger,
		DB:          db,
		Credentials: creds,
		API:         client,
		Session:     manager,
		Playlists:   playlists,
		Likes:       likes,
		Player:      player,
		Routes:      guard.NewTable(guard.DefaultRoutes()),
		Navigator:   navigator,
		Notifier:    notifier,
	})

	return runner, cleanup, nil
}
