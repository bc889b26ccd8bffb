package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/melodymix/melodyctl/internal/models"
	"github.com/melodymix/melodyctl/internal/shared"
	"github.com/melodymix/melodyctl/internal/ui"
	"github.com/urfave/cli/v3"
)

// Play queues a playlist or the liked songs and launches the interactive player.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	if err := r.authorize("/dashboard"); err != nil {
		return err
	}

	playlistID := int64(cmd.Int("playlist"))
	var queue []models.Song

	switch {
	case playlistID > 0:
		detail, err := r.playlists.FetchDetail(ctx, playlistID)
		if err != nil {
			return err
		}
		queue = detail.Songs
	case cmd.Bool("liked"):
		// One fetch fills the queue and primes the like markers.
		liked, err := r.likes.Fetch(ctx)
		if err != nil {
			return err
		}
		queue = liked
	default:
		if err := r.api.Get(ctx, "/songs", &queue); err != nil {
			return err
		}
	}

	if len(queue) == 0 {
		return r.writePlain("Nothing to play.\n")
	}
	r.player.PlayPlaylist(queue)

	// Redirect logs to file to avoid interfering with TUI rendering, and
	// keep the file log at debug since nothing else surfaces while the
	// alternate screen is up.
	fileLogger, err := shared.NewFileLogger("./tmp/melodyctl-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, log.DebugLevel)
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.player, r.likes)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
