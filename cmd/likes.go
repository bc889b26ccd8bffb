package main

import (
	"context"
	"fmt"

	"github.com/melodymix/melodyctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// LikesList fetches and displays the liked-songs collection. The one fetch
// also refreshes the in-memory liked set.
func (r *Runner) LikesList(ctx context.Context, cmd *cli.Command) error {
	if err := r.authorize("/songs"); err != nil {
		return err
	}

	songs, err := r.likes.Fetch(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	if len(songs) == 0 {
		return r.writePlain("No liked songs yet.\n")
	}

	r.writePlainHeader("Liked Songs")
	for _, song := range songs {
		r.writePlain("%4d  %s - %s [%s]\n", song.ID, song.Artist, song.Title, shared.FormatDuration(song.Duration))
	}
	return nil
}

// LikesAdd likes a song.
func (r *Runner) LikesAdd(ctx context.Context, cmd *cli.Command) error {
	return r.mutateLike(ctx, cmd, "like", r.likes.Like)
}

// LikesRemove unlikes a song.
func (r *Runner) LikesRemove(ctx context.Context, cmd *cli.Command) error {
	return r.mutateLike(ctx, cmd, "unlike", r.likes.Unlike)
}

// LikesToggle flips a song's liked state based on the fetched collection.
func (r *Runner) LikesToggle(ctx context.Context, cmd *cli.Command) error {
	return r.mutateLike(ctx, cmd, "toggle", func(ctx context.Context, id int64) bool {
		return r.likes.ToggleLike(ctx, id)
	})
}

func (r *Runner) mutateLike(ctx context.Context, cmd *cli.Command, verb string, fn func(context.Context, int64) bool) error {
	songID, err := parseID(cmd.StringArg("song"), "song")
	if err != nil {
		return err
	}
	if err := r.authorize("/songs"); err != nil {
		return err
	}

	// Toggle needs the current liked set to decide direction.
	if _, err := r.likes.Fetch(ctx); err != nil {
		return err
	}

	if !fn(ctx, songID) {
		return fmt.Errorf("%w: failed to %s song %d", shared.ErrAPIRequest, verb, songID)
	}

	if r.likes.IsLiked(songID) {
		return r.writePlain("♥ Song %d liked\n", songID)
	}
	return r.writePlain("✓ Song %d unliked\n", songID)
}
