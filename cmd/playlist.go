package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/melodymix/melodyctl/internal/formatter"
	"github.com/melodymix/melodyctl/internal/shared"
	"github.com/melodymix/melodyctl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// parseID parses a positional numeric ID argument.
func parseID(raw, name string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be numeric, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return id, nil
}

// PlaylistList lists the caller's playlists, honoring the freshness cache.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	if err := r.authorize("/my-playlists"); err != nil {
		return err
	}

	summaries, err := r.playlists.FetchMine(ctx, cmd.Bool("force"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, cmd.Bool("pretty"))
	}

	if len(summaries) == 0 {
		return r.writePlain("No playlists yet. Create one with 'melodyctl playlists create <name>'.\n")
	}

	r.writePlainHeader("My Playlists")
	for _, p := range summaries {
		r.writePlain("%4d  %s (%d songs)\n", p.ID, p.Name, p.SongCount)
		if p.Description != "" {
			r.writePlain("      %s\n", p.Description)
		}
	}
	return nil
}

// PlaylistShow displays one playlist with its songs.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"), "id")
	if err != nil {
		return err
	}
	if err := r.authorize(fmt.Sprintf("/playlists/%d", id)); err != nil {
		return err
	}

	detail, err := r.playlists.FetchDetail(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(detail, cmd.Bool("pretty"))
	}

	r.writePlainHeader(detail.Name)
	if detail.Description != "" {
		r.writePlain("%s\n\n", detail.Description)
	}
	for i, song := range detail.Songs {
		r.writePlain("%3d. %s - %s [%s]\n", i+1, song.Artist, song.Title, shared.FormatDuration(song.Duration))
	}
	return nil
}

// PlaylistCreate creates a new playlist.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}
	if err := r.authorize("/my-playlists"); err != nil {
		return err
	}

	detail, err := r.playlists.Create(ctx, name, cmd.String("description"))
	if err != nil {
		return err
	}

	return r.writePlain("✓ Created playlist %q (id %d)\n", detail.Name, detail.ID)
}

// PlaylistUpdate renames or re-describes a playlist.
func (r *Runner) PlaylistUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"), "id")
	if err != nil {
		return err
	}
	if err := r.authorize("/my-playlists"); err != nil {
		return err
	}

	name := cmd.String("name")
	description := cmd.String("description")
	if name == "" && description == "" {
		return r.writePlain("Nothing to update.\n")
	}

	detail, err := r.playlists.Update(ctx, id, name, description)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Updated playlist %q\n", detail.Name)
}

// PlaylistDelete deletes a playlist.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"), "id")
	if err != nil {
		return err
	}
	if err := r.authorize("/my-playlists"); err != nil {
		return err
	}

	if err := r.playlists.Delete(ctx, id); err != nil {
		return err
	}

	return r.writePlain("✓ Deleted playlist %d\n", id)
}

// PlaylistAddSong adds a song to a playlist.
func (r *Runner) PlaylistAddSong(ctx context.Context, cmd *cli.Command) error {
	if err := r.authorize("/my-playlists"); err != nil {
		return err
	}

	playlistID := int64(cmd.Int("playlist"))
	songID := int64(cmd.Int("song"))

	if !r.playlists.AddSong(ctx, playlistID, songID) {
		return fmt.Errorf("%w: could not add song %d to playlist %d", shared.ErrAPIRequest, songID, playlistID)
	}
	return r.writePlain("✓ Added song %d to playlist %d\n", songID, playlistID)
}

// PlaylistRemoveSong removes a song from a playlist.
func (r *Runner) PlaylistRemoveSong(ctx context.Context, cmd *cli.Command) error {
	if err := r.authorize("/my-playlists"); err != nil {
		return err
	}

	playlistID := int64(cmd.Int("playlist"))
	songID := int64(cmd.Int("song"))

	if !r.playlists.RemoveSong(ctx, playlistID, songID) {
		return fmt.Errorf("%w: could not remove song %d from playlist %d", shared.ErrAPIRequest, songID, playlistID)
	}
	return r.writePlain("✓ Removed song %d from playlist %d\n", songID, playlistID)
}

// PlaylistExport writes a playlist in the requested format to a file or stdout.
// With --all it exports every playlist concurrently into a directory.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("all") {
		return r.exportAllPlaylists(ctx, cmd)
	}

	id, err := parseID(cmd.StringArg("id"), "id")
	if err != nil {
		return err
	}
	if err := r.authorize(fmt.Sprintf("/playlists/%d", id)); err != nil {
		return err
	}

	detail, err := r.playlists.FetchDetail(ctx, id)
	if err != nil {
		return err
	}

	var data []byte
	switch format := strings.ToLower(cmd.String("format")); format {
	case "csv":
		data, err = formatter.ExportToCSV(detail)
	case "markdown", "md":
		data, err = formatter.ExportToMarkdown(detail)
	case "text", "txt":
		data, err = formatter.ExportToText(detail)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return fmt.Errorf("failed to export playlist: %w", err)
	}

	outputPath := cmd.String("output")
	if outputPath == "" {
		return r.writePlain("%s", string(data))
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	r.logger.Info("playlist exported", "id", id, "path", outputPath)
	return r.writePlain("✓ Exported playlist %q to %s\n", detail.Name, outputPath)
}

// exportAllPlaylists fans every playlist out to the bulk exporter.
func (r *Runner) exportAllPlaylists(ctx context.Context, cmd *cli.Command) error {
	if err := r.authorize("/my-playlists"); err != nil {
		return err
	}

	summaries, err := r.playlists.FetchMine(ctx, true)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		return r.writePlain("No playlists to export.\n")
	}

	exporter := tasks.NewExporter(r.playlists, r.logger)

	updates := make(chan tasks.ProgressUpdate, len(summaries)*2+4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range updates {
			r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	result, err := exporter.BulkExport(ctx, updates, summaries, tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
	})
	close(updates)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %d/%d playlists to %s\n",
		result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	if result.FailedExports > 0 {
		r.writePlain("✗ %d export(s) failed; see %s\n", result.FailedExports, result.ManifestPath)
	}
	return nil
}
