package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/melodymix/melodyctl/internal/formatter"
	"github.com/melodymix/melodyctl/internal/models"
	"github.com/melodymix/melodyctl/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string  // Export format: csv, markdown, text
	OutputDir  string  // Base output directory (default: playlist_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 5)
	RateLimit  float64 // Backend fetches per second (default: 5)
}

// BulkExport exports multiple playlists concurrently with rate limiting and progress tracking.
//
// Fetches run on the producer side under a rate limiter so the worker pool
// only ever handles local formatting and file writes. Partial failures are
// recorded per playlist; a manifest file summarizing the run is written last.
func (e *Exporter) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	summaries []models.PlaylistSummary,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.fetcher == nil {
		return nil, fmt.Errorf("%w: playlist fetcher not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("playlist_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Format == "" {
		opts.Format = "text"
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(summaries),
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(summaries)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan PlaylistExportJob, len(summaries))
	results := make(chan PlaylistExportResult, len(summaries))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, summary := range summaries {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			e.sendProgress(prog, fetchingUpdate(i+1, len(summaries), summary.Name))

			detail, err := e.fetcher.FetchDetail(ctx, summary.ID)
			if err != nil {
				results <- PlaylistExportResult{
					PlaylistID:   summary.ID,
					PlaylistName: summary.Name,
					Success:      false,
					Message:      err.Error(),
					Error:        fmt.Errorf("failed to fetch playlist: %w", err),
				}
				continue
			}

			jobs <- PlaylistExportJob{Detail: detail}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportedUpdate(completed, len(summaries), res.PlaylistName, res.File))
		} else {
			result.FailedExports++
			e.sendProgress(prog, failedUpdate(completed, len(summaries), res.PlaylistName, res.Error))
		}
	}

	e.sendProgress(prog, ProgressUpdate{Phase: WriteManifest, Step: 1, Total: 1, Message: "Writing manifest"})

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	manifest, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return result, fmt.Errorf("export completed but failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, manifest, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that exports playlists from the jobs channel.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan PlaylistExportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportSinglePlaylist(job, opts)
	}
}

// exportSinglePlaylist renders one playlist to disk in the requested format.
func (e *Exporter) exportSinglePlaylist(j PlaylistExportJob, opts BulkExportOpts) PlaylistExportResult {
	result := PlaylistExportResult{
		PlaylistID:   j.Detail.ID,
		PlaylistName: j.Detail.Name,
	}

	var data []byte
	var ext string
	var err error

	switch strings.ToLower(opts.Format) {
	case "csv":
		data, err = formatter.ExportToCSV(j.Detail)
		ext = "csv"
	case "markdown", "md":
		data, err = formatter.ExportToMarkdown(j.Detail)
		ext = "md"
	case "text", "txt":
		data, err = formatter.ExportToText(j.Detail)
		ext = "txt"
	default:
		result.Error = fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, opts.Format)
		result.Message = result.Error.Error()
		return result
	}
	if err != nil {
		result.Error = fmt.Errorf("export failed: %w", err)
		result.Message = result.Error.Error()
		return result
	}

	path := filepath.Join(opts.OutputDir, fmt.Sprintf("playlist_%d.%s", j.Detail.ID, ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		result.Error = fmt.Errorf("write failed: %w", err)
		result.Message = result.Error.Error()
		return result
	}

	result.File = path
	result.Success = true
	return result
}
