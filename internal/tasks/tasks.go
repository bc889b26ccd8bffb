// Package tasks runs long-running playlist operations with real-time
// progress reporting.
//
// The [Exporter] fans playlist exports out over a bounded worker pool,
// rate-limiting backend fetches and emitting [ProgressUpdate] events on a
// non-blocking channel so the CLI or UI layer can render status without
// slowing the work down.
package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/melodymix/melodyctl/internal/models"
	"github.com/melodymix/melodyctl/internal/shared"
)

// PlaylistFetcher loads full playlist details. Implemented by
// stores.PlaylistStore.
type PlaylistFetcher interface {
	FetchDetail(ctx context.Context, id int64) (*models.PlaylistDetail, error)
}

// Exporter orchestrates concurrent playlist exports.
type Exporter struct {
	fetcher PlaylistFetcher
	logger  *log.Logger
}

// NewExporter creates an Exporter over the given fetcher.
func NewExporter(fetcher PlaylistFetcher, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Exporter{fetcher: fetcher, logger: logger}
}

// PlaylistExportJob carries a fetched playlist to an export worker.
type PlaylistExportJob struct {
	Detail *models.PlaylistDetail
}

// PlaylistExportResult records the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   int64  `json:"playlist_id"`
	PlaylistName string `json:"playlist_name"`
	Success      bool   `json:"success"`
	File         string `json:"file,omitempty"`
	Message      string `json:"message,omitempty"`
	Error        error  `json:"-"`
}

// BulkExportResult summarizes a bulk export run. It is serialized as the
// manifest file alongside the exported playlists.
type BulkExportResult struct {
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	Format            string                 `json:"format"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"manifest_path,omitempty"`
	Results           []PlaylistExportResult `json:"results"`
}
