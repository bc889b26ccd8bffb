package stores

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/melodymix/melodyctl/internal/api"
	"github.com/melodymix/melodyctl/internal/models"
	"github.com/melodymix/melodyctl/internal/notify"
	"github.com/melodymix/melodyctl/internal/shared"
)

// DefaultPlaylistTTL bounds how long a fetched summary collection is
// considered fresh.
const DefaultPlaylistTTL = 5 * time.Minute

// PlaylistStore owns the playlist summary collection and the currently
// loaded detail. Mutations keep both representations consistent by forcing
// a summary refetch and refreshing or patching a matching detail.
type PlaylistStore struct {
	mu        sync.Mutex
	api       *api.Client
	notifier  notify.Notifier
	logger    *log.Logger
	summaries []models.PlaylistSummary
	detail    *models.PlaylistDetail
	isLoading bool
	fetchedAt time.Time
	ttl       time.Duration
}

// PlaylistStoreOpts contains the injected dependencies for a PlaylistStore.
type PlaylistStoreOpts struct {
	API      *api.Client
	Notifier notify.Notifier
	Logger   *log.Logger
	TTL      time.Duration // zero means DefaultPlaylistTTL
}

// NewPlaylistStore creates an empty PlaylistStore.
func NewPlaylistStore(opts PlaylistStoreOpts) *PlaylistStore {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultPlaylistTTL
	}
	return &PlaylistStore{
		api:      opts.API,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		ttl:      opts.TTL,
	}
}

// fresh reports whether the cached collection is still usable. A fetch
// timestamp distinguishes an empty-but-fetched collection from one that
// was never fetched.
func (s *PlaylistStore) fresh() bool {
	return !s.fetchedAt.IsZero() && time.Since(s.fetchedAt) < s.ttl
}

// FetchMine returns the user's playlist summaries, skipping the network
// when the cache is fresh and force is false.
func (s *PlaylistStore) FetchMine(ctx context.Context, force bool) ([]models.PlaylistSummary, error) {
	s.mu.Lock()
	if !force && s.fresh() {
		cached := append([]models.PlaylistSummary(nil), s.summaries...)
		s.mu.Unlock()
		return cached, nil
	}
	s.isLoading = true
	s.mu.Unlock()
	defer s.setLoading(false)

	var summaries []models.PlaylistSummary
	if err := s.api.Get(ctx, "/playlists/my", &summaries); err != nil {
		s.notifier.Error(messageOr(err, "Unable to load your playlists."))
		return nil, fmt.Errorf("failed to fetch playlists: %w", err)
	}

	s.mu.Lock()
	s.summaries = summaries
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	return append([]models.PlaylistSummary(nil), summaries...), nil
}

// FetchDetail loads a single playlist with its songs.
func (s *PlaylistStore) FetchDetail(ctx context.Context, id int64) (*models.PlaylistDetail, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	var detail models.PlaylistDetail
	if err := s.api.Get(ctx, fmt.Sprintf("/playlists/%d", id), &detail); err != nil {
		s.mu.Lock()
		s.detail = nil
		s.mu.Unlock()
		s.notifier.Error(messageOr(err, "Unable to load playlist details."))
		if api.StatusOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %d", shared.ErrPlaylistNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch playlist %d: %w", id, err)
	}

	s.mu.Lock()
	s.detail = &detail
	s.mu.Unlock()

	cp := detail
	return &cp, nil
}

// Create makes a new playlist and forces a summary refetch.
func (s *PlaylistStore) Create(ctx context.Context, name, description string) (*models.PlaylistDetail, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	var created models.PlaylistDetail
	req := models.PlaylistRequest{Name: name, Description: description}
	if err := s.api.Post(ctx, "/playlists", req, &created); err != nil {
		s.notifier.Error(messageOr(err, "Failed to create playlist. Please try again."))
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	s.notifier.Success(fmt.Sprintf("Playlist %q created.", name))
	s.refetchSummaries(ctx)
	return &created, nil
}

// Update renames a playlist and patches a matching loaded detail locally.
func (s *PlaylistStore) Update(ctx context.Context, id int64, name, description string) (*models.PlaylistDetail, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	var updated models.PlaylistDetail
	req := models.PlaylistRequest{Name: name, Description: description}
	if err := s.api.Put(ctx, fmt.Sprintf("/playlists/%d", id), req, &updated); err != nil {
		s.notifier.Error(messageOr(err, "Failed to update playlist. Please try again."))
		return nil, fmt.Errorf("failed to update playlist %d: %w", id, err)
	}

	s.notifier.Success(fmt.Sprintf("Playlist %q updated.", name))
	s.refetchSummaries(ctx)

	s.mu.Lock()
	if s.detail != nil && s.detail.ID == id {
		s.detail.Name = name
		s.detail.Description = description
	}
	s.mu.Unlock()

	return &updated, nil
}

// Delete removes a playlist, clearing a matching loaded detail.
func (s *PlaylistStore) Delete(ctx context.Context, id int64) error {
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.api.Delete(ctx, fmt.Sprintf("/playlists/%d", id)); err != nil {
		s.notifier.Error(messageOr(err, "Failed to delete playlist. Please try again."))
		return fmt.Errorf("failed to delete playlist %d: %w", id, err)
	}

	s.notifier.Success("Playlist deleted.")
	s.refetchSummaries(ctx)

	s.mu.Lock()
	if s.detail != nil && s.detail.ID == id {
		s.detail = nil
	}
	s.mu.Unlock()

	return nil
}

// AddSong adds a song to a playlist. Failures are reported and swallowed;
// the return value indicates success.
func (s *PlaylistStore) AddSong(ctx context.Context, playlistID, songID int64) bool {
	path := fmt.Sprintf("/playlists/%d/songs/%d", playlistID, songID)
	if err := s.api.Post(ctx, path, nil, nil); err != nil {
		s.logger.Warn("failed to add song to playlist", "playlist", playlistID, "song", songID, "err", err)
		s.notifier.Error(messageOr(err, "Failed to add song. Please try again."))
		return false
	}

	s.notifier.Success("Added to playlist!")
	s.refetchSummaries(ctx)
	s.refreshDetailIfLoaded(ctx, playlistID)
	return true
}

// RemoveSong removes a song from a playlist. Failures are reported and
// swallowed; the return value indicates success.
func (s *PlaylistStore) RemoveSong(ctx context.Context, playlistID, songID int64) bool {
	path := fmt.Sprintf("/playlists/%d/songs/%d", playlistID, songID)
	if err := s.api.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to remove song from playlist", "playlist", playlistID, "song", songID, "err", err)
		s.notifier.Error(messageOr(err, "Failed to remove song. Please try again."))
		return false
	}

	s.notifier.Success("Song removed from playlist.")
	s.refreshDetailIfLoaded(ctx, playlistID)
	s.refetchSummaries(ctx)
	return true
}

// refetchSummaries forces the summary collection back in sync after a
// mutation. A refetch failure here is logged, not surfaced again: the
// mutation itself already succeeded.
func (s *PlaylistStore) refetchSummaries(ctx context.Context) {
	var summaries []models.PlaylistSummary
	if err := s.api.Get(ctx, "/playlists/my", &summaries); err != nil {
		s.logger.Warn("failed to refresh playlist summaries", "err", err)
		return
	}

	s.mu.Lock()
	s.summaries = summaries
	s.fetchedAt = time.Now()
	s.mu.Unlock()
}

// refreshDetailIfLoaded re-fetches the loaded detail when it matches the
// mutated playlist.
func (s *PlaylistStore) refreshDetailIfLoaded(ctx context.Context, id int64) {
	s.mu.Lock()
	loaded := s.detail != nil && s.detail.ID == id
	s.mu.Unlock()
	if !loaded {
		return
	}

	var detail models.PlaylistDetail
	if err := s.api.Get(ctx, fmt.Sprintf("/playlists/%d", id), &detail); err != nil {
		s.logger.Warn("failed to refresh playlist detail", "playlist", id, "err", err)
		return
	}

	s.mu.Lock()
	s.detail = &detail
	s.mu.Unlock()
}

func (s *PlaylistStore) setLoading(v bool) {
	s.mu.Lock()
	s.isLoading = v
	s.mu.Unlock()
}

// Summaries returns a copy of the cached summary collection.
func (s *PlaylistStore) Summaries() []models.PlaylistSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PlaylistSummary(nil), s.summaries...)
}

// Detail returns a copy of the loaded detail, or nil.
func (s *PlaylistStore) Detail() *models.PlaylistDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detail == nil {
		return nil
	}
	cp := *s.detail
	return &cp
}

// IsLoading reports whether a playlist operation is in flight.
func (s *PlaylistStore) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLoading
}

// messageOr prefers the server-provided error message, falling back to a
// default string.
func messageOr(err error, fallback string) string {
	if msg := api.MessageOf(err); msg != "" {
		return msg
	}
	return fallback
}
