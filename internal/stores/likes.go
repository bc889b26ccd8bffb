package stores

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/melodymix/melodyctl/internal/api"
	"github.com/melodymix/melodyctl/internal/models"
	"github.com/melodymix/melodyctl/internal/notify"
	"github.com/melodymix/melodyctl/internal/shared"
)

// LikedSongs owns the set of liked song IDs. Like/unlike apply
// optimistically as reversible commands: the local mutation happens before
// the remote call, and its paired undo restores the set if the call fails,
// so the local set cannot silently diverge from backend truth.
type LikedSongs struct {
	mu       sync.Mutex
	api      *api.Client
	notifier notify.Notifier
	logger   *log.Logger
	ids      map[int64]struct{}
}

// LikedSongsOpts contains the injected dependencies for a LikedSongs store.
type LikedSongsOpts struct {
	API      *api.Client
	Notifier notify.Notifier
	Logger   *log.Logger
}

// NewLikedSongs creates an empty LikedSongs store.
func NewLikedSongs(opts LikedSongsOpts) *LikedSongs {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &LikedSongs{
		api:      opts.API,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		ids:      make(map[int64]struct{}),
	}
}

// command is a reversible local mutation: apply runs before the remote
// call, undo compensates if the call fails.
type command struct {
	apply func()
	undo  func()
}

func (s *LikedSongs) addCommand(id int64) command {
	return command{
		apply: func() {
			s.mu.Lock()
			s.ids[id] = struct{}{}
			s.mu.Unlock()
		},
		undo: func() {
			s.mu.Lock()
			delete(s.ids, id)
			s.mu.Unlock()
		},
	}
}

func (s *LikedSongs) removeCommand(id int64) command {
	c := s.addCommand(id)
	return command{apply: c.undo, undo: c.apply}
}

// Fetch replaces the liked set wholesale from the backend and returns the
// fetched songs, so callers rendering the collection share the one request.
func (s *LikedSongs) Fetch(ctx context.Context) ([]models.Song, error) {
	var songs []models.Song
	if err := s.api.Get(ctx, "/user/likes", &songs); err != nil {
		s.notifier.Error(messageOr(err, "Unable to load your liked songs."))
		return nil, fmt.Errorf("failed to fetch liked songs: %w", err)
	}

	ids := make(map[int64]struct{}, len(songs))
	for _, song := range songs {
		ids[song.ID] = struct{}{}
	}

	s.mu.Lock()
	s.ids = ids
	s.mu.Unlock()

	return songs, nil
}

// Like marks a song liked, optimistically. Failures are reported and
// swallowed; the return value indicates success.
func (s *LikedSongs) Like(ctx context.Context, songID int64) bool {
	cmd := s.addCommand(songID)
	cmd.apply()

	if err := s.api.Post(ctx, fmt.Sprintf("/user/likes/%d", songID), nil, nil); err != nil {
		s.logger.Warn("failed to like song, rolling back", "song", songID, "err", err)
		cmd.undo()
		s.notifier.Error(messageOr(err, "Action failed. Please try again."))
		return false
	}

	s.notifier.Success("Added to liked songs.")
	return true
}

// Unlike removes a song from the liked set, optimistically. Failures are
// reported and swallowed; the return value indicates success.
func (s *LikedSongs) Unlike(ctx context.Context, songID int64) bool {
	cmd := s.removeCommand(songID)
	cmd.apply()

	if err := s.api.Delete(ctx, fmt.Sprintf("/user/likes/%d", songID)); err != nil {
		s.logger.Warn("failed to unlike song, rolling back", "song", songID, "err", err)
		cmd.undo()
		s.notifier.Error(messageOr(err, "Action failed. Please try again."))
		return false
	}

	s.notifier.Success("Removed from liked songs.")
	return true
}

// ToggleLike dispatches to Like or Unlike based on current membership.
func (s *LikedSongs) ToggleLike(ctx context.Context, songID int64) bool {
	if s.IsLiked(songID) {
		return s.Unlike(ctx, songID)
	}
	return s.Like(ctx, songID)
}

// IsLiked reports membership in the liked set.
func (s *LikedSongs) IsLiked(songID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[songID]
	return ok
}

// IDs returns the liked song IDs in ascending order.
func (s *LikedSongs) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
