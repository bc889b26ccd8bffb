// package stores holds the client's domain state stores.
//
// Each store exclusively owns one slice of application state and a set of
// operations against the gateway. Stores are independent of each other;
// they share only immutable Song/Playlist snapshots passed through actions.
package stores

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/melodymix/melodyctl/internal/models"
	"github.com/melodymix/melodyctl/internal/shared"
)

// Player owns the play queue. Invariant: currentIndex stays within
// [-1, len(songs)-1], and the current song is songs[currentIndex] exactly
// when currentIndex >= 0.
type Player struct {
	mu           sync.Mutex
	logger       *log.Logger
	songs        []models.Song
	currentIndex int
	isPlaying    bool
}

// NewPlayer creates an empty, stopped player.
func NewPlayer(logger *log.Logger) *Player {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Player{logger: logger, currentIndex: -1}
}

// PlaySong replaces the queue with a single-song queue and starts playing.
func (p *Player) PlaySong(song models.Song) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.songs = []models.Song{song}
	p.currentIndex = 0
	p.isPlaying = true
	p.logger.Debug("playing song", "title", song.Title)
}

// PlayPlaylist replaces the queue wholesale and starts at the first song.
// An empty or nil list is rejected and leaves the queue untouched.
func (p *Player) PlayPlaylist(songs []models.Song) {
	if len(songs) == 0 {
		p.logger.Warn("refusing to play an empty playlist")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.songs = append([]models.Song(nil), songs...)
	p.currentIndex = 0
	p.isPlaying = true
	p.logger.Debug("playing playlist", "songs", len(songs))
}

// PlayNext advances the queue. Moving past the end stops playback and
// clears the current song; there is no wraparound.
func (p *Player) PlayNext() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentIndex < len(p.songs)-1 {
		p.currentIndex++
		p.isPlaying = true
		return
	}

	p.currentIndex = -1
	p.isPlaying = false
}

// PlayPrevious steps back in the queue; a no-op at the start.
func (p *Player) PlayPrevious() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentIndex > 0 {
		p.currentIndex--
		p.isPlaying = true
	}
}

// TogglePlay flips the playing flag; a no-op without a current song.
func (p *Player) TogglePlay() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentIndex >= 0 {
		p.isPlaying = !p.isPlaying
	}
}

// Pause stops playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isPlaying = false
}

// Resume restarts playback; a no-op without a current song.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentIndex >= 0 {
		p.isPlaying = true
	}
}

// CurrentSong returns a copy of the current song, or nil when stopped.
func (p *Player) CurrentSong() *models.Song {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentIndex < 0 || p.currentIndex >= len(p.songs) {
		return nil
	}
	song := p.songs[p.currentIndex]
	return &song
}

// IsPlaying reports the playing flag. Meaningless without a current song.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isPlaying
}

// CurrentIndex returns the queue position, -1 when nothing is current.
func (p *Player) CurrentIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentIndex
}

// Queue returns a copy of the queued songs.
func (p *Player) Queue() []models.Song {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Song(nil), p.songs...)
}

// HasNext reports whether a song follows the current one.
func (p *Player) HasNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentIndex >= 0 && p.currentIndex < len(p.songs)-1
}

// HasPrevious reports whether a song precedes the current one.
func (p *Player) HasPrevious() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentIndex > 0
}
