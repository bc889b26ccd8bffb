package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/melodymix/melodyctl/internal/models"
	"github.com/melodymix/melodyctl/internal/stores"
)

// Model represents the player TUI state.
type Model struct {
	ctx       context.Context
	player    *stores.Player
	likes     *stores.LikedSongs
	queueList list.Model
	width     int
	height    int
	statusMsg string
	err       error
	help      help.Model
	keys      keyMap
}

type likesFetchedMsg struct {
	err error
}

type likeToggledMsg struct {
	songID int64
	ok     bool
}

// NewModel creates a player TUI over the given stores. The player's queue
// should already be populated by the caller.
func NewModel(ctx context.Context, player *stores.Player, likes *stores.LikedSongs) *Model {
	m := &Model{
		ctx:    ctx,
		player: player,
		likes:  likes,
		help:   help.New(),
		keys:   newKeyMap(),
	}
	m.queueList = list.New(m.queueItems(), list.NewDefaultDelegate(), 0, 0)
	m.queueList.Title = "Play Queue"
	m.queueList.SetShowHelp(false)
	return m
}

func (m *Model) queueItems() []list.Item {
	queue := m.player.Queue()
	items := make([]list.Item, len(queue))
	for i, song := range queue {
		items[i] = songItem{song: song, liked: m.likes.IsLiked(song.ID)}
	}
	return items
}

// Init fetches the liked-song set so queue items can show like markers.
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg {
		_, err := m.likes.Fetch(m.ctx)
		return likesFetchedMsg{err: err}
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.queueList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case likesFetchedMsg:
		if msg.err != nil {
			m.statusMsg = "liked songs unavailable"
			return m, nil
		}
		m.queueList.SetItems(m.queueItems())
		return m, nil

	case likeToggledMsg:
		if !msg.ok {
			m.statusMsg = "like failed"
		} else {
			m.statusMsg = ""
		}
		m.queueList.SetItems(m.queueItems())
		return m, nil
	}

	var cmd tea.Cmd
	m.queueList, cmd = m.queueList.Update(msg)
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.toggle):
		m.player.TogglePlay()
		return m, nil

	case key.Matches(msg, m.keys.next):
		m.player.PlayNext()
		return m, nil

	case key.Matches(msg, m.keys.previous):
		m.player.PlayPrevious()
		return m, nil

	case key.Matches(msg, m.keys.enter):
		if item, ok := m.queueList.SelectedItem().(songItem); ok {
			m.player.PlaySong(item.song)
		}
		return m, nil

	case key.Matches(msg, m.keys.like):
		if item, ok := m.queueList.SelectedItem().(songItem); ok {
			return m, m.toggleLike(item.song)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.queueList, cmd = m.queueList.Update(msg)
	return m, cmd
}

func (m *Model) toggleLike(song models.Song) tea.Cmd {
	return func() tea.Msg {
		ok := m.likes.ToggleLike(m.ctx, song.ID)
		return likeToggledMsg{songID: song.ID, ok: ok}
	}
}

// View renders the queue and the now-playing status line.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	view := m.queueList.View() + "\n" + m.statusLine()
	if m.statusMsg != "" {
		view += "\n" + styles.warn.Render(m.statusMsg)
	}
	return view + "\n" + m.help.View(m.keys)
}

func (m *Model) statusLine() string {
	current := m.player.CurrentSong()
	if current == nil {
		return styles.help.Render("nothing playing")
	}

	marker := "⏸"
	if m.player.IsPlaying() {
		marker = "▶"
	}
	line := fmt.Sprintf("%s %s - %s", marker, current.Artist, current.Title)
	if m.likes.IsLiked(current.ID) {
		line += " ♥"
	}
	return styles.status.Render(line)
}
