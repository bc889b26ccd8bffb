package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/melodymix/melodyctl/internal/models"
	"github.com/melodymix/melodyctl/internal/shared"
)

var _ list.Item = songItem{}

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song  models.Song
	liked bool
}

func (i songItem) FilterValue() string { return i.song.Title }

func (i songItem) Title() string {
	if i.liked {
		return fmt.Sprintf("%s ♥", i.song.Title)
	}
	return i.song.Title
}

func (i songItem) Description() string {
	desc := i.song.Artist
	if i.song.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.song.Album)
	}
	if i.song.Duration > 0 {
		desc = fmt.Sprintf("%s [%s]", desc, shared.FormatDuration(i.song.Duration))
	}
	return desc
}
