// Package ui implements the interactive player using bubbletea's Elm architecture.
//
// The [Model] renders the play queue with charmbracelet/bubbles/list and a
// now-playing status line. Playback state lives in the player store; the
// TUI only issues actions against it and re-renders. Like toggles run as
// background commands so a slow backend never blocks the event loop.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, space, n/b, l, q)
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
