package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Card info panels can get narrow on split terminals; below this wrap
// width glamour output degrades badly, so we clamp.
const minNotesWrap = 24

// markdownRenderer styles the notes shown in the card info panel. The
// glamour renderer is wrap-width specific, so it is rebuilt whenever the
// panel is resized and cached between renders otherwise.
type markdownRenderer struct {
	wrap     int
	renderer *glamour.TermRenderer
}

// render styles the given notes text for a panel of the given width. On
// any renderer failure it falls back to the raw text so the info view
// still shows something useful.
func (r *markdownRenderer) render(notes string, width int) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return ""
	}

	if err := r.ensure(max(width, minNotesWrap)); err != nil {
		return notes
	}
	styled, err := r.renderer.Render(notes)
	if err != nil {
		return notes
	}
	return strings.TrimRight(styled, "\n")
}

func (r *markdownRenderer) ensure(wrap int) error {
	if r.renderer != nil && r.wrap == wrap {
		return nil
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return err
	}
	r.renderer = renderer
	r.wrap = wrap
	return nil
}
