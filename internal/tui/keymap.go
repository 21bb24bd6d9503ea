package tui

import (
	"strings"
	"unicode"

	"charm.land/bubbles/v2/key"
)

// KeyConfig carries user key overrides from the config file. Empty fields
// keep the default binding.
type KeyConfig struct {
	Select     string
	SelectAll  string
	SameVendor string
	Group      string
	AddToOrder string
	Delete     string
	Undo       string
	Refresh    string
}

// keyMap represents key map data used by this package.
type keyMap struct {
	quit           key.Binding
	reload         key.Binding
	toggleHelp     key.Binding
	moveLeft       key.Binding
	moveRight      key.Binding
	moveUp         key.Binding
	moveDown       key.Binding
	newOrder       key.Binding
	orderInfo      key.Binding
	editCard       key.Binding
	toggleSelect   key.Binding
	selectAll      key.Binding
	sameVendor     key.Binding
	clearSelection key.Binding
	groupSelection key.Binding
	addToOrder     key.Binding
	moveCardLeft   key.Binding
	moveCardRight  key.Binding
	deleteCard     key.Binding
	copyTracking   key.Binding
	undo           key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:       key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:      key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "card up")),
		moveDown:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "card down")),
		newOrder:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new part request")),
		orderInfo:      key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "details")),
		editCard:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		toggleSelect:   key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "select")),
		selectAll:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all requested")),
		sameVendor:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "select same vendor")),
		clearSelection: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear selection")),
		groupSelection: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "group selection")),
		addToOrder:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "add to order")),
		moveCardLeft:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move status left")),
		moveCardRight:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move status right")),
		deleteCard:     key.NewBinding(key.WithKeys("x", "d"), key.WithHelp("x", "delete")),
		copyTracking:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy tracking")),
		undo:           key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "undo")),
	}
}

// applyConfig overlays user key overrides onto the defaults.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.toggleSelect, cfg.Select, "space", "select")
	configureBinding(&k.selectAll, cfg.SelectAll, "a", "select all requested")
	configureBinding(&k.sameVendor, cfg.SameVendor, "v", "select same vendor")
	configureBinding(&k.groupSelection, cfg.Group, "g", "group selection")
	configureBinding(&k.addToOrder, cfg.AddToOrder, "o", "add to order")
	configureBinding(&k.deleteCard, cfg.Delete, "x", "delete")
	configureBinding(&k.undo, cfg.Undo, "z", "undo")
	configureBinding(&k.reload, cfg.Refresh, "r", "reload")
}

// configureBinding rebinds one key.Binding from a raw config value.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, helpKey := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(helpKey, desc)
}

// parseBindingKeys maps a raw config value to bubbletea key matchers. The
// "space" alias matches both forms, a single uppercase rune also matches its
// shift+ form, and multi-rune chords are lowercased.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if raw == "space" || raw == " " {
		return []string{" ", "space"}, "space"
	}
	runes := []rune(raw)
	if len(runes) == 1 {
		if unicode.IsUpper(runes[0]) {
			return []string{raw, "shift+" + strings.ToLower(raw)}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.newOrder, k.toggleSelect, k.groupSelection, k.deleteCard, k.undo, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.newOrder, k.orderInfo, k.editCard, k.copyTracking, k.reload, k.toggleHelp, k.quit},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.moveCardLeft, k.moveCardRight},
		{k.toggleSelect, k.selectAll, k.sameVendor, k.clearSelection, k.groupSelection, k.addToOrder, k.deleteCard, k.undo},
	}
}
