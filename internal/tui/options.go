package tui

import "time"

// BoardFieldConfig controls which card fields render on the board.
type BoardFieldConfig struct {
	ShowVendor   bool
	ShowStudent  bool
	ShowTracking bool
	ShowCosts    bool
}

type Option func(*Model)

func DefaultBoardFieldConfig() BoardFieldConfig {
	return BoardFieldConfig{
		ShowVendor:   true,
		ShowStudent:  true,
		ShowTracking: true,
		ShowCosts:    false,
	}
}

func WithBoardFieldConfig(cfg BoardFieldConfig) Option {
	return func(m *Model) {
		m.boardFields = cfg
	}
}

// WithKeyConfig overlays user key overrides onto the default bindings.
func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithTrackingPoll sets the shipment refresh interval; zero disables polling.
func WithTrackingPoll(interval time.Duration) Option {
	return func(m *Model) {
		m.trackingPoll = interval
	}
}

// WithClipboard overrides the clipboard writer, mainly for tests.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.clipboardWrite = write
		}
	}
}
