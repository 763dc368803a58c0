package ui

// Config contains TUI-specific configuration.
type Config struct {
	GlamourStyle    string `env:"GLAMOUR_STYLE"`
	GlamourMaxWidth uint
	NoAltScreen     bool `env:"ARTICLEREADER_NO_ALT_SCREEN"`
	EnableMouse     bool `env:"ARTICLEREADER_MOUSE"`

	// Voice preselected in the sidebar.
	DefaultVoice string

	// For debugging the UI
	GlamourEnabled bool `env:"ARTICLEREADER_ENABLE_GLAMOUR" envDefault:"true"`
}
