package config

// Command kinds understood by the built-in catalog.
const (
	KindExec    = "exec"
	KindService = "service"
	KindSQL     = "sql"
	KindHTTP    = "http"
	KindINN     = "inn"
	KindUUID    = "uuid"
	KindKill    = "kill"
	KindFocus   = "focus"
)

// CommandConfig declares a command in the settings file.
type CommandConfig struct {
	Name           string            `toml:"name"`
	Description    string            `toml:"description"`
	Kind           string            `toml:"kind,omitempty"` // defaults to exec
	Options        []OptionConfig    `toml:"options,omitempty"`
	OptionsMessage string            `toml:"options_message,omitempty"`
	Multi          bool              `toml:"multi,omitempty"`          // exec, pick several options at once
	ConfigMessage  string            `toml:"config_message,omitempty"` // asked when a ${config:key} is unset
	Command        string            `toml:"command,omitempty"`   // exec
	Args           []string          `toml:"args,omitempty"`      // exec
	ArgsLine       string            `toml:"args_line,omitempty"` // exec, split with shell rules
	Dir            string            `toml:"dir,omitempty"`       // exec
	Env            map[string]string `toml:"env,omitempty"`       // exec
	TimeoutSec     float64           `toml:"timeout_sec,omitempty"`
	Service        string            `toml:"service,omitempty"` // service
	DB             string            `toml:"db,omitempty"`      // sql
	Query          string            `toml:"query,omitempty"`   // sql
	URL            string            `toml:"url,omitempty"`     // http
	Process        string            `toml:"process,omitempty"` // kill
	Window         string            `toml:"window,omitempty"`  // focus
}

// OptionConfig is one selectable option. Key is optional.
type OptionConfig struct {
	Key   string `toml:"key,omitempty"`
	Label string `toml:"label"`
}

// HotkeyConfig binds a key combination to a declared command. Option 0 asks
// interactively.
type HotkeyConfig struct {
	Combo   string `toml:"combo"`
	Command string `toml:"command"`
	Option  int    `toml:"option,omitempty"`
}

// HotstringConfig expands Abbreviation into Text when followed by space.
type HotstringConfig struct {
	Abbreviation string `toml:"abbreviation"`
	Description  string `toml:"description,omitempty"`
	Text         string `toml:"text"`
}
