package hotkey

// Facility is the OS side of global hotkeys. Events delivers the canonical
// combo string of every pressed hotkey.
type Facility interface {
	Register(combo string) error
	AddAbbreviation(abbr, text string) error
	Events() <-chan string
	ReleaseModifiers()
	Close() error
}
