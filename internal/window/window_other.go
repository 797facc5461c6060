//go:build !windows

package window

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// SetTitle writes the xterm title sequence when stdout is a terminal.
func SetTitle(title string) error {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		_, _ = fmt.Fprintf(os.Stdout, "\033]0;%s\007", title)
	}
	return nil
}

func Title() (string, error) { return "", ErrUnsupported }

func SwitchTo(string) error { return ErrUnsupported }

func IsForeground(string) bool { return false }

func Close(string) error { return ErrUnsupported }

func SetEnglishLayout() error { return ErrUnsupported }
