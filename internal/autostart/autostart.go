// Package autostart writes the launcher script placed in the user's
// Startup folder.
package autostart

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"
	"unicode"
)

// ErrUnsupported is returned where there is no Startup folder.
var ErrUnsupported = errors.New("startup folder is only available on Windows")

const launcherTemplate = `@echo off
cd /d "{{.Dir}}"
start "" "{{.Binary}}"{{range .Args}} "{{.}}"{{end}}
`

var launcher = template.Must(template.New("launcher").Parse(launcherTemplate))

// Entry describes what the launcher starts.
type Entry struct {
	Name   string // file name without extension
	Binary string
	Args   []string
	Dir    string
}

// EntryName derives the launcher name from the window title.
func EntryName(title, defaultTitle string) string {
	if title == "" || title == defaultTitle {
		return "run_hotconsole"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "_"):
			b.WriteByte('_')
		}
	}
	return "run_hotconsole_" + strings.TrimSuffix(b.String(), "_")
}

// ForExecutable returns an entry that relaunches the running binary with
// args.
func ForExecutable(name string, args []string) (Entry, error) {
	exe, err := os.Executable()
	if err != nil {
		return Entry{}, fmt.Errorf("resolve executable: %w", err)
	}
	return Entry{Name: name, Binary: exe, Args: args, Dir: filepath.Dir(exe)}, nil
}

// Dir returns the user Startup folder.
func Dir() (string, error) {
	if runtime.GOOS != "windows" {
		return "", ErrUnsupported
	}
	appData, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appData, "Microsoft", "Windows", "Start Menu", "Programs", "Startup"), nil
}

// Path returns the launcher path for e in the Startup folder.
func Path(e Entry) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return PathIn(dir, e), nil
}

// PathIn returns the launcher path for e in dir.
func PathIn(dir string, e Entry) string {
	return filepath.Join(dir, e.Name+".bat")
}

// Render writes the launcher script.
func Render(w io.Writer, e Entry) error {
	return launcher.Execute(w, e)
}

// Folder is a Startup folder, real or not.
type Folder struct {
	Dir string
}

// Exists reports whether e has a launcher in f.
func (f Folder) Exists(e Entry) (bool, error) {
	_, err := os.Stat(PathIn(f.Dir, e))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Write renders e into f and returns the path written.
func (f Folder) Write(e Entry) (string, error) {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", err
	}
	path := PathIn(f.Dir, e)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if err := Render(out, e); err != nil {
		return "", err
	}
	return path, nil
}

// Remove deletes the launcher. A missing file is not an error.
func (f Folder) Remove(e Entry) error {
	err := os.Remove(PathIn(f.Dir, e))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// UserFolder returns the real Startup folder.
func UserFolder() (Folder, error) {
	dir, err := Dir()
	if err != nil {
		return Folder{}, err
	}
	return Folder{Dir: dir}, nil
}
