package doctor

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"hotconsole/internal/config"
	"hotconsole/internal/elevation"
	"hotconsole/internal/hotkey"
	"hotconsole/internal/service"
)

// Result represents a diagnostic check.
type Result struct {
	Name   string
	Pass   bool
	Detail string
}

// Run executes doctor checks.
func Run(s *config.Settings) []Result {
	results := []Result{
		checkFile("settings", s.Paths.ConfigPath),
		checkDocument(s.Paths.DataPath),
		checkDir("log dir", filepath.Dir(s.Paths.LogPath)),
		checkPlatform(),
	}
	for _, c := range s.Commands {
		if r, ok := checkCommand(c); ok {
			results = append(results, r)
		}
	}
	return append(results, checkHotkeys(s)...)
}

func checkFile(label, path string) Result {
	if path == "" {
		return Result{Name: label, Pass: false, Detail: "not set"}
	}
	if _, err := os.Stat(os.ExpandEnv(path)); err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: path}
}

func checkDir(label, dir string) Result {
	info, err := os.Stat(dir)
	if err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	if !info.IsDir() {
		return Result{Name: label, Pass: false, Detail: dir + " is not a directory"}
	}
	return Result{Name: label, Pass: true, Detail: dir}
}

func checkDocument(path string) Result {
	label := "data.json"
	doc, err := config.NewStore(path).Load()
	var nf *config.NotFoundError
	switch {
	case errors.As(err, &nf):
		return Result{Name: label, Pass: true, Detail: path + " (created on next run)"}
	case err != nil:
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: fmt.Sprintf("%s (version %d)", path, doc.Version)}
}

func checkPlatform() Result {
	if runtime.GOOS != "windows" {
		return Result{Name: "hotkeys", Pass: false, Detail: "global hotkeys need Windows; console mode only"}
	}
	detail := "not elevated; service commands may fail"
	if elevation.IsElevated() {
		detail = "elevated"
	}
	return Result{Name: "hotkeys", Pass: true, Detail: detail}
}

func checkCommand(c config.CommandConfig) (Result, bool) {
	label := "command " + c.Name
	switch c.Kind {
	case config.KindExec:
		r := checkExecutable(label, c.Command)
		return r, true
	case config.KindSQL:
		return checkDatabase(label, c.DB), true
	case config.KindHTTP:
		u, err := url.Parse(c.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return Result{Name: label, Pass: false, Detail: fmt.Sprintf("bad url %q", c.URL)}, true
		}
		return Result{Name: label, Pass: true, Detail: c.URL}, true
	case config.KindService:
		state, err := service.Query(c.Service)
		if errors.Is(err, service.ErrUnsupported) {
			return Result{}, false
		}
		if err != nil {
			return Result{Name: label, Pass: false, Detail: err.Error()}, true
		}
		return Result{Name: label, Pass: true, Detail: c.Service + " " + state.String()}, true
	}
	return Result{}, false
}

func checkExecutable(label, cmd string) Result {
	if cmd == "" {
		return Result{Name: label, Pass: false, Detail: "command not set"}
	}
	path := os.ExpandEnv(cmd)
	// If contains a path separator, treat as explicit path.
	if strings.ContainsAny(path, `/\`) {
		info, err := os.Stat(path)
		if err != nil {
			return Result{Name: label, Pass: false, Detail: err.Error()}
		}
		if info.IsDir() {
			return Result{Name: label, Pass: false, Detail: "is a directory; set command to an executable file"}
		}
		if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
			return Result{Name: label, Pass: false, Detail: "not executable; chmod +x or choose another command"}
		}
		return Result{Name: label, Pass: true, Detail: path}
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: resolved}
}

func checkDatabase(label, path string) Result {
	if !strings.HasSuffix(strings.ToLower(path), ".db") {
		return Result{Name: label, Pass: false, Detail: fmt.Sprintf("%q is not a .db file", path)}
	}
	return checkFile(label, path)
}

func checkHotkeys(s *config.Settings) []Result {
	known := map[string]bool{}
	for _, c := range s.Commands {
		known[c.Name] = true
	}
	var out []Result
	for _, hk := range s.Hotkeys {
		label := "hotkey " + hk.Combo
		combo, err := hotkey.ParseCombo(hk.Combo)
		switch {
		case err != nil:
			out = append(out, Result{Name: label, Pass: false, Detail: err.Error()})
		case !known[hk.Command]:
			out = append(out, Result{Name: label, Pass: false, Detail: fmt.Sprintf("unknown command %q", hk.Command)})
		default:
			out = append(out, Result{Name: label, Pass: true, Detail: combo.String() + " -> " + hk.Command})
		}
	}
	return out
}
