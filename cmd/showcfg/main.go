package main

import (
	"fmt"
	"os"

	"hotconsole/internal/config"
)

func main() {
	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}
	fmt.Printf("config=%s data=%s commands=%d hotkeys=%d\n", cfg.Paths.ConfigPath, cfg.Paths.DataPath, len(cfg.Commands), len(cfg.Hotkeys))
	for _, c := range cfg.Commands {
		fmt.Printf("command %s kind=%s options=%d\n", c.Name, c.Kind, len(c.Options))
	}
	for _, h := range cfg.Hotkeys {
		fmt.Printf("hotkey %s -> %s option=%d\n", h.Combo, h.Command, h.Option)
	}
}
