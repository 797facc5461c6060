// Package console is the interactive terminal surface. Prompts read from a
// shared LineSource.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"hotconsole/internal/command"
	"hotconsole/internal/config"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

const (
	DefaultSuccess = "Script finished successfully"
	DefaultError   = "The script failed, please try again"
)

var (
	successStyle = color.New(color.FgBlack, color.BgGreen)
	errorStyle   = color.New(color.FgBlack, color.BgRed)
	headerStyle  = color.New(color.Bold)
)

// Console writes to Out and reads replies from In.
type Console struct {
	Out io.Writer
	In  *LineSource
	// Focus brings the console window forward before a prompt.
	Focus func()
}

// New returns a console on out reading from in.
func New(out io.Writer, in *LineSource) *Console {
	return &Console{Out: out, In: in}
}

func (c *Console) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.Out, format, args...)
}

func (c *Console) Println(args ...any) {
	_, _ = fmt.Fprintln(c.Out, args...)
}

// Success prints msg on a green banner.
func (c *Console) Success(msg string) {
	if msg == "" {
		msg = DefaultSuccess
	}
	c.Println()
	_, _ = successStyle.Fprintf(c.Out, " %s ", msg)
	c.Printf("\n\n\n")
}

// Error prints msg on a red banner.
func (c *Console) Error(msg string) {
	if msg == "" {
		msg = DefaultError
	}
	c.Println()
	_, _ = errorStyle.Fprintf(c.Out, " %s ", msg)
	c.Printf("\n\n\n")
}

// ReadLine shows nothing and returns the next trimmed line.
func (c *Console) ReadLine(ctx context.Context) (string, error) {
	line, err := c.In.Next(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Number reads one integer.
func (c *Console) Number(ctx context.Context) (int, error) {
	line, err := c.ReadLine(ctx)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", line, ErrNotNumber)
	}
	return n, nil
}

// Numbers reads space separated integers.
func (c *Console) Numbers(ctx context.Context) ([]int, error) {
	line, err := c.ReadLine(ctx)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", f, ErrNotNumber)
		}
		out = append(out, n)
	}
	return out, nil
}

// PrintOptions numbers the labels from 1.
func (c *Console) PrintOptions(options []command.Option) {
	for i, o := range options {
		c.Printf("%d. %s\n", i+1, o.Label())
	}
}

// AskOption prompts for a single 1-based option index.
func (c *Console) AskOption(ctx context.Context, options []command.Option, message string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("no options to choose from")
	}
	c.prepare()
	if message == "" {
		message = command.DefaultOptionsMessage
	}
	c.Printf("\n%s\n\n", message)
	c.PrintOptions(options)
	n, err := c.Number(ctx)
	if err != nil {
		return 0, err
	}
	if err := CheckRange(n, len(options)); err != nil {
		return 0, err
	}
	return n, nil
}

// AskOptions prompts for several option indexes at once.
func (c *Console) AskOptions(ctx context.Context, options []command.Option, message string) ([]int, error) {
	c.prepare()
	if message == "" {
		message = command.DefaultOptionsMessage
	}
	c.Printf("%s\n\n", message)
	c.PrintOptions(options)
	ns, err := c.Numbers(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range ns {
		if err := CheckRange(n, len(options)); err != nil {
			return nil, err
		}
	}
	return ns, nil
}

// Confirm asks a yes/no question.
func (c *Console) Confirm(ctx context.Context, message string) (bool, error) {
	n, err := c.AskOption(ctx, command.Labels("Yes", "No"), message)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// WaitEnter blocks until the user presses Enter.
func (c *Console) WaitEnter(ctx context.Context, message string) error {
	if message == "" {
		message = "Press Enter to continue..."
	}
	c.Printf("%s\n", message)
	_, err := c.In.Next(ctx)
	return err
}

// AskValue asks for a setting and stores it under key. An empty reply
// declines and leaves the document untouched.
func (c *Console) AskValue(ctx context.Context, store *config.Store, key, message string) (string, error) {
	if message == "" {
		message = "This parameter is not set in the config yet"
	}
	c.prepare()
	c.Printf("\n%s\n", message)
	c.Printf("Enter a value, or an empty line to leave the command\n\n")
	value, err := c.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	if value == "" {
		c.Printf("OK, you can add it next time or by hand in %s\n", store.Path())
		return "", nil
	}
	if err := store.UpdateField(key, value); err != nil {
		return "", err
	}
	return value, nil
}

// FromConfigOrAsk returns the stored string under key, asking the user when
// it is empty or missing.
func (c *Console) FromConfigOrAsk(ctx context.Context, store *config.Store, key, message string) (string, error) {
	v, err := store.GetField(key)
	if err != nil {
		var mk *config.MissingKeyError
		if !errors.As(err, &mk) {
			return "", err
		}
		v = ""
	}
	s, _ := v.(string)
	if s == "" {
		return c.AskValue(ctx, store, key, message)
	}
	return s, nil
}

// Table renders rows with a bold header.
func (c *Console) Table(header []string, rows [][]string) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = headerStyle.Sprint(h)
	}
	tbl.AddRow(head...)
	for _, r := range rows {
		cells := make([]interface{}, len(r))
		for i, v := range r {
			cells[i] = v
		}
		tbl.AddRow(cells...)
	}
	_, _ = fmt.Fprintln(c.Out, tbl)
}

func (c *Console) prepare() {
	if c.Focus != nil {
		c.Focus()
	}
}
