// Package sink publishes rendered status lines.
package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/go-andiamo/splitter"
)

// DefaultCommand sets the X root window name, which dwm and similar window
// managers show in their bar.
const DefaultCommand = "xsetroot -name"

// ErrEmptyCommand is returned by NewCommand for a blank command line.
var ErrEmptyCommand = errors.New("sink: empty command")

// Sink receives one status line per tick.
type Sink interface {
	Publish(ctx context.Context, status string) error
}

var (
	_ Sink = (*Command)(nil)
	_ Sink = (*Writer)(nil)
)

// Command runs an external program with the status as its last argument.
type Command struct {
	name string
	args []string
}

// NewCommand parses cmdline into a program and its leading arguments.
// Single and double quotes group words.
func NewCommand(cmdline string) (*Command, error) {
	if strings.TrimSpace(cmdline) == "" {
		return nil, ErrEmptyCommand
	}
	cmdSplitter, err := splitter.NewSplitter(' ', splitter.SingleQuotes, splitter.DoubleQuotes)
	if err != nil {
		return nil, fmt.Errorf("creating command splitter: %w", err)
	}
	parts, err := cmdSplitter.Split(cmdline, splitter.Trim("'\""))
	if err != nil {
		return nil, fmt.Errorf("parsing command %q: %w", cmdline, err)
	}
	words := parts[:0]
	for _, p := range parts {
		if p != "" {
			words = append(words, p)
		}
	}
	if len(words) == 0 {
		return nil, ErrEmptyCommand
	}
	return &Command{name: words[0], args: words[1:]}, nil
}

// Name returns the program that is run.
func (c *Command) Name() string { return c.name }

// Args returns the arguments placed before the status.
func (c *Command) Args() []string {
	out := make([]string, len(c.args))
	copy(out, c.args)
	return out
}

// Publish runs the command and waits for it to exit.
func (c *Command) Publish(ctx context.Context, status string) error {
	args := make([]string, 0, len(c.args)+1)
	args = append(args, c.args...)
	args = append(args, status)

	//nolint:gosec // the command line comes from the user's own flags
	out, err := exec.CommandContext(ctx, c.name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("running %s: %w: %s", c.name, err, msg)
		}
		return fmt.Errorf("running %s: %w", c.name, err)
	}
	return nil
}

// Writer writes each status as a line to an io.Writer.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a Writer sink over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Publish writes status followed by a newline.
func (w *Writer) Publish(_ context.Context, status string) error {
	var buf bytes.Buffer
	buf.Grow(len(status) + 1)
	buf.WriteString(status)
	buf.WriteByte('\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing status: %w", err)
	}
	return nil
}
