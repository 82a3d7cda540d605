package console

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Dialogs renders host dialogs on a terminal.
type Dialogs struct {
	out io.Writer

	mu sync.Mutex
	in *bufio.Reader
	// answer, when set, is used instead of reading from in.
	answer *int
}

// Option configures Dialogs.
type Option func(*Dialogs)

// WithAnswer makes every choice dialog select the choice at index without prompting.
func WithAnswer(index int) Option {
	return func(d *Dialogs) { d.answer = &index }
}

// New creates terminal dialogs reading answers from in.
func New(in io.Reader, out io.Writer, opts ...Option) *Dialogs {
	d := &Dialogs{in: bufio.NewReader(in), out: out}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dialogs) Info(title, message string) {
	d.print(color.New(color.FgGreen, color.Bold), title, message)
}

func (d *Dialogs) Warning(title, message string) {
	d.print(color.New(color.FgYellow, color.Bold), title, message)
}

func (d *Dialogs) Error(title, message string) {
	d.print(color.New(color.FgRed, color.Bold), title, message)
}

func (d *Dialogs) print(c *color.Color, title, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s %s\n", c.Sprintf("%s:", title), message)
}

// Choose prints the choices numbered from 1 and reads the selection.
// Empty input, EOF and invalid numbers dismiss the dialog.
func (d *Dialogs) Choose(title, message string, choices []string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintf(d.out, "%s %s\n", color.New(color.FgCyan, color.Bold).Sprintf("%s:", title), message)
	for i, choice := range choices {
		fmt.Fprintf(d.out, "  [%d] %s\n", i+1, choice)
	}

	if d.answer != nil {
		if *d.answer >= 0 && *d.answer < len(choices) {
			fmt.Fprintf(d.out, "> %s\n", choices[*d.answer])
			return *d.answer
		}
		return -1
	}

	fmt.Fprint(d.out, "> ")
	line, err := d.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(d.out)
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(choices) {
		return -1
	}
	return n - 1
}
