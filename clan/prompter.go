package clan

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Prompter is the channel ask_user uses to reach the person running a clan.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
}

// PrompterFunc is a functional adapter for Prompter.
type PrompterFunc func(ctx context.Context, question string) (string, error)

// Ask implements Prompter.
func (f PrompterFunc) Ask(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

// ErrNoAnswer is returned when the input closes before a line was read.
var ErrNoAnswer = errors.New("user input closed without an answer")

// ConsolePrompter asks on a terminal and reads one line per question.
type ConsolePrompter struct {
	mu       sync.Mutex
	in       *bufio.Reader
	out      io.Writer
	question *color.Color
	you      *color.Color
}

// NewConsolePrompter creates a prompter reading from in and writing to out.
// Nil arguments default to stdin and stdout.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &ConsolePrompter{
		in:       bufio.NewReader(in),
		out:      out,
		question: color.New(color.FgYellow),
		you:      color.New(color.FgCyan),
	}
}

type readResult struct {
	line string
	err  error
}

// Ask prints question and waits for a line of input or ctx cancellation.
func (p *ConsolePrompter) Ask(ctx context.Context, question string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	_, _ = p.question.Fprintf(p.out, "  ? %s\n", question)
	_, _ = p.you.Fprint(p.out, "  You: ")

	done := make(chan readResult, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		done <- readResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		line := strings.TrimRight(r.line, "\r\n")
		if r.err != nil {
			if errors.Is(r.err, io.EOF) && line != "" {
				return line, nil
			}
			if errors.Is(r.err, io.EOF) {
				return "", ErrNoAnswer
			}
			return "", r.err
		}
		return line, nil
	}
}

var (
	_ Prompter = (*ConsolePrompter)(nil)
	_ Prompter = PrompterFunc(nil)
)
