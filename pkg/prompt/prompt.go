// Package prompt asks questions to the operator.
//
// A Prompter is not synchronized: callers serialize prompts with the shared input/output lock.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/howeyc/gopass"
	"github.com/oneconcern/mrdev/pkg/errors"
)

// ErrInterrupted is returned when the operator interrupts a prompt
var ErrInterrupted = errors.New("prompt interrupted")

// Answer to a yes/no question
type Answer int

// Answers
const (
	No Answer = iota
	Yes
	All
)

func (a Answer) String() string {
	switch a {
	case Yes:
		return "yes"
	case All:
		return "all"
	default:
		return "no"
	}
}

// Prompter asks questions
type Prompter interface {
	// YesNo asks a question answered by yes, no or, when allowAll is set, all.
	YesNo(question string, dflt bool, allowAll bool) (Answer, error)
	// Line reads a line of text
	Line(prompt string) (string, error)
	// Password reads a line without echoing it
	Password(prompt string) (string, error)
}

// LineReader reads one line after displaying a prompt. It returns io.EOF at the end of input.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// Option for the terminal prompter
type Option func(*Terminal)

// WithInput reads answers from r instead of the terminal
func WithInput(r io.Reader) Option {
	return func(t *Terminal) {
		t.reader = &bufferedReader{in: bufio.NewReader(r), out: t.out}
		t.password = func() ([]byte, error) {
			line, err := t.reader.ReadLine("")
			return []byte(line), err
		}
	}
}

// WithOutput writes prompts to w
func WithOutput(w io.Writer) Option {
	return func(t *Terminal) {
		t.out = w
		if br, ok := t.reader.(*bufferedReader); ok {
			br.out = w
		}
	}
}

// WithLineReader sets the source of answers
func WithLineReader(r LineReader) Option {
	return func(t *Terminal) {
		t.reader = r
	}
}

// Terminal is a Prompter over an interactive terminal
type Terminal struct {
	out      io.Writer
	reader   LineReader
	password func() ([]byte, error)
}

// New builds a prompter. By default it uses readline on the process terminal.
func New(opts ...Option) *Terminal {
	t := &Terminal{
		out:      os.Stdout,
		password: gopass.GetPasswd,
	}
	for _, apply := range opts {
		apply(t)
	}
	if t.reader == nil {
		t.reader = &terminalReader{out: t.out}
	}
	return t
}

// Close releases the terminal
func (t *Terminal) Close() error {
	if c, ok := t.reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// YesNo asks a question until a recognized answer is given.
// An empty answer or the end of input picks the default.
func (t *Terminal) YesNo(question string, dflt bool, allowAll bool) (Answer, error) {
	defaultAnswer := No
	suffix := " [yes/No"
	if dflt {
		defaultAnswer = Yes
		suffix = " [Yes/no"
	}
	guidance := "You have to answer with y, yes, n or no."
	if allowAll {
		suffix += "/all"
		guidance = "You have to answer with y, yes, n, no, a or all."
	}
	suffix += "] "

	for {
		line, err := t.reader.ReadLine(question + suffix)
		if err == io.EOF {
			return defaultAnswer, nil
		}
		if err != nil {
			return No, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return defaultAnswer, nil
		case "y", "yes":
			return Yes, nil
		case "n", "no":
			return No, nil
		case "a", "all":
			if allowAll {
				return All, nil
			}
		}
		fmt.Fprintln(t.out, guidance)
	}
}

// Line reads a line of text. The end of input yields an empty line.
func (t *Terminal) Line(prompt string) (string, error) {
	line, err := t.reader.ReadLine(prompt)
	if err == io.EOF {
		return "", nil
	}
	return strings.TrimSpace(line), err
}

// Password reads a secret without echo
func (t *Terminal) Password(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	secret, err := t.password()
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(string(secret), "\r\n"), nil
}

type bufferedReader struct {
	in  *bufio.Reader
	out io.Writer
}

func (b *bufferedReader) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(b.out, prompt)
	}
	line, err := b.in.ReadString('\n')
	if err == io.EOF && line != "" {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// terminalReader opens readline on first use
type terminalReader struct {
	out  io.Writer
	once sync.Once
	rl   *readline.Instance
	err  error
}

func (r *terminalReader) ReadLine(prompt string) (string, error) {
	r.once.Do(func() {
		r.rl, r.err = readline.NewEx(&readline.Config{
			Stdout:       r.out,
			HistoryLimit: -1,
		})
	})
	if r.err != nil {
		return "", r.err
	}
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	if err == readline.ErrInterrupt {
		return "", ErrInterrupted
	}
	return line, err
}

func (r *terminalReader) Close() error {
	if r.rl == nil {
		return nil
	}
	return r.rl.Close()
}
