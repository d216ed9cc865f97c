package vcs

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/oneconcern/mrdev/pkg/errors"
	"github.com/oneconcern/mrdev/pkg/vcs/status"
)

const masked = "HIDDEN"

// Cmd describes a command to run
type Cmd struct {
	Dir   string
	Name  string
	Args  []string
	Env   []string
	Stdin string
}

// String renders the command line, quoted for a shell. Passwords are masked.
func (c Cmd) String() string {
	words := make([]string, 0, len(c.Args)+1)
	words = append(words, c.Name)
	hide := false
	for _, arg := range c.Args {
		switch {
		case hide:
			words = append(words, masked)
			hide = false
		case arg == "--password":
			words = append(words, arg)
			hide = true
		case strings.HasPrefix(arg, "--password="):
			words = append(words, "--password="+masked)
		default:
			words = append(words, arg)
		}
	}
	return shellquote.Join(words...)
}

// Result of a command. A non-zero exit code is not an error.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output combines stdout and stderr
func (r Result) Output() string {
	return strings.TrimSpace(strings.Join([]string{strings.TrimSpace(r.Stdout), strings.TrimSpace(r.Stderr)}, "\n"))
}

// Runner runs commands
type Runner interface {
	Run(context.Context, Cmd) (Result, error)
}

// ExecRunner runs commands as sub-processes
type ExecRunner struct{}

// Run a command. Errors are reported only when the command could not be started.
func (ExecRunner) Run(ctx context.Context, c Cmd) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Name, c.Args...) // #nosec
	cmd.Dir = c.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, nil
	case errors.Is(err, exec.ErrNotFound), os.IsNotExist(err):
		return res, errors.Errorf("cannot run %s: %v", c.Name, err).Wrap(status.ErrMissingExecutable)
	default:
		return res, err
	}
}
