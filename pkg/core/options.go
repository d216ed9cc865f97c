package core

import (
	"io"
	"os"

	"github.com/oneconcern/mrdev/pkg/prompt"
	"github.com/oneconcern/mrdev/pkg/vcs"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const defaultThreads = 5

// Option sets options of the working copies orchestrator
type Option func(*settings)

type settings struct {
	threads     int
	l           *zap.Logger
	out         io.Writer
	env         *vcs.Env
	prompter    prompt.Prompter
	fs          afero.Fs
	runner      vcs.Runner
	acceptCerts bool
	cloneDepth  int
}

// Threads sets the number of workers running a batch. It defaults to 5.
// With 1 or less, batches run in the calling goroutine.
func Threads(n int) Option {
	return func(s *settings) {
		s.threads = n
	}
}

// Logger sets the logger. Messages of working copies are flushed to it.
func Logger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.l = l
		}
	}
}

// Stdout sets where the output of verbose operations goes. It defaults to os.Stdout.
func Stdout(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.out = w
		}
	}
}

// Prompter sets how the operator is asked about dirty working copies
func Prompter(p prompt.Prompter) Option {
	return func(s *settings) {
		s.prompter = p
	}
}

// Fs sets the file system holding working copies
func Fs(fs afero.Fs) Option {
	return func(s *settings) {
		s.fs = fs
	}
}

// Runner sets how version control commands are run
func Runner(r vcs.Runner) Option {
	return func(s *settings) {
		s.runner = r
	}
}

// AlwaysAcceptServerCertificate trusts svn servers without asking
func AlwaysAcceptServerCertificate(accept bool) Option {
	return func(s *settings) {
		s.acceptCerts = accept
	}
}

// CloneDepth sets the default depth of git clones. 0 clones the full history.
func CloneDepth(depth int) Option {
	return func(s *settings) {
		s.cloneDepth = depth
	}
}

// WithEnv shares an environment of working copies. Other options override its fields.
func WithEnv(env *vcs.Env) Option {
	return func(s *settings) {
		s.env = env
	}
}

func defaultSettings() settings {
	return settings{
		threads: defaultThreads,
		l:       zap.NewNop(),
		out:     os.Stdout,
	}
}

func (s settings) buildEnv() *vcs.Env {
	env := s.env
	if env == nil {
		env = vcs.NewEnv(s.l)
	}
	if s.prompter != nil {
		env.Prompter = s.prompter
	}
	if s.fs != nil {
		env.Fs = s.fs
	}
	if s.runner != nil {
		env.Runner = s.runner
	}
	if s.acceptCerts {
		env.AlwaysAcceptServerCertificate = true
	}
	if s.cloneDepth > 0 {
		env.CloneDepth = s.cloneDepth
	}
	return env
}
