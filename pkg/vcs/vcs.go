// Package vcs drives the version control tools managing working copies.
//
// Every repository kind is served by a backend running the native command line
// tool (git, svn, hg, bzr, darcs, cvs). Working copies are built with New and
// share an Env holding the executables, credentials and certificates found
// during a run.
package vcs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/mrdev/pkg/errors"
	"github.com/oneconcern/mrdev/pkg/model"
	"github.com/oneconcern/mrdev/pkg/vcs/status"
	"github.com/spf13/afero"
	"go.uber.org/zap/zapcore"
	"gopkg.in/ini.v1"
)

// WorkingCopy is the local copy of a source
type WorkingCopy interface {
	Source() model.Source

	// Checkout creates the working copy, or updates an existing one when requested.
	Checkout(context.Context, Options) (string, error)

	// Update brings an existing working copy to the latest revision of its branch or pin
	Update(context.Context, Options) (string, error)

	// Status reports local modifications. The raw output of the tool is returned in verbose mode.
	Status(context.Context, Options) (model.Status, string, error)

	// Matches tells if the working copy was made from the configured source
	Matches(context.Context) (bool, error)

	// ShouldUpdate tells if a checkout of an existing working copy updates it
	ShouldUpdate(Options) (bool, error)

	// Messages returns and clears the messages produced so far
	Messages() []Message
}

// driver implements the backend specific part of the operations
type driver interface {
	// checkout into a missing path
	checkout(context.Context, Options) (string, error)
	// update a matching working copy
	update(context.Context, Options) (string, error)
	status(context.Context, Options) (model.Status, string, error)
	matches(context.Context) (bool, error)
}

// switcher is implemented by drivers able to move a working copy to another repository
type switcher interface {
	switchTo(context.Context, Options) (string, error)
}

type factory func(*base) driver

var (
	backends = map[model.Kind]factory{
		model.Git:        func(b *base) driver { return &gitDriver{base: b} },
		model.GitSVN:     func(b *base) driver { return &gitSVNDriver{gitDriver{base: b}} },
		model.SVN:        func(b *base) driver { return &svnDriver{base: b} },
		model.Mercurial:  func(b *base) driver { return &hgDriver{base: b} },
		model.Bazaar:     func(b *base) driver { return &bzrDriver{base: b} },
		model.Darcs:      func(b *base) driver { return &darcsDriver{base: b} },
		model.CVS:        func(b *base) driver { return &cvsDriver{base: b} },
		model.Filesystem: func(b *base) driver { return &fsDriver{base: b} },
	}

	executables = map[model.Kind][]string{
		model.Git:       {"git"},
		model.GitSVN:    {"git"},
		model.SVN:       {"svn"},
		model.Mercurial: {"hg"},
		model.Bazaar:    {"bzr"},
		model.Darcs:     {"darcs"},
		model.CVS:       {"cvs"},
	}
)

// Supported tells if a backend is available for a kind
func Supported(kind model.Kind) bool {
	_, ok := backends[kind]
	return ok
}

// Requires lists the executables needed by a kind
func Requires(kind model.Kind) []string {
	return append([]string(nil), executables[kind]...)
}

// Preflight checks that the executables of a kind are installed
func (e *Env) Preflight(kind model.Kind) error {
	for _, exe := range executables[kind] {
		if _, err := e.LookPath(exe); err != nil {
			return err
		}
	}
	return nil
}

// New builds the working copy of a source
func New(src model.Source, env *Env) (WorkingCopy, error) {
	build, ok := backends[src.Kind]
	if !ok {
		return nil, errors.Errorf("unknown repository type %q for %q", src.Kind, src.Name).Wrap(status.ErrUnsupportedKind)
	}
	if env == nil {
		env = NewEnv(nil)
	}
	b := &base{
		src:  src.Clone(),
		env:  env,
		msgs: &messages{capacity: env.MessageCapacity},
	}
	return &workingCopy{base: b, driver: build(b)}, nil
}

type workingCopy struct {
	*base
	driver driver
}

func (w *workingCopy) Source() model.Source {
	return w.src.Clone()
}

func (w *workingCopy) Messages() []Message {
	return w.msgs.drain()
}

func (w *workingCopy) ShouldUpdate(opts Options) (bool, error) {
	if opts.Offline {
		return false, nil
	}
	if v, ok := w.src.Option(model.OptUpdate); ok {
		update, err := model.ParseBool(v)
		if err != nil {
			return false, errors.Errorf("unknown value for 'update' of %q: %q", w.src.Name, v).Wrap(model.ErrConfiguration)
		}
		return update, nil
	}
	return opts.Update, nil
}

func (w *workingCopy) Checkout(ctx context.Context, opts Options) (string, error) {
	exists, err := w.exists()
	if err != nil {
		return "", err
	}
	if !exists {
		return w.driver.checkout(ctx, opts)
	}

	ok, err := w.driver.matches(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		if s, canSwitch := w.driver.(switcher); canSwitch {
			return w.switchIfClean(ctx, s, opts)
		}
		return "", w.mismatch("checkout")
	}

	update, err := w.ShouldUpdate(opts)
	if err != nil {
		return "", err
	}
	if update {
		return w.Update(ctx, opts)
	}
	w.infof("Skipped checkout of existing package '%s'.", w.src.Name)
	return "", nil
}

func (w *workingCopy) Update(ctx context.Context, opts Options) (string, error) {
	exists, err := w.exists()
	if err != nil {
		return "", err
	}
	if !exists {
		return "", w.fail(status.ErrInvalidWorkingCopy, "update", "", "directory %s does not exist", w.src.Path)
	}

	ok, err := w.driver.matches(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		if s, canSwitch := w.driver.(switcher); canSwitch {
			return w.switchIfClean(ctx, s, opts)
		}
		return "", w.mismatch("update")
	}

	if !opts.Force {
		st, _, err := w.driver.status(ctx, opts)
		if err != nil {
			return "", err
		}
		if !st.IsClean() {
			return "", w.fail(status.ErrWorkingCopyDirty, "update", "", "can't update package '%s' because it's %s", w.src.Name, st)
		}
	}
	return w.driver.update(ctx, opts)
}

func (w *workingCopy) switchIfClean(ctx context.Context, s switcher, opts Options) (string, error) {
	st, _, err := w.driver.status(ctx, opts)
	if err != nil {
		return "", err
	}
	if !st.IsClean() && !opts.Force {
		return "", w.fail(status.ErrWorkingCopyDirty, "switch", "", "can't switch package '%s' to '%s' because it's dirty", w.src.Name, w.src.URL)
	}
	return s.switchTo(ctx, opts)
}

func (w *workingCopy) Status(ctx context.Context, opts Options) (model.Status, string, error) {
	exists, err := w.exists()
	if err != nil {
		return "", "", err
	}
	if !exists {
		return "", "", w.fail(status.ErrInvalidWorkingCopy, "status", "", "directory %s does not exist", w.src.Path)
	}
	return w.driver.status(ctx, opts)
}

func (w *workingCopy) Matches(ctx context.Context) (bool, error) {
	exists, err := w.exists()
	if err != nil || !exists {
		return false, err
	}
	return w.driver.matches(ctx)
}

func (w *workingCopy) mismatch(op string) error {
	return w.fail(status.ErrRepositoryMismatch, op, "",
		"%v: the URL of '%s' differs, expected '%s'", status.ErrRepositoryMismatch, w.src.Name, w.src.URL)
}

// base holds what all drivers share
type base struct {
	src  model.Source
	env  *Env
	msgs *messages
}

func (b *base) kindName() string {
	return string(b.src.Kind)
}

func (b *base) infof(format string, args ...interface{}) {
	b.msgs.add(zapcore.InfoLevel, format, args...)
}

func (b *base) warnf(format string, args ...interface{}) {
	b.msgs.add(zapcore.WarnLevel, format, args...)
}

func (b *base) debugf(format string, args ...interface{}) {
	b.msgs.add(zapcore.DebugLevel, format, args...)
}

func (b *base) exists() (bool, error) {
	exists, err := afero.DirExists(b.env.Fs, b.src.Path)
	if err != nil {
		return false, b.fail(status.ErrInvalidWorkingCopy, "stat", "", "%v", err)
	}
	return exists, nil
}

// prepareParent creates the parent directory of the working copy
func (b *base) prepareParent(op string) (string, error) {
	parent := filepath.Dir(b.src.Path)
	if err := b.env.Fs.MkdirAll(parent, 0o755); err != nil {
		return "", b.fail(status.ErrInvalidWorkingCopy, op, "", "cannot create directory %s: %v", parent, err)
	}
	return parent, nil
}

// probe runs a command in dir and returns its result whatever the exit code
func (b *base) probe(ctx context.Context, op, dir, exe string, args ...string) (Result, error) {
	return b.probeCmd(ctx, op, Cmd{Dir: dir, Name: exe, Args: args})
}

func (b *base) probeCmd(ctx context.Context, op string, cmd Cmd) (Result, error) {
	p, err := b.env.LookPath(cmd.Name)
	if err != nil {
		return Result{}, b.fail(status.ErrMissingExecutable, op, "", "%v", err)
	}
	display := cmd.String()
	cmd.Name = p
	b.debugf("%s: running %s in %s", b.src.Name, display, cmd.Dir)
	res, err := b.env.Runner.Run(ctx, cmd)
	if err != nil {
		sentinel := status.ErrBackendExecution
		if errors.Is(err, status.ErrMissingExecutable) {
			sentinel = status.ErrMissingExecutable
		}
		return res, b.fail(sentinel, op, "", "%s: %v", display, err)
	}
	return res, nil
}

// run a command in dir, failing on a non-zero exit code
func (b *base) run(ctx context.Context, op, dir, exe string, args ...string) (Result, error) {
	res, err := b.probe(ctx, op, dir, exe, args...)
	if err != nil {
		return res, err
	}
	if res.ExitCode != 0 {
		return res, b.fail(status.ErrBackendExecution, op, res.Output(),
			"%s exited with status %d", shellWords(exe, args), res.ExitCode)
	}
	return res, nil
}

func shellWords(exe string, args []string) string {
	return Cmd{Name: exe, Args: args}.String()
}

// output selects what an operation returns
func output(opts Options, results ...Result) string {
	if !opts.Verbose {
		return ""
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if out := strings.TrimSpace(r.Stdout); out != "" {
			parts = append(parts, out)
		}
	}
	return strings.Join(parts, "\n")
}

// readFile reads a metadata file of the working copy
func (b *base) readFile(elems ...string) (string, error) {
	data, err := afero.ReadFile(b.env.Fs, filepath.Join(append([]string{b.src.Path}, elems...)...))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func isNotExist(err error) bool {
	return os.IsNotExist(err) || errors.Is(err, os.ErrNotExist)
}

// loadMetadata parses an ini-like configuration file of a version control tool
func loadMetadata(data string) (*ini.File, error) {
	return ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		KeyValueDelimiters:  "=",
	}, []byte(data))
}
