// Package core runs version control operations over the working copies of a registry.
//
// Checkout and update batches are queued up front, then drained by a bounded pool
// of workers. The first failure stops workers from picking up more operations,
// while operations in flight run to completion.
package core

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/oneconcern/mrdev/pkg/core/status"
	"github.com/oneconcern/mrdev/pkg/errors"
	"github.com/oneconcern/mrdev/pkg/model"
	"github.com/oneconcern/mrdev/pkg/prompt"
	"github.com/oneconcern/mrdev/pkg/registry"
	"github.com/oneconcern/mrdev/pkg/vcs"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// WorkingCopies orchestrates the working copies of the sources of a registry
type WorkingCopies struct {
	registry *registry.Registry
	env      *vcs.Env
	threads  int
	l        *zap.Logger
	out      io.Writer
}

// New orchestrator for the sources of a registry
func New(reg *registry.Registry, opts ...Option) *WorkingCopies {
	s := defaultSettings()
	for _, apply := range opts {
		apply(&s)
	}
	if reg == nil {
		reg = registry.New()
	}
	return &WorkingCopies{
		registry: reg,
		env:      s.buildEnv(),
		threads:  s.threads,
		l:        s.l,
		out:      s.out,
	}
}

// Env shared by the working copies
func (w *WorkingCopies) Env() *vcs.Env {
	return w.env
}

// Registry of sources
func (w *WorkingCopies) Registry() *registry.Registry {
	return w.registry
}

type operation int

const (
	opCheckout operation = iota
	opUpdate
)

func (o operation) String() string {
	if o == opUpdate {
		return "update"
	}
	return "checkout"
}

type pathState int

const (
	pathMissing pathState = iota
	pathPresent
	pathLinked
)

// Checkout creates the working copies of packages, and updates existing ones when requested.
func (w *WorkingCopies) Checkout(ctx context.Context, names []string, opts BatchOptions) error {
	return w.batch(ctx, opCheckout, names, opts)
}

// Update brings the existing working copies of packages up to date.
func (w *WorkingCopies) Update(ctx context.Context, names []string, opts BatchOptions) error {
	return w.batch(ctx, opUpdate, names, opts)
}

func (w *WorkingCopies) batch(ctx context.Context, op operation, names []string, opts BatchOptions) error {
	base, err := opts.resolve()
	if err != nil {
		w.l.Error(err.Error())
		return err
	}

	copies, err := w.resolve(names)
	if err != nil {
		return err
	}
	if err := w.preflight(copies); err != nil {
		return err
	}

	var jobs []job
	forceAll := base.Force
	for _, wc := range copies {
		src := wc.Source()
		jobOpts := base
		jobOpts.Force = forceAll

		state, err := w.pathState(src.Path)
		if err != nil {
			w.l.Error(err.Error())
			return err
		}

		switch state {
		case pathLinked:
			w.l.Info("Skipped update of linked '" + src.Name + "'.")
			continue
		case pathMissing:
			if op == opUpdate {
				w.l.Info("Skipped update of missing package '" + src.Name + "'.")
				continue
			}
		case pathPresent:
			if op == opUpdate && jobOpts.Offline {
				w.l.Info("Skipped update of '" + src.Name + "' (offline).")
				continue
			}
			update := true
			if op == opCheckout {
				if update, err = wc.ShouldUpdate(jobOpts); err != nil {
					w.l.Error(err.Error())
					return err
				}
			}
			if update && !jobOpts.Force {
				dirty, answer, err := w.confirmIfDirty(ctx, wc, jobOpts)
				if err != nil {
					return err
				}
				if dirty {
					switch answer {
					case prompt.No:
						w.l.Info("Skipped update of '" + src.Name + "'.")
						continue
					case prompt.All:
						forceAll = true
					}
					jobOpts.Force = true
				}
			}
		}

		w.l.Info("Queued '" + src.Name + "' for " + op.String() + ".")
		jobs = append(jobs, job{wc: wc, op: op, opts: jobOpts})
	}
	return w.process(ctx, jobs)
}

// resolve working copies of packages, failing on unknown names or kinds
func (w *WorkingCopies) resolve(names []string) ([]vcs.WorkingCopy, error) {
	copies := make([]vcs.WorkingCopy, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		src, ok := w.registry.Get(name)
		if !ok {
			err := errors.Errorf("No source defined for '%s'.", name).Wrap(status.ErrNoSource)
			w.l.Error(err.Error())
			return nil, err
		}
		if !vcs.Supported(src.Kind) {
			err := errors.Errorf("Unknown repository type '%s'.", src.Kind).Wrap(status.ErrUnknownKind)
			w.l.Error(err.Error())
			return nil, err
		}
		wc, err := vcs.New(src, w.env)
		if err != nil {
			w.l.Error(err.Error())
			return nil, err
		}
		copies = append(copies, wc)
	}
	return copies, nil
}

// preflight checks the executables needed by the kinds of a batch, once per kind
func (w *WorkingCopies) preflight(copies []vcs.WorkingCopy) error {
	checked := make(map[model.Kind]struct{})
	for _, wc := range copies {
		kind := wc.Source().Kind
		if _, done := checked[kind]; done {
			continue
		}
		checked[kind] = struct{}{}
		if err := w.env.Preflight(kind); err != nil {
			w.l.Error(err.Error())
			w.l.Error("Install " + strings.Join(vcs.Requires(kind), ", ") + " or add it to your PATH to manage " + string(kind) + " sources.")
			return err
		}
	}
	return nil
}

func (w *WorkingCopies) pathState(p string) (pathState, error) {
	var (
		info os.FileInfo
		err  error
	)
	if lstater, ok := w.env.Fs.(afero.Lstater); ok {
		info, _, err = lstater.LstatIfPossible(p)
	} else {
		info, err = w.env.Fs.Stat(p)
	}
	switch {
	case os.IsNotExist(err):
		return pathMissing, nil
	case err != nil:
		return pathMissing, err
	case info.Mode()&os.ModeSymlink != 0:
		return pathLinked, nil
	default:
		return pathPresent, nil
	}
}

// confirmIfDirty asks whether to update a dirty working copy
func (w *WorkingCopies) confirmIfDirty(ctx context.Context, wc vcs.WorkingCopy, opts vcs.Options) (bool, prompt.Answer, error) {
	name := wc.Source().Name
	st, _, err := wc.Status(ctx, opts)
	w.flush(wc.Messages())
	if err != nil {
		w.l.Error("Can not get status of '" + name + "'.")
		w.logError(err)
		return false, prompt.No, errors.Errorf("status of '%s': %v", name, err).Wrap(multierr.Combine(status.ErrStatusFailed, err))
	}
	if st.IsClean() {
		return false, prompt.Yes, nil
	}

	w.env.IOLock.Lock()
	defer w.env.IOLock.Unlock()
	w.l.Warn("The package '" + name + "' is dirty.")
	answer, err := w.env.Prompter.YesNo("Do you want to update it anyway?", false, true)
	return true, answer, err
}

// Status of the working copy of a source
func (w *WorkingCopies) Status(ctx context.Context, src model.Source, opts StatusOptions) (model.Status, string, error) {
	wc, err := vcs.New(src, w.env)
	if err != nil {
		return "", "", errors.Errorf("status of '%s': %v", src.Name, err).Wrap(multierr.Combine(status.ErrStatusFailed, err))
	}
	st, raw, err := wc.Status(ctx, vcs.Options{Verbose: opts.Verbose, Offline: opts.Offline})
	w.env.IOLock.Lock()
	defer w.env.IOLock.Unlock()
	w.flush(wc.Messages())
	if err != nil {
		w.l.Error("Can not get status of '" + src.Name + "'.")
		w.logError(err)
		return "", "", errors.Errorf("status of '%s': %v", src.Name, err).Wrap(multierr.Combine(status.ErrStatusFailed, err))
	}
	return st, raw, nil
}

// Matches tells if the working copy of a source was made from it
func (w *WorkingCopies) Matches(ctx context.Context, src model.Source) (bool, error) {
	wc, err := vcs.New(src, w.env)
	if err != nil {
		return false, errors.Errorf("matches of '%s': %v", src.Name, err).Wrap(multierr.Combine(status.ErrMatchesFailed, err))
	}
	ok, err := wc.Matches(ctx)
	w.env.IOLock.Lock()
	defer w.env.IOLock.Unlock()
	w.flush(wc.Messages())
	if err != nil {
		w.l.Error("Can not check the source of '" + src.Name + "'.")
		w.logError(err)
		return false, errors.Errorf("matches of '%s': %v", src.Name, err).Wrap(multierr.Combine(status.ErrMatchesFailed, err))
	}
	return ok, nil
}

// flush messages of a working copy to the logger. Callers hold the IO lock when workers run.
func (w *WorkingCopies) flush(msgs []vcs.Message) {
	for _, m := range msgs {
		if ce := w.l.Check(m.Level, m.Text); ce != nil {
			ce.Write()
		}
	}
}

// logError logs each line of an error
func (w *WorkingCopies) logError(err error) {
	var vcsErr *vcs.Error
	lines := strings.Split(err.Error(), "\n")
	if errors.As(err, &vcsErr) {
		lines = vcsErr.Lines()
	}
	for _, line := range lines {
		w.l.Error(line)
	}
}
