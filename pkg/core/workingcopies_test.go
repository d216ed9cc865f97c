package core

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/oneconcern/mrdev/pkg/core/status"
	"github.com/oneconcern/mrdev/pkg/errors"
	"github.com/oneconcern/mrdev/pkg/model"
	"github.com/oneconcern/mrdev/pkg/prompt"
	"github.com/oneconcern/mrdev/pkg/vcs"
	vcsstatus "github.com/oneconcern/mrdev/pkg/vcs/status"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestParseUpdate(t *testing.T) {
	for _, toPin := range []struct {
		value  string
		update bool
		force  bool
		fails  bool
	}{
		{value: ""},
		{value: "no"},
		{value: "Off"},
		{value: "yes", update: true},
		{value: " true ", update: true},
		{value: "on", update: true},
		{value: "force", update: true, force: true},
		{value: "sometimes", fails: true},
	} {
		testCase := toPin
		t.Run(testCase.value, func(t *testing.T) {
			update, force, err := ParseUpdate(testCase.value)
			if testCase.fails {
				require.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.update, update)
			assert.Equal(t, testCase.force, force)
		})
	}
}

func TestBatchBadOptions(t *testing.T) {
	f := newFixture(t, 1, gitSource("a"))

	err := f.wcs.Checkout(context.Background(), []string{"a"}, BatchOptions{Update: "maybe"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))

	err = f.wcs.Checkout(context.Background(), []string{"a"}, BatchOptions{Submodules: "sometimes"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
	assert.Empty(t, f.runner.snapshot())
}

func TestCheckoutExistingAndMissing(t *testing.T) {
	defer goleak.VerifyNone(t)

	a, b := gitSource("a"), gitSource("b")
	f := newFixture(t, 5, a, b)
	f.existing(t, a)

	require.NoError(t, f.wcs.Checkout(context.Background(), []string{"a", "b"}, BatchOptions{}))

	assert.Equal(t, []string{b.Path}, f.runner.clones())
	assert.Equal(t, 0, f.runner.count("fetch"))

	msgs := f.messages()
	assert.Contains(t, msgs, "Queued 'a' for checkout.")
	assert.Contains(t, msgs, "Queued 'b' for checkout.")
	assert.Contains(t, msgs, "Skipped checkout of existing package 'a'.")
	assert.Contains(t, msgs, "Cloned 'b' with git from 'https://example.com/b.git'.")
	assert.NotContains(t, msgs, "There have been errors, see messages above.")

	exists, err := afero.DirExists(f.fs, b.Path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCheckoutWithUpdate(t *testing.T) {
	a := gitSource("a")
	f := newFixture(t, 1, a)
	f.existing(t, a)
	f.runner.respond = dirtyIn()

	require.NoError(t, f.wcs.Checkout(context.Background(), []string{"a"}, BatchOptions{Update: "yes"}))
	assert.Equal(t, 1, f.runner.count("fetch --quiet --tags origin"))
	assert.Equal(t, 1, f.runner.count("merge --quiet --ff-only @{upstream}"))
	assert.Zero(t, f.prompter.asked)
}

func TestCheckoutSourceUpdateOption(t *testing.T) {
	a := gitSource("a")
	a.Options[model.OptUpdate] = "true"
	f := newFixture(t, 1, a)
	f.existing(t, a)

	require.NoError(t, f.wcs.Checkout(context.Background(), []string{"a"}, BatchOptions{}))
	assert.Equal(t, 1, f.runner.count("fetch"))

	f = newFixture(t, 1, a)
	f.existing(t, a)
	require.NoError(t, f.wcs.Checkout(context.Background(), []string{"a"}, BatchOptions{Update: "yes", Offline: true}))
	assert.Zero(t, f.runner.count("fetch"))
}

func TestBatchUnknownSource(t *testing.T) {
	f := newFixture(t, 1, gitSource("a"))

	for _, run := range []func(context.Context, []string, BatchOptions) error{f.wcs.Checkout, f.wcs.Update} {
		err := run(context.Background(), []string{"a", "nope"}, BatchOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, status.ErrNoSource))
	}
	assert.Contains(t, f.messages(), "No source defined for 'nope'.")
	assert.Empty(t, f.runner.clones())
}

func TestBatchUnknownKind(t *testing.T) {
	src := gitSource("p4")
	src.Kind = model.Kind("perforce")
	f := newFixture(t, 1, src)

	err := f.wcs.Checkout(context.Background(), []string{"p4"}, BatchOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrUnknownKind))
	assert.Contains(t, f.messages(), "Unknown repository type 'perforce'.")
}

func TestBatchMissingExecutable(t *testing.T) {
	hg := gitSource("h")
	hg.Kind = model.Mercurial
	f := newFixture(t, 2, gitSource("a"), hg)
	f.wcs.Env().Which = func(name string) (string, error) {
		if name == "hg" {
			return "", os.ErrNotExist
		}
		return name, nil
	}

	err := f.wcs.Checkout(context.Background(), []string{"a", "h"}, BatchOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, vcsstatus.ErrMissingExecutable))
	assert.Contains(t, f.messages(), "Install hg or add it to your PATH to manage hg sources.")
	assert.Empty(t, f.runner.snapshot())
}

func TestUpdateDirtyNoThenAll(t *testing.T) {
	a, b, c := gitSource("a"), gitSource("b"), gitSource("c")
	f := newFixture(t, 1, a, b, c)
	for _, src := range []model.Source{a, b, c} {
		f.existing(t, src)
	}
	f.runner.respond = dirtyIn(a.Path, b.Path, c.Path)
	f.prompter.answers = []prompt.Answer{prompt.No, prompt.All}

	require.NoError(t, f.wcs.Update(context.Background(), []string{"a", "b", "c"}, BatchOptions{}))

	assert.Equal(t, 2, f.prompter.asked)
	assert.Equal(t, 2, f.runner.count("merge"))
	msgs := f.messages()
	assert.Contains(t, msgs, "The package 'a' is dirty.")
	assert.Contains(t, msgs, "Skipped update of 'a'.")
	assert.Contains(t, msgs, "Queued 'b' for update.")
	assert.Contains(t, msgs, "Queued 'c' for update.")
	assert.NotContains(t, msgs, "The package 'c' is dirty.")
}

func TestUpdateDirtyYes(t *testing.T) {
	a, b := gitSource("a"), gitSource("b")
	f := newFixture(t, 1, a, b)
	f.existing(t, a)
	f.existing(t, b)
	f.runner.respond = dirtyIn(a.Path, b.Path)
	f.prompter.answers = []prompt.Answer{prompt.Yes}

	// b gets the default answer of the scripted prompter
	require.NoError(t, f.wcs.Update(context.Background(), []string{"a", "b"}, BatchOptions{}))
	assert.Equal(t, 2, f.prompter.asked)
	assert.Equal(t, 1, f.runner.count("merge"))
	assert.Contains(t, f.messages(), "Skipped update of 'b'.")
}

func TestUpdateForceSkipsPrompt(t *testing.T) {
	a := gitSource("a")
	f := newFixture(t, 1, a)
	f.existing(t, a)
	f.runner.respond = dirtyIn(a.Path)

	require.NoError(t, f.wcs.Update(context.Background(), []string{"a"}, BatchOptions{Force: true}))
	assert.Zero(t, f.prompter.asked)
	assert.Zero(t, f.runner.count("status --porcelain"))
	assert.Equal(t, 1, f.runner.count("merge"))
}

func TestUpdateStatusFailureAborts(t *testing.T) {
	a, b := gitSource("a"), gitSource("b")
	f := newFixture(t, 1, a, b)
	f.existing(t, a)
	f.existing(t, b)
	f.runner.respond = func(c vcs.Cmd) (vcs.Result, error) {
		if c.Args[0] == "status" {
			return vcs.Result{Stderr: "fatal: not a git repository", ExitCode: 128}, nil
		}
		return vcs.Result{}, nil
	}

	err := f.wcs.Update(context.Background(), []string{"a", "b"}, BatchOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrStatusFailed))
	assert.Contains(t, f.messages(), "Can not get status of 'a'.")
	assert.Contains(t, f.messages(), "fatal: not a git repository")
	assert.Zero(t, f.runner.count("merge"))
}

func TestUpdateOffline(t *testing.T) {
	a, b := gitSource("a"), gitSource("b")
	f := newFixture(t, 1, a, b)
	f.existing(t, a)
	f.runner.respond = dirtyIn(a.Path)

	require.NoError(t, f.wcs.Update(context.Background(), []string{"a", "b"}, BatchOptions{Offline: true, Force: true}))
	assert.Contains(t, f.messages(), "Skipped update of 'a' (offline).")
	assert.Contains(t, f.messages(), "Skipped update of missing package 'b'.")
	assert.Zero(t, f.prompter.asked)
	assert.Zero(t, f.runner.count("fetch"))
	assert.Zero(t, f.runner.count("merge"))
	assert.Empty(t, f.runner.snapshot())
}

func TestUpdateSkipsMissing(t *testing.T) {
	a := gitSource("a")
	f := newFixture(t, 1, a)

	require.NoError(t, f.wcs.Update(context.Background(), []string{"a"}, BatchOptions{}))
	assert.Contains(t, f.messages(), "Skipped update of missing package 'a'.")
	assert.Empty(t, f.runner.snapshot())
}

func TestUpdateSkipsLinked(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "elsewhere")
	require.NoError(t, os.MkdirAll(target, 0o755))

	a := gitSource("a")
	a.Path = filepath.Join(root, "src", "a")
	require.NoError(t, os.MkdirAll(filepath.Dir(a.Path), 0o755))
	require.NoError(t, os.Symlink(target, a.Path))

	f := newFixtureOnFs(t, afero.NewOsFs(), 1, a)
	require.NoError(t, f.wcs.Update(context.Background(), []string{"a"}, BatchOptions{}))
	require.NoError(t, f.wcs.Checkout(context.Background(), []string{"a"}, BatchOptions{Update: "force"}))

	assert.Len(t, f.logs.FilterMessage("Skipped update of linked 'a'.").All(), 2)
	assert.Empty(t, f.runner.snapshot())
}

func TestBatchFailFast(t *testing.T) {
	defer goleak.VerifyNone(t)

	a, b, c := gitSource("a"), gitSource("b"), gitSource("c")
	f := newFixture(t, 1, a, b, c)
	f.runner.respond = func(c vcs.Cmd) (vcs.Result, error) {
		return vcs.Result{Stderr: "fatal: repository not found", ExitCode: 128}, nil
	}

	err := f.wcs.Checkout(context.Background(), []string{"a", "b", "c"}, BatchOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrBatchFailed))
	assert.True(t, errors.Is(err, vcsstatus.ErrBackendExecution))
	assert.Equal(t, "1 of 3 operations failed", err.Error())

	assert.Equal(t, []string{a.Path}, f.runner.clones())
	assert.Len(t, f.logs.FilterMessage("There have been errors, see messages above.").All(), 1)
	assert.Contains(t, f.messages(), "fatal: repository not found")
}

func TestBatchSingleWorker(t *testing.T) {
	names := []string{"e", "d", "c", "b", "a"}
	sources := make([]model.Source, 0, len(names))
	expected := make([]string, 0, len(names))
	for _, name := range names {
		src := gitSource(name)
		sources = append(sources, src)
		expected = append(expected, src.Path)
	}
	f := newFixture(t, 1, sources...)
	caller := goroutineID()

	require.NoError(t, f.wcs.Checkout(context.Background(), names, BatchOptions{}))

	assert.Equal(t, expected, f.runner.clones())
	for _, c := range f.runner.snapshot() {
		assert.Equal(t, caller, c.goroutine)
	}
}

func TestBatchWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	sources := make([]model.Source, 0, len(names))
	expected := make([]string, 0, len(names))
	for _, name := range names {
		src := gitSource(name)
		sources = append(sources, src)
		expected = append(expected, src.Path)
	}
	f := newFixture(t, 4, sources...)

	// duplicated names are processed once
	require.NoError(t, f.wcs.Checkout(context.Background(), append(names, "a", "b"), BatchOptions{}))

	clones := f.runner.clones()
	sort.Strings(clones)
	assert.Equal(t, expected, clones)
}

func TestBatchVerboseOutput(t *testing.T) {
	a := gitSource("a")
	f := newFixture(t, 1, a)
	f.runner.respond = func(c vcs.Cmd) (vcs.Result, error) {
		if c.Args[0] == "submodule" {
			return vcs.Result{Stdout: "Submodule 'lib' registered\n"}, nil
		}
		return vcs.Result{}, nil
	}

	require.NoError(t, f.wcs.Checkout(context.Background(), []string{"a"}, BatchOptions{Verbose: true}))
	assert.Equal(t, "Submodule 'lib' registered\n", f.out.String())

	g := newFixture(t, 1, a)
	require.NoError(t, g.wcs.Checkout(context.Background(), []string{"a"}, BatchOptions{}))
	assert.Empty(t, g.out.String())
}

func TestStatusAndMatches(t *testing.T) {
	a, b := gitSource("a"), gitSource("b")
	f := newFixture(t, 1, a, b)
	f.existing(t, a)
	f.runner.respond = dirtyIn(a.Path)

	st, raw, err := f.wcs.Status(context.Background(), a, StatusOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.Dirty, st)
	assert.Empty(t, raw)

	st, raw, err = f.wcs.Status(context.Background(), a, StatusOptions{Verbose: true})
	require.NoError(t, err)
	assert.Equal(t, model.Dirty, st)
	assert.Contains(t, raw, "M setup.py")

	ok, err := f.wcs.Matches(context.Background(), a)
	require.NoError(t, err)
	assert.True(t, ok)

	other := a
	other.URL = "https://example.com/fork.git"
	ok, err = f.wcs.Matches(context.Background(), other)
	require.NoError(t, err)
	assert.False(t, ok)

	// missing working copies never match and have no status
	ok, err = f.wcs.Matches(context.Background(), b)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = f.wcs.Status(context.Background(), b, StatusOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrStatusFailed))
	assert.True(t, errors.Is(err, vcsstatus.ErrInvalidWorkingCopy))
	assert.Contains(t, f.messages(), "Can not get status of 'b'.")
}

func TestMatchesFailure(t *testing.T) {
	a := gitSource("a")
	f := newFixture(t, 1, a)
	// a working copy without readable .git/config falls back to git
	require.NoError(t, f.fs.MkdirAll(a.Path, 0o755))
	f.runner.respond = func(c vcs.Cmd) (vcs.Result, error) {
		return vcs.Result{}, errors.New("boom")
	}

	_, err := f.wcs.Matches(context.Background(), a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrMatchesFailed))
	assert.Contains(t, f.messages(), "Can not check the source of 'a'.")

	src := a
	src.Kind = model.Kind("perforce")
	_, err = f.wcs.Matches(context.Background(), src)
	assert.True(t, errors.Is(err, status.ErrMatchesFailed))
}
