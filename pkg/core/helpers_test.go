package core

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/oneconcern/mrdev/pkg/model"
	"github.com/oneconcern/mrdev/pkg/prompt"
	"github.com/oneconcern/mrdev/pkg/registry"
	"github.com/oneconcern/mrdev/pkg/vcs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testRoot = "/work/src"

type call struct {
	cmd       vcs.Cmd
	goroutine uint64
}

func (c call) line() string {
	return strings.Join(append([]string{c.cmd.Name}, c.cmd.Args...), " ")
}

// fakeRunner answers commands with respond, creating working copies on clone
type fakeRunner struct {
	mu      sync.Mutex
	fs      afero.Fs
	calls   []call
	respond func(vcs.Cmd) (vcs.Result, error)
}

func (f *fakeRunner) Run(_ context.Context, c vcs.Cmd) (vcs.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{cmd: c, goroutine: goroutineID()})
	respond := f.respond
	f.mu.Unlock()

	if len(c.Args) > 0 && c.Args[0] == "clone" {
		_ = f.fs.MkdirAll(c.Args[len(c.Args)-1], 0o755)
	}
	if respond != nil {
		return respond(c)
	}
	return vcs.Result{}, nil
}

func (f *fakeRunner) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

// clones lists the target paths of clones, in order
func (f *fakeRunner) clones() []string {
	var paths []string
	for _, c := range f.snapshot() {
		if len(c.cmd.Args) > 0 && c.cmd.Args[0] == "clone" {
			paths = append(paths, c.cmd.Args[len(c.cmd.Args)-1])
		}
	}
	return paths
}

func (f *fakeRunner) count(needle string) int {
	n := 0
	for _, c := range f.snapshot() {
		if strings.Contains(c.line(), needle) {
			n++
		}
	}
	return n
}

func goroutineID() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	fields := strings.Fields(strings.TrimPrefix(string(buf), "goroutine "))
	id, _ := strconv.ParseUint(fields[0], 10, 64)
	return id
}

type scriptedPrompter struct {
	mu      sync.Mutex
	answers []prompt.Answer
	asked   int
}

func (p *scriptedPrompter) YesNo(string, bool, bool) (prompt.Answer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked++
	if len(p.answers) == 0 {
		return prompt.No, nil
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func (p *scriptedPrompter) Line(string) (string, error)     { return "", nil }
func (p *scriptedPrompter) Password(string) (string, error) { return "", nil }

type fixture struct {
	fs       afero.Fs
	runner   *fakeRunner
	prompter *scriptedPrompter
	logs     *observer.ObservedLogs
	out      *bytes.Buffer
	reg      *registry.Registry
	wcs      *WorkingCopies
}

func newFixture(t testing.TB, threads int, sources ...model.Source) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	return newFixtureOnFs(t, fs, threads, sources...)
}

func newFixtureOnFs(t testing.TB, fs afero.Fs, threads int, sources ...model.Source) *fixture {
	t.Helper()
	zcore, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(zcore)
	f := &fixture{
		fs:       fs,
		runner:   &fakeRunner{fs: fs},
		prompter: &scriptedPrompter{},
		logs:     logs,
		out:      &bytes.Buffer{},
		reg:      registry.New(),
	}
	for _, src := range sources {
		require.NoError(t, f.reg.Add(src))
	}
	env := vcs.NewEnv(l)
	env.Which = func(name string) (string, error) { return name, nil }
	f.wcs = New(f.reg,
		Threads(threads),
		Logger(l),
		Stdout(f.out),
		WithEnv(env),
		Fs(fs),
		Runner(f.runner),
		Prompter(f.prompter),
	)
	return f
}

func gitSource(name string) model.Source {
	return model.Source{
		Name:    name,
		Kind:    model.Git,
		URL:     "https://example.com/" + name + ".git",
		Path:    filepath.Join(testRoot, name),
		Options: map[string]string{},
	}
}

// existing lays out a git working copy cloned from the URL of src
func (f *fixture) existing(t testing.TB, src model.Source) {
	t.Helper()
	require.NoError(t, f.fs.MkdirAll(filepath.Join(src.Path, ".git"), 0o755))
	require.NoError(t, afero.WriteFile(f.fs, filepath.Join(src.Path, ".git", "config"),
		[]byte("[remote \"origin\"]\n\turl = "+src.URL+"\n"), 0o644))
}

func (f *fixture) messages() []string {
	entries := f.logs.All()
	msgs := make([]string, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// dirtyIn reports the working copies under the given paths as dirty
func dirtyIn(paths ...string) func(vcs.Cmd) (vcs.Result, error) {
	return func(c vcs.Cmd) (vcs.Result, error) {
		if len(c.Args) > 0 && c.Args[0] == "status" {
			for _, p := range paths {
				if c.Dir == p {
					return vcs.Result{Stdout: "## master...origin/master\n M setup.py\n"}, nil
				}
			}
			return vcs.Result{Stdout: "## master...origin/master\n"}, nil
		}
		return vcs.Result{}, nil
	}
}
