package vcs

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/oneconcern/mrdev/pkg/model"
	"github.com/oneconcern/mrdev/pkg/prompt"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// step scripts the answer of the fake runner to the first command line containing match
type step struct {
	match  string
	result Result
	err    error
	effect func(afero.Fs, Cmd)
}

type fakeRunner struct {
	mu    sync.Mutex
	fs    afero.Fs
	steps []step
	calls []Cmd
}

func (f *fakeRunner) script(steps ...step) *fakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, steps...)
	return f
}

func (f *fakeRunner) Run(_ context.Context, c Cmd) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	line := c.line()
	for i, s := range f.steps {
		if !strings.Contains(line, s.match) {
			continue
		}
		f.steps = append(f.steps[:i:i], f.steps[i+1:]...)
		if s.effect != nil {
			s.effect(f.fs, c)
		}
		return s.result, s.err
	}
	return Result{}, nil
}

// lines of all commands run so far
func (f *fakeRunner) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.line())
	}
	return out
}

func (c Cmd) line() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// scriptedPrompter answers from a list, then falls back to No
type scriptedPrompter struct {
	mu      sync.Mutex
	answers []prompt.Answer
	lines   []string
	asked   []string
}

func (p *scriptedPrompter) YesNo(question string, _ bool, _ bool) (prompt.Answer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked = append(p.asked, question)
	if len(p.answers) == 0 {
		return prompt.No, nil
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func (p *scriptedPrompter) Line(q string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked = append(p.asked, q)
	if len(p.lines) == 0 {
		return "", nil
	}
	l := p.lines[0]
	p.lines = p.lines[1:]
	return l, nil
}

func (p *scriptedPrompter) Password(q string) (string, error) {
	return p.Line(q)
}

func testEnv(t testing.TB) (*Env, *fakeRunner, *scriptedPrompter) {
	t.Helper()
	fs := afero.NewMemMapFs()
	runner := &fakeRunner{fs: fs}
	prompter := &scriptedPrompter{}
	env := NewEnv(zap.NewNop())
	env.Fs = fs
	env.Runner = runner
	env.Prompter = prompter
	env.Which = func(name string) (string, error) { return name, nil }
	return env, runner, prompter
}

func testSource(kind model.Kind, name, url string, options ...string) model.Source {
	src := model.Source{
		Name:    name,
		Kind:    kind,
		URL:     url,
		Path:    filepath.Join("/work/src", name),
		Options: make(map[string]string),
	}
	for i := 0; i+1 < len(options); i += 2 {
		src.Options[options[i]] = options[i+1]
	}
	return src
}

func mkdir(dir string) func(afero.Fs, Cmd) {
	return func(fs afero.Fs, _ Cmd) {
		_ = fs.MkdirAll(dir, 0o755)
	}
}

func writeFile(t testing.TB, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func newWorkingCopy(t testing.TB, src model.Source, env *Env) WorkingCopy {
	t.Helper()
	wc, err := New(src, env)
	require.NoError(t, err)
	return wc
}

func messageTexts(msgs []Message) []string {
	texts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		texts = append(texts, m.Text)
	}
	return texts
}
