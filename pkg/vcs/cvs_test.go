package vcs

import (
	"context"
	"testing"

	"github.com/oneconcern/mrdev/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cvsRoot = ":pserver:anonymous@cvs.example.com:/cvsroot"
	rlog    = `
RCS file: /cvsroot/pkg/setup.py,v
head: 1.12
branch:
locks: strict
access list:
symbolic names:
	release-1-0-10: 1.12
	release-1-0-2: 1.8
	release-1-0-1: 1.5
	beta-2: 1.4
keyword substitution: kv
total revisions: 12
`
)

func TestParseCVSTags(t *testing.T) {
	assert.Equal(t, []string{"release-1-0-10", "release-1-0-2", "release-1-0-1", "beta-2"}, parseCVSTags(rlog))
	assert.Empty(t, parseCVSTags("head: 1.1\n"))
}

func TestParseCVSStatus(t *testing.T) {
	assert.Equal(t, model.Clean, parseCVSStatus(""))
	assert.Equal(t, model.Clean, parseCVSStatus("? build\nU setup.py\nP README\n"))
	assert.Equal(t, model.Dirty, parseCVSStatus("M setup.py\n? build\n"))
	assert.Equal(t, model.Conflict, parseCVSStatus("M setup.py\nC README\n"))
}

func TestCVSCheckoutNewestTag(t *testing.T) {
	env, runner, _ := testEnv(t)
	src := testSource(model.CVS, "pkg", "pkg", model.OptCVSRoot, cvsRoot,
		model.OptNewestTag, "yes", model.OptNewestTagPrefix, "release-")
	runner.script(
		step{match: "rlog", result: Result{Stdout: rlog}},
		step{match: "checkout", effect: mkdir(src.Path)},
	)

	_, err := newWorkingCopy(t, src, env).Checkout(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"cvs -q -d " + cvsRoot + " rlog -h pkg/setup.py",
		"cvs -q -d " + cvsRoot + " checkout -P -f -d pkg -r release-1-0-10 pkg",
	}, runner.lines())
	assert.Equal(t, "/work/src", runner.calls[1].Dir)
}

func TestCVSUpdate(t *testing.T) {
	env, runner, _ := testEnv(t)
	src := testSource(model.CVS, "pkg", "pkg", model.OptCVSRoot, cvsRoot)
	writeFile(t, env.Fs, src.Path+"/CVS/Repository", "pkg\n")
	writeFile(t, env.Fs, src.Path+"/CVS/Root", cvsRoot+"\n")
	runner.script(step{match: "-n update", result: Result{Stdout: "C setup.py\n"}})

	wc := newWorkingCopy(t, src, env)
	_, err := wc.Update(context.Background(), Options{})
	require.Error(t, err)

	_, err = wc.Update(context.Background(), Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, "cvs -q -d "+cvsRoot+" update -dP -A", runner.lines()[1])
}

func TestCVSMatches(t *testing.T) {
	env, _, _ := testEnv(t)
	src := testSource(model.CVS, "pkg", "pkg", model.OptCVSRoot, cvsRoot)
	writeFile(t, env.Fs, src.Path+"/CVS/Repository", "pkg\n")
	writeFile(t, env.Fs, src.Path+"/CVS/Root", ":pserver:anonymous@other.example.com:/cvsroot\n")

	ok, err := newWorkingCopy(t, src, env).Matches(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	writeFile(t, env.Fs, src.Path+"/CVS/Root", cvsRoot+"\n")
	ok, err = newWorkingCopy(t, src, env).Matches(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}
