package vcs

import (
	"context"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map"
	"github.com/oneconcern/mrdev/pkg/errors"
	"github.com/oneconcern/mrdev/pkg/prompt"
	"github.com/oneconcern/mrdev/pkg/vcs/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultShellTimeout bounds the discovery of the login shell PATH
const DefaultShellTimeout = 10 * time.Second

// Env is shared by all working copies of a run.
//
// It owns the caches of discovered executables, svn credentials and accepted
// server certificates. Caches are safe for concurrent use.
type Env struct {
	Logger   *zap.Logger
	Fs       afero.Fs
	Runner   Runner
	Prompter prompt.Prompter

	// IOLock serializes prompts and the output of working copies
	IOLock sync.Locker

	// Which overrides the discovery of executables
	Which func(string) (string, error)

	AlwaysAcceptServerCertificate bool
	CloneDepth                    int
	ShellTimeout                  time.Duration
	MessageCapacity               int

	executables  cmap.ConcurrentMap
	credentials  cmap.ConcurrentMap
	certificates cmap.ConcurrentMap

	pathOnce  sync.Once
	loginPath string
}

// NewEnv builds an environment running commands on the local host
func NewEnv(l *zap.Logger) *Env {
	if l == nil {
		l = zap.NewNop()
	}
	return &Env{
		Logger:          l,
		Fs:              afero.NewOsFs(),
		Runner:          ExecRunner{},
		Prompter:        prompt.New(),
		IOLock:          &sync.Mutex{},
		ShellTimeout:    DefaultShellTimeout,
		MessageCapacity: DefaultMessageCapacity,
		executables:     cmap.New(),
		credentials:     cmap.New(),
		certificates:    cmap.New(),
	}
}

// LookPath finds an executable, first on PATH, then on the PATH of the login shell.
// Found executables are cached.
func (e *Env) LookPath(name string) (string, error) {
	if v, ok := e.executables.Get(name); ok {
		return v.(string), nil
	}
	var (
		p   string
		err error
	)
	if e.Which != nil {
		p, err = e.Which(name)
	} else {
		p, err = exec.LookPath(name)
		if err != nil {
			p, err = lookPathIn(name, e.loginShellPath())
		}
	}
	if err != nil || p == "" {
		return "", errors.Errorf("cannot find the %q executable on PATH", name).Wrap(status.ErrMissingExecutable)
	}
	e.executables.Set(name, p)
	return p, nil
}

// loginShellPath asks the login shell of the user for its PATH. A timeout yields an empty PATH.
func (e *Env) loginShellPath() string {
	e.pathOnce.Do(func() {
		shell := os.Getenv("SHELL")
		if shell == "" {
			return
		}
		timeout := e.ShellTimeout
		if timeout <= 0 {
			timeout = DefaultShellTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		res, err := e.Runner.Run(ctx, Cmd{Name: shell, Args: []string{"-l", "-c", "echo $PATH"}})
		if err != nil || res.ExitCode != 0 {
			e.Logger.Debug("cannot discover the login shell PATH", zap.String("shell", shell), zap.Error(err))
			return
		}
		e.loginPath = strings.TrimSpace(res.Stdout)
	})
	return e.loginPath
}

func lookPathIn(name, path string) (string, error) {
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

// credentials for a svn root
type credentials struct {
	user     string
	password string
}

// authRoot is the cache key of an URL: scheme://host[:port]
func authRoot(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}

func (e *Env) cachedCredentials(root string) *credentials {
	if v, ok := e.credentials.Get(root); ok {
		return v.(*credentials)
	}
	return nil
}

// askCredentials prompts for the credentials of root, unless another working copy
// already replaced the credentials that just failed.
func (e *Env) askCredentials(root, reason string, failed *credentials) (*credentials, error) {
	e.IOLock.Lock()
	defer e.IOLock.Unlock()

	if current := e.cachedCredentials(root); current != nil && current != failed {
		return current, nil
	}
	e.Logger.Info("Authorization needed", zap.String("root", root), zap.String("reason", reason))
	user, err := e.Prompter.Line("Username: ")
	if err != nil {
		return nil, err
	}
	password, err := e.Prompter.Password("Password: ")
	if err != nil {
		return nil, err
	}
	c := &credentials{user: user, password: password}
	e.credentials.Set(root, c)
	return c, nil
}

func (e *Env) certificateAccepted(root string) (accepted, known bool) {
	if e.AlwaysAcceptServerCertificate {
		return true, true
	}
	if v, ok := e.certificates.Get(root); ok {
		return v.(bool), true
	}
	return false, false
}

// acceptCertificate asks once per root whether to trust its server certificate
func (e *Env) acceptCertificate(root, details string) (bool, error) {
	if accepted, known := e.certificateAccepted(root); known {
		return accepted, nil
	}
	e.IOLock.Lock()
	defer e.IOLock.Unlock()

	if accepted, known := e.certificateAccepted(root); known {
		return accepted, nil
	}
	e.Logger.Info("Server certificate verification failed", zap.String("root", root))
	for _, line := range strings.Split(strings.TrimSpace(details), "\n") {
		e.Logger.Info(line)
	}
	answer, err := e.Prompter.YesNo("Do you want to accept the server certificate?", false, false)
	if err != nil {
		return false, err
	}
	accepted := answer != prompt.No
	e.certificates.Set(root, accepted)
	return accepted, nil
}
