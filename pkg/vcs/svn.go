package vcs

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/oneconcern/mrdev/pkg/model"
	"github.com/oneconcern/mrdev/pkg/vcs/status"
)

const (
	svnExe = "svn"

	// attempts of a command when authentication or certificates fail
	svnMaxAttempts = 3

	svnTrustFailures = "--trust-server-cert-failures=unknown-ca,cn-mismatch,expired,not-yet-valid,other"
)

var (
	svnAuthFailures = []string{"authorization failed", "Authentication failed", "E170001", "E215004"}
	svnCertFailures = []string{"Server certificate verification failed", "E230001"}
)

type svnDriver struct {
	*base
}

// svnPin is a revision requirement: exact, at least (>=) or after (>)
type svnPin struct {
	op  string
	rev string
}

func (p svnPin) exact() bool {
	return p.rev != "" && p.op == ""
}

// satisfiedBy tells if a working copy revision fulfills the pin
func (p svnPin) satisfiedBy(revision string) bool {
	if p.rev == "" {
		return true
	}
	if p.op == "" {
		return p.rev == revision
	}
	want, err1 := strconv.Atoi(p.rev)
	have, err2 := strconv.Atoi(revision)
	if err1 != nil || err2 != nil {
		return false
	}
	if p.op == ">=" {
		return have >= want
	}
	return have > want
}

func parseSVNPin(rev string) svnPin {
	switch {
	case strings.HasPrefix(rev, ">="):
		return svnPin{op: ">=", rev: strings.TrimSpace(rev[2:])}
	case strings.HasPrefix(rev, ">"):
		return svnPin{op: ">", rev: strings.TrimSpace(rev[1:])}
	default:
		return svnPin{rev: strings.TrimSpace(rev)}
	}
}

// target splits the URL of the source from the revision it may carry as url@rev
func (s *svnDriver) target() (string, svnPin, error) {
	raw := s.src.URL
	var rev string
	if u, err := url.Parse(raw); err == nil {
		if i := strings.LastIndex(u.Path, "@"); i >= 0 {
			rev = u.Path[i+1:]
			u.Path = u.Path[:i]
			u.RawPath = ""
			raw = u.String()
		}
	}
	if option := s.src.Revision(); option != "" {
		if rev != "" {
			return "", svnPin{}, s.fail(model.ErrConfiguration, "checkout", "",
				"a revision is specified both in the URL and with the 'rev' option")
		}
		rev = option
	}
	return strings.TrimRight(raw, "/"), parseSVNPin(rev), nil
}

func revisionArgs(pin svnPin) []string {
	if pin.exact() {
		return []string{"-r", pin.rev}
	}
	return nil
}

// communicate runs svn, asking for credentials or certificate approval when needed
func (s *svnDriver) communicate(ctx context.Context, op, dir string, args ...string) (Result, error) {
	root := authRoot(s.src.URL)
	for attempt := 0; attempt < svnMaxAttempts; attempt++ {
		creds := s.env.cachedCredentials(root)
		full := []string{"--non-interactive"}
		if creds != nil {
			full = append(full, "--username", creds.user, "--password", creds.password, "--no-auth-cache")
		}
		if accepted, _ := s.env.certificateAccepted(root); accepted {
			full = append(full, svnTrustFailures)
		}
		full = append(full, args...)

		res, err := s.probe(ctx, op, dir, svnExe, full...)
		if err != nil {
			return res, err
		}
		if res.ExitCode == 0 {
			return res, nil
		}

		switch {
		case containsAny(res.Stderr, svnCertFailures):
			accepted, err := s.env.acceptCertificate(root, res.Stderr)
			if err != nil {
				return res, s.fail(status.ErrBackendExecution, op, "", "certificate prompt: %v", err)
			}
			if !accepted {
				return res, s.fail(status.ErrBackendExecution, op, res.Output(), "server certificate of %s not accepted", root)
			}
		case containsAny(res.Stderr, svnAuthFailures):
			if _, err := s.env.askCredentials(root, strings.TrimSpace(res.Stderr), creds); err != nil {
				return res, s.fail(status.ErrBackendExecution, op, "", "credentials prompt: %v", err)
			}
		default:
			return res, s.fail(status.ErrBackendExecution, op, res.Output(),
				"%s exited with status %d", shellWords(svnExe, args), res.ExitCode)
		}
	}
	return Result{}, s.fail(status.ErrBackendExecution, op, "", "too many authentication attempts for %s", root)
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func (s *svnDriver) checkout(ctx context.Context, opts Options) (string, error) {
	target, pin, err := s.target()
	if err != nil {
		return "", err
	}
	parent, err := s.prepareParent("checkout")
	if err != nil {
		return "", err
	}
	s.infof("Checked out '%s' with subversion.", s.src.Name)
	args := append([]string{"checkout", "--quiet"}, revisionArgs(pin)...)
	args = append(args, target, s.src.Path)
	res, err := s.communicate(ctx, "checkout", parent, args...)
	if err != nil {
		return "", err
	}
	return output(opts, res), nil
}

func (s *svnDriver) update(ctx context.Context, opts Options) (string, error) {
	_, pin, err := s.target()
	if err != nil {
		return "", err
	}
	s.infof("Updated '%s' with subversion.", s.src.Name)
	args := append([]string{"update", "--quiet"}, revisionArgs(pin)...)
	args = append(args, s.src.Path)
	res, err := s.communicate(ctx, "update", s.src.Path, args...)
	if err != nil {
		return "", err
	}
	return output(opts, res), nil
}

func (s *svnDriver) switchTo(ctx context.Context, opts Options) (string, error) {
	target, pin, err := s.target()
	if err != nil {
		return "", err
	}
	s.infof("Switched '%s' to '%s'.", s.src.Name, target)
	args := append([]string{"switch", "--quiet"}, revisionArgs(pin)...)
	args = append(args, target, s.src.Path)
	res, err := s.communicate(ctx, "switch", s.src.Path, args...)
	if err != nil {
		return "", err
	}
	return output(opts, res), nil
}

// info reads svn info as a map of fields
func (s *svnDriver) info(ctx context.Context) (map[string]string, error) {
	res, err := s.communicate(ctx, "info", s.src.Path, "info", s.src.Path)
	if err != nil {
		return nil, err
	}
	return parseSVNInfo(res.Stdout), nil
}

func parseSVNInfo(out string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return fields
}

func (s *svnDriver) matches(ctx context.Context) (bool, error) {
	target, pin, err := s.target()
	if err != nil {
		return false, err
	}
	info, err := s.info(ctx)
	if err != nil {
		return false, err
	}
	if strings.TrimRight(info["URL"], "/") != target {
		return false, nil
	}
	return pin.satisfiedBy(info["Revision"]), nil
}

func (s *svnDriver) status(ctx context.Context, opts Options) (model.Status, string, error) {
	res, err := s.communicate(ctx, "status", s.src.Path, "status", "--ignore-externals", s.src.Path)
	if err != nil {
		return "", "", err
	}
	st := parseSVNStatus(res.Stdout)
	if opts.Verbose {
		return st, res.Stdout, nil
	}
	return st, "", nil
}

// parseSVNStatus reads svn status, ignoring externals
func parseSVNStatus(out string) model.Status {
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(line, "X"):
		case strings.HasPrefix(trimmed, "Performing status on external"):
		default:
			return model.Dirty
		}
	}
	return model.Clean
}
