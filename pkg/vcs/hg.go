package vcs

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/oneconcern/mrdev/pkg/model"
	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

const hgExe = "hg"

type hgDriver struct {
	*base
}

func (h *hgDriver) hg(ctx context.Context, op string, args ...string) (Result, error) {
	return h.run(ctx, op, h.src.Path, hgExe, args...)
}

// revision to update to: newest tag, pinned revision, then branch
func (h *hgDriver) revision(ctx context.Context, op string) (string, error) {
	newest, err := h.src.BoolOption(model.OptNewestTag, false)
	if err != nil {
		return "", err
	}
	if newest {
		prefix, _ := h.src.Option(model.OptNewestTagPrefix)
		tags, err := h.tags(ctx, op)
		if err != nil {
			return "", err
		}
		if tag := NewestTag(tags, prefix); tag != "" {
			h.infof("Picked newest tag '%s' for '%s'.", tag, h.src.Name)
			return tag, nil
		}
		h.warnf("No tag found for '%s', using the default branch.", h.src.Name)
	}
	if rev := h.src.Revision(); rev != "" {
		return rev, nil
	}
	return h.src.Branch(), nil
}

func (h *hgDriver) tags(ctx context.Context, op string) ([]string, error) {
	res, err := h.hg(ctx, op, "tags", "--quiet")
	if err != nil {
		return nil, err
	}
	return parseHgTags(res.Stdout), nil
}

func parseHgTags(out string) []string {
	var tags []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] == "tip" {
			continue
		}
		tags = append(tags, fields[0])
	}
	return tags
}

func (h *hgDriver) checkout(ctx context.Context, opts Options) (string, error) {
	parent, err := h.prepareParent("checkout")
	if err != nil {
		return "", err
	}
	h.infof("Cloned '%s' with mercurial.", h.src.Name)

	args := []string{"clone", "--quiet", "--noupdate", h.src.URL, h.src.Path}
	clone, err := h.run(ctx, "checkout", parent, hgExe, args...)
	if err != nil {
		return "", err
	}
	rev, err := h.revision(ctx, "checkout")
	if err != nil {
		return "", err
	}
	upd, err := h.hg(ctx, "checkout", updateArgs(rev)...)
	if err != nil {
		return "", err
	}
	if err := h.setPushURL(); err != nil {
		return "", err
	}
	return output(opts, clone, upd), nil
}

func updateArgs(rev string) []string {
	args := []string{"update", "--quiet"}
	if rev != "" {
		args = append(args, "--rev", rev)
	}
	return args
}

func (h *hgDriver) update(ctx context.Context, opts Options) (string, error) {
	h.infof("Updated '%s' with mercurial.", h.src.Name)
	pull, err := h.hg(ctx, "update", "pull", "--quiet")
	if err != nil {
		return "", err
	}
	rev, err := h.revision(ctx, "update")
	if err != nil {
		return "", err
	}
	upd, err := h.hg(ctx, "update", updateArgs(rev)...)
	if err != nil {
		return "", err
	}
	if err := h.setPushURL(); err != nil {
		return "", err
	}
	return output(opts, pull, upd), nil
}

func (h *hgDriver) status(ctx context.Context, opts Options) (model.Status, string, error) {
	res, err := h.hg(ctx, "status", "status")
	if err != nil {
		return "", "", err
	}
	st := model.Clean
	raw := res.Stdout
	if strings.TrimSpace(res.Stdout) != "" {
		st = model.Dirty
	} else if !opts.Offline {
		// outgoing exits with 1 when there is nothing to push
		outgoing, err := h.probe(ctx, "status", h.src.Path, hgExe, "outgoing", "--quiet")
		if err != nil {
			return "", "", err
		}
		if outgoing.ExitCode == 0 {
			st = model.Ahead
		}
		raw += outgoing.Stdout
	}
	if opts.Verbose {
		return st, raw, nil
	}
	return st, "", nil
}

func (h *hgDriver) hgrc() (*ini.File, error) {
	data, err := h.readFile(".hg", "hgrc")
	if err != nil {
		if isNotExist(err) {
			return ini.Empty(), nil
		}
		return nil, err
	}
	return loadMetadata(data)
}

func (h *hgDriver) matches(ctx context.Context) (bool, error) {
	cfg, err := h.hgrc()
	if err == nil && cfg.Section("paths").HasKey("default") {
		return cfg.Section("paths").Key("default").String() == h.src.URL, nil
	}
	res, err := h.probe(ctx, "matches", h.src.Path, hgExe, "paths", "default")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(res.Stdout) == h.src.URL, nil
}

// setPushURL records the push URL as default-push in .hg/hgrc
func (h *hgDriver) setPushURL() error {
	pushURL, ok := h.src.Option(model.OptPushURL)
	if !ok || pushURL == "" {
		return nil
	}
	cfg, err := h.hgrc()
	if err != nil {
		return h.fail(nil, "checkout", "", "cannot read .hg/hgrc: %v", err)
	}
	cfg.Section("paths").Key("default-push").SetValue(pushURL)
	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return h.fail(nil, "checkout", "", "cannot write .hg/hgrc: %v", err)
	}
	if err := afero.WriteFile(h.env.Fs, filepath.Join(h.src.Path, ".hg", "hgrc"), buf.Bytes(), 0o644); err != nil {
		return h.fail(nil, "checkout", "", "cannot write .hg/hgrc: %v", err)
	}
	return nil
}
