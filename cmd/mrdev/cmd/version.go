// Copyright © 2026 One Concern

package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
)

// set at build time with -ldflags "-X github.com/oneconcern/mrdev/cmd/mrdev/cmd.Version=..."
var (
	Version   string
	BuildDate string
	GitCommit string
	GitState  string
)

// VersionInfo describes the build of the binary
type VersionInfo struct {
	Version   string `yaml:"version,omitempty"`
	BuildDate string `yaml:"buildDate,omitempty"`
	GitCommit string `yaml:"gitCommit,omitempty"`
	GitState  string `yaml:"gitState,omitempty"`
}

// NewVersionInfo reports the build variables, "dev" standing for unreleased builds
func NewVersionInfo() VersionInfo {
	ver := VersionInfo{
		Version:   "dev",
		BuildDate: BuildDate,
		GitCommit: GitCommit,
	}
	if Version != "" {
		ver.Version = Version
		ver.GitState = "clean"
	}
	if GitState != "" {
		ver.GitState = GitState
	}
	return ver
}

func (v VersionInfo) String() string {
	var buf bytes.Buffer
	for _, line := range [][2]string{
		{"Version", v.Version},
		{"Build date", v.BuildDate},
		{"Commit", v.GitCommit},
		{"Working tree", v.GitState},
	} {
		fmt.Fprintf(&buf, "%s: %s\n", line[0], line[1])
	}
	return buf.String()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version of mrdev",
		Long: `Prints the version of mrdev. It includes the following components:
	* Semver (output of git describe --tags)
	* Build Date (date at which the binary was built)
	* Git Commit (the git commit hash this binary was built from)
	* Git State (when dirty there were uncommitted changes during the build)
`,
		// no configuration needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), NewVersionInfo().String())
		},
	}
}
