// Copyright © 2026 One Concern

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/oneconcern/mrdev/pkg/core"
	"github.com/oneconcern/mrdev/pkg/model"
	"github.com/spf13/cobra"
)

const statusMissing = "missing"

var statusColors = map[string]*color.Color{
	model.Clean.String():    color.New(color.FgGreen),
	model.Ahead.String():    color.New(color.FgYellow),
	model.Dirty.String():    color.New(color.FgRed),
	model.Conflict.String(): color.New(color.FgRed, color.Bold),
	statusMissing:           color.New(color.FgCyan),
}

func colored(st string) string {
	if c, ok := statusColors[st]; ok {
		return c.Sprint(st)
	}
	return st
}

func newStatusCmd() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:     "status [packages...]",
		Aliases: []string{"stat", "st"},
		Short:   "Show the status of the working copies of packages",
		Long: `Show the status of the working copies of packages: clean, dirty, ahead
(local commits not pushed yet), conflict or missing. The last column tells
if the working copy was made from the configured repository.
`,
		Run: func(cmd *cobra.Command, args []string) {
			s, err := newSession(cmd)
			if err != nil {
				wrapFatalln("cannot load the configuration", err)
				return
			}
			names, err := s.lookup(args)
			if err != nil {
				wrapFatalln("status failed", err)
				return
			}

			ctx := context.Background()
			opts := core.StatusOptions{Verbose: mrdevFlags.status.verbose, Offline: mrdevFlags.status.offline}
			table := uitable.New()
			table.MaxColWidth = 80
			table.AddRow("NAME", "STATUS", "KIND", "PATH", "MATCHES")

			var raws []string
			for _, name := range names {
				src, _ := s.cfg.Registry.Get(name)
				if !s.exists(src.Path) {
					table.AddRow(src.Name, colored(statusMissing), src.Kind, src.Path, "")
					continue
				}
				st, raw, err := s.wcs.Status(ctx, src, opts)
				if err != nil {
					wrapFatalln("status failed", err)
					return
				}
				ok, err := s.wcs.Matches(ctx, src)
				if err != nil {
					wrapFatalln("status failed", err)
					return
				}
				matches := "no"
				if ok {
					matches = "yes"
				}
				table.AddRow(src.Name, colored(st.String()), src.Kind, src.Path, matches)
				if strings.TrimSpace(raw) != "" {
					raws = append(raws, src.Name+":\n"+strings.TrimRight(raw, "\n"))
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, table)
			for _, raw := range raws {
				fmt.Fprintln(out, raw)
			}
		},
	}
	addVerboseFlag(statusCmd, &mrdevFlags.status.verbose)
	addOfflineFlag(statusCmd, &mrdevFlags.status.offline)
	return statusCmd
}
