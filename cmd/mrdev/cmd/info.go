// Copyright © 2026 One Concern

package cmd

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/oneconcern/mrdev/pkg/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

const (
	formatTable = "table"
	formatYAML  = "yaml"
	formatPaths = "paths"
	formatURLs  = "urls"
)

// sourceInfo is the yaml rendering of a source definition
type sourceInfo struct {
	Name    string            `yaml:"name"`
	Kind    model.Kind        `yaml:"kind"`
	URL     string            `yaml:"url"`
	Path    string            `yaml:"path"`
	Options map[string]string `yaml:"options,omitempty"`
}

func newInfoCmd() *cobra.Command {
	infoCmd := &cobra.Command{
		Use:   "info [packages...]",
		Short: "Show the definitions of packages",
		Long: `Show the definitions of packages, after rewrite rules have been applied.

Formats:
	table: name, kind, url and path of each package
	yaml:  full definitions, options included
	paths: one working copy path per line
	urls:  one repository url per line
`,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			s, err := newSession(cmd)
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return s.cfg.Registry.Names(), cobra.ShellCompDirectiveNoFileComp
		},
		Run: func(cmd *cobra.Command, args []string) {
			s, err := newSession(cmd)
			if err != nil {
				wrapFatalln("cannot load the configuration", err)
				return
			}
			names, err := s.lookup(args)
			if err != nil {
				wrapFatalln("info failed", err)
				return
			}
			sources := make([]model.Source, 0, len(names))
			for _, name := range names {
				src, _ := s.cfg.Registry.Get(name)
				sources = append(sources, src)
			}

			out := cmd.OutOrStdout()
			switch mrdevFlags.info.format {
			case formatTable:
				table := uitable.New()
				table.MaxColWidth = 80
				table.AddRow("NAME", "KIND", "URL", "PATH")
				for _, src := range sources {
					table.AddRow(src.Name, src.Kind, src.URL, src.Path)
				}
				fmt.Fprintln(out, table)
			case formatYAML:
				infos := make([]sourceInfo, 0, len(sources))
				for _, src := range sources {
					info := sourceInfo{Name: src.Name, Kind: src.Kind, URL: src.URL, Path: src.Path}
					if len(src.Options) > 0 {
						info.Options = src.Options
					}
					infos = append(infos, info)
				}
				data, err := yaml.Marshal(infos)
				if err != nil {
					wrapFatalln("cannot render yaml", err)
					return
				}
				_, _ = out.Write(data)
			case formatPaths:
				for _, src := range sources {
					fmt.Fprintln(out, src.Path)
				}
			case formatURLs:
				for _, src := range sources {
					fmt.Fprintln(out, src.URL)
				}
			default:
				wrapFatalln(fmt.Sprintf("unknown format %q, expected one of table, yaml, paths or urls", mrdevFlags.info.format), nil)
				return
			}
		},
	}
	addFormatFlag(infoCmd)
	return infoCmd
}
