// Copyright © 2026 One Concern

package cmd

import (
	"context"

	"github.com/oneconcern/mrdev/pkg/core"
	"github.com/oneconcern/mrdev/pkg/core/status"
	"github.com/oneconcern/mrdev/pkg/errors"
	"github.com/spf13/cobra"
)

func newCheckoutCmd() *cobra.Command {
	checkoutCmd := &cobra.Command{
		Use:     "checkout [packages...]",
		Aliases: []string{"co"},
		Short:   "Check out the working copies of packages",
		Long: `Check out the working copies of packages.

Existing working copies are left alone, unless --update is given or the
always-checkout setting of the configuration is set. With --all and no
package, the auto-checkout packages of the configuration are checked out.
`,
		Example: `mrdev checkout my.package other.package
mrdev co --all --update`,
		Run: func(cmd *cobra.Command, args []string) {
			s, err := newSession(cmd)
			if err != nil {
				wrapFatalln("cannot load the configuration", err)
				return
			}
			names := args
			if len(names) == 0 {
				if !mrdevFlags.batch.all {
					wrapFatalln("no package specified, use --all to check out the auto-checkout packages", nil)
					return
				}
				names = s.cfg.AutoCheckoutNames()
			}

			opts := core.BatchOptions{
				Update:     s.cfg.AlwaysCheckout,
				Force:      mrdevFlags.batch.force,
				Verbose:    mrdevFlags.batch.verbose,
				Offline:    mrdevFlags.batch.offline,
				Submodules: mrdevFlags.batch.submodules,
			}
			if cmd.Flags().Changed("update") {
				opts.Update = "false"
				if mrdevFlags.batch.update {
					opts.Update = "true"
				}
			}
			if err := s.wcs.Checkout(context.Background(), names, opts); err != nil {
				wrapFatalln("checkout failed", err)
				return
			}
		},
	}
	addAllFlag(checkoutCmd)
	addUpdateFlag(checkoutCmd)
	addForceFlag(checkoutCmd)
	addVerboseFlag(checkoutCmd, &mrdevFlags.batch.verbose)
	addOfflineFlag(checkoutCmd, &mrdevFlags.batch.offline)
	addSubmodulesFlag(checkoutCmd)
	return checkoutCmd
}

func newUpdateCmd() *cobra.Command {
	updateCmd := &cobra.Command{
		Use:     "update [packages...]",
		Aliases: []string{"up"},
		Short:   "Update the working copies of packages",
		Long: `Update the working copies of packages.

Without package, every package with a working copy on disk is updated.
Dirty working copies are only updated after confirmation, or with --force.
`,
		Run: func(cmd *cobra.Command, args []string) {
			s, err := newSession(cmd)
			if err != nil {
				wrapFatalln("cannot load the configuration", err)
				return
			}
			names := args
			if len(names) == 0 {
				for _, src := range s.cfg.Registry.Sources() {
					if s.exists(src.Path) {
						names = append(names, src.Name)
					}
				}
			}
			if len(names) == 0 {
				s.l.Info("No package to update.")
				return
			}

			opts := core.BatchOptions{
				Force:      mrdevFlags.batch.force,
				Verbose:    mrdevFlags.batch.verbose,
				Offline:    mrdevFlags.batch.offline,
				Submodules: mrdevFlags.batch.submodules,
			}
			if err := s.wcs.Update(context.Background(), names, opts); err != nil {
				wrapFatalln("update failed", err)
				return
			}
		},
	}
	addForceFlag(updateCmd)
	addVerboseFlag(updateCmd, &mrdevFlags.batch.verbose)
	addOfflineFlag(updateCmd, &mrdevFlags.batch.offline)
	addSubmodulesFlag(updateCmd)
	return updateCmd
}

// lookup checks that every name has a source definition
func (s *session) lookup(names []string) ([]string, error) {
	if len(names) == 0 {
		return s.cfg.Registry.Names(), nil
	}
	for _, name := range names {
		if !s.cfg.Registry.Has(name) {
			return nil, errors.Errorf("No source defined for '%s'.", name).Wrap(status.ErrNoSource)
		}
	}
	return names, nil
}
