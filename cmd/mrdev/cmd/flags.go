// Copyright © 2026 One Concern

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configKey     = "config"
	logLevelKey   = "loglevel"
	threadsKey    = "threads"
	sourcesDirKey = "sources-dir"
	acceptCertKey = "always-accept-server-certificate"
)

type flagsT struct {
	root struct {
		config     string
		logLevel   string
		threads    int
		sourcesDir string
		acceptCert bool
	}
	batch struct {
		all        bool
		update     bool
		force      bool
		verbose    bool
		offline    bool
		submodules string
	}
	status struct {
		verbose bool
		offline bool
	}
	info struct {
		format string
	}
}

var mrdevFlags = flagsT{}

// bindRootFlag binds a persistent flag to viper
func bindRootFlag(flags *pflag.FlagSet, key string) {
	_ = viper.BindPFlag(key, flags.Lookup(key))
}

func addConfigFlag(cmd *cobra.Command) string {
	cmd.PersistentFlags().StringVarP(&mrdevFlags.root.config, configKey, "c", "buildout.cfg",
		"The configuration file holding source definitions (ini or yaml)")
	bindRootFlag(cmd.PersistentFlags(), configKey)
	return configKey
}

func addLogLevelFlag(cmd *cobra.Command) string {
	cmd.PersistentFlags().StringVar(&mrdevFlags.root.logLevel, logLevelKey, "info",
		"The logging level: debug, info, warn, error or none")
	bindRootFlag(cmd.PersistentFlags(), logLevelKey)
	return logLevelKey
}

func addThreadsFlag(cmd *cobra.Command) string {
	cmd.PersistentFlags().IntVarP(&mrdevFlags.root.threads, threadsKey, "t", 0,
		"The number of concurrent checkouts or updates. Defaults to the configuration, then to 5")
	bindRootFlag(cmd.PersistentFlags(), threadsKey)
	return threadsKey
}

func addSourcesDirFlag(cmd *cobra.Command) string {
	cmd.PersistentFlags().StringVar(&mrdevFlags.root.sourcesDir, sourcesDirKey, "",
		"The directory holding working copies. Overrides the configuration")
	bindRootFlag(cmd.PersistentFlags(), sourcesDirKey)
	return sourcesDirKey
}

func addAcceptCertFlag(cmd *cobra.Command) string {
	cmd.PersistentFlags().BoolVar(&mrdevFlags.root.acceptCert, acceptCertKey, false,
		"Trust the certificates of subversion servers without asking")
	bindRootFlag(cmd.PersistentFlags(), acceptCertKey)
	return acceptCertKey
}

func addAllFlag(cmd *cobra.Command) string {
	all := "all"
	cmd.Flags().BoolVarP(&mrdevFlags.batch.all, all, "a", false,
		"Check out the auto-checkout sources when no package is given")
	return all
}

func addUpdateFlag(cmd *cobra.Command) string {
	update := "update"
	cmd.Flags().BoolVarP(&mrdevFlags.batch.update, update, "u", false,
		"Update existing working copies. Defaults to always-checkout from the configuration")
	return update
}

func addForceFlag(cmd *cobra.Command) string {
	force := "force"
	cmd.Flags().BoolVarP(&mrdevFlags.batch.force, force, "f", false,
		"Update working copies even if they are dirty")
	return force
}

func addVerboseFlag(cmd *cobra.Command, target *bool) string {
	verbose := "verbose"
	cmd.Flags().BoolVarP(target, verbose, "v", false, "Print the output of version control commands")
	return verbose
}

func addOfflineFlag(cmd *cobra.Command, target *bool) string {
	offline := "offline"
	cmd.Flags().BoolVar(target, offline, false, "Do not contact remote repositories")
	return offline
}

func addSubmodulesFlag(cmd *cobra.Command) string {
	submodules := "submodules"
	cmd.Flags().StringVar(&mrdevFlags.batch.submodules, submodules, "always",
		"How git submodules are handled: always, checkout or never")
	return submodules
}

func addFormatFlag(cmd *cobra.Command) string {
	format := "format"
	cmd.Flags().StringVar(&mrdevFlags.info.format, format, formatTable,
		"The output format: table, yaml, paths or urls")
	return format
}
