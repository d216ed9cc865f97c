// Copyright © 2026 One Concern

package cmd

import (
	"os"
	"strings"

	"github.com/oneconcern/mrdev/pkg/core"
	"github.com/oneconcern/mrdev/pkg/dlogger"
	"github.com/oneconcern/mrdev/pkg/registry"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	// used to patch over the logger and the version control environment during test
	buildLogger  = dlogger.GetLogger
	extraOptions []core.Option
	appFs        = afero.NewOsFs()
)

// Execute builds the command tree and runs it. It is called by main.main().
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		wrapFatalln("mrdev", err)
	}
}

func newRootCmd() *cobra.Command {
	mrdevFlags = flagsT{}
	rootCmd := &cobra.Command{
		Use:   "mrdev",
		Short: "mrdev manages working copies of the sources of a project",
		Long: `mrdev manages the working copies of many version control repositories at once.

Sources are declared in a buildout-like configuration file:

	[buildout]
	auto-checkout = *

	[sources]
	my.package = git https://github.com/me/my.package.git branch=main

git, svn, hg, bzr, darcs, cvs, gitsvn and fs sources are supported.
Checkouts and updates run concurrently.
`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return initConfig() },
	}
	addConfigFlag(rootCmd)
	addLogLevelFlag(rootCmd)
	addThreadsFlag(rootCmd)
	addSourcesDirFlag(rootCmd)
	addAcceptCertFlag(rootCmd)

	rootCmd.AddCommand(
		newCheckoutCmd(),
		newUpdateCmd(),
		newStatusCmd(),
		newInfoCmd(),
		newVersionCmd(),
		newCompletionCmd(rootCmd),
	)
	return rootCmd
}

// initConfig reads in the settings file and ENV variables if set.
func initConfig() error {
	viper.SetEnvPrefix("MRDEV")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if os.Getenv("MRDEV_CONFIG_FILE") != "" {
		viper.SetConfigFile(os.Getenv("MRDEV_CONFIG_FILE"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.mrdev")
		viper.AddConfigPath("/etc/mrdev")
		viper.SetConfigName("mrdev")
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return err
		}
	}
	return nil
}

// session holds what a command needs to work on the sources of the configuration
type session struct {
	cfg *registry.Config
	wcs *core.WorkingCopies
	l   *zap.Logger
}

func newSession(cmd *cobra.Command) (*session, error) {
	l, err := buildLogger(viper.GetString(logLevelKey))
	if err != nil {
		return nil, err
	}

	var opts []registry.Option
	if dir := viper.GetString(sourcesDirKey); dir != "" {
		opts = append(opts, registry.SourcesDir(dir))
	}
	opts = append(opts, registry.Logger(l))
	cfg, err := registry.LoadFile(appFs, viper.GetString(configKey), opts...)
	if err != nil {
		return nil, err
	}

	threads := cfg.Threads
	if viper.IsSet(threadsKey) && viper.GetInt(threadsKey) > 0 {
		threads = viper.GetInt(threadsKey)
	}
	coreOpts := append([]core.Option{
		core.Threads(threads),
		core.Logger(l),
		core.Stdout(cmd.OutOrStdout()),
		core.Fs(appFs),
		core.AlwaysAcceptServerCertificate(cfg.AlwaysAcceptServerCertificate || viper.GetBool(acceptCertKey)),
		core.CloneDepth(cfg.CloneDepth),
	}, extraOptions...)

	return &session{
		cfg: cfg,
		wcs: core.New(cfg.Registry, coreOpts...),
		l:   l,
	}, nil
}

// exists tells if the working copy of a source is on disk, as a directory or a link
func (s *session) exists(path string) bool {
	if lstater, ok := appFs.(afero.Lstater); ok {
		_, _, err := lstater.LstatIfPossible(path)
		return err == nil
	}
	_, err := appFs.Stat(path)
	return err == nil
}
