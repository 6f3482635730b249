package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GoCodeAlone/bootstrap"
	"github.com/GoCodeAlone/bootstrap/enumerate"
	"github.com/GoCodeAlone/bootstrap/registry"
)

// Setting keys, also usable as BOOTSTRAP_<KEY> environment variables.
const (
	keySearchPath = "search-path"
	keyConfigDir  = "config-dir"
	keyLogFormat  = "log-format"
	keyLogLevel   = "log-level"
)

// Settings are the resolved command line and environment settings.
type Settings struct {
	SearchPath []string
	ConfigDir  string
	LogFormat  string
	LogLevel   string
}

// Version information
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// PrintVersion prints version information
func PrintVersion() string {
	return fmt.Sprintf("bootstrap v%s (commit: %s, built on: %s)", Version, Commit, Date)
}

// NewRootCommand creates the root command. Without a subcommand it runs the
// entry bean, passing every positional argument through unmodified.
func NewRootCommand() *cobra.Command {
	return newRootCommand(registry.Default())
}

func newRootCommand(catalog *registry.Catalog) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "bootstrap [args...]",
		Short: "bootstrap - discover, construct and run the application entry bean",
		Long: `bootstrap scans a search path for unit descriptors, selects the highest
priority implementation of the entry contract, constructs it and runs it
with the loaded application configuration and the given arguments.

The search path is read from --search-path, BOOTSTRAP_SEARCH_PATH or UNITPATH.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntry(cmd, v, catalog, args)
		},
	}
	cmd.Flags().SetInterspersed(false)

	flags := cmd.PersistentFlags()
	flags.StringP(keySearchPath, "p", "", "search path roots separated by the OS path list separator")
	flags.String(keyConfigDir, "", "directory the configuration resource paths are resolved against")
	flags.String(keyLogFormat, "text", "log format: text or json")
	flags.String(keyLogLevel, "info", "log level: debug, info, warn or error")

	if err := bindSettings(v, cmd); err != nil {
		panic(err)
	}

	cmd.AddCommand(newRunCommand(v, catalog))
	cmd.AddCommand(newUnitsCommand(v, catalog))
	cmd.AddCommand(newExportCommand(catalog))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), PrintVersion())
		},
	})

	return cmd
}

// bindSettings resolves every persistent flag of cmd through v, falling back
// to BOOTSTRAP_* environment variables. The search path also honours UNITPATH.
func bindSettings(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix("BOOTSTRAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(keySearchPath, "BOOTSTRAP_SEARCH_PATH", "UNITPATH"); err != nil {
		return fmt.Errorf("bind %s environment: %w", keySearchPath, err)
	}
	return nil
}

func newRunCommand(v *viper.Viper, catalog *registry.Catalog) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [args...]",
		Short: "Run the entry bean with the given arguments",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntry(cmd, v, catalog, args)
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func loadSettings(v *viper.Viper) Settings {
	return Settings{
		SearchPath: enumerate.ParseSearchPath(v.GetString(keySearchPath)),
		ConfigDir:  v.GetString(keyConfigDir),
		LogFormat:  strings.ToLower(v.GetString(keyLogFormat)),
		LogLevel:   strings.ToLower(v.GetString(keyLogLevel)),
	}
}

func newRuntime(cmd *cobra.Command, s Settings, catalog *registry.Catalog) (*bootstrap.Runtime, func(), error) {
	logger, sync, err := newLogger(cmd.ErrOrStderr(), s.LogFormat, s.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	opts := []bootstrap.Option{
		bootstrap.WithLogger(logger),
		bootstrap.WithCatalog(catalog),
		bootstrap.WithSearchPath(s.SearchPath...),
	}
	if s.ConfigDir != "" {
		opts = append(opts, bootstrap.WithConfigDir(s.ConfigDir))
	}
	rt, err := bootstrap.New(opts...)
	if err != nil {
		sync()
		return nil, nil, fmt.Errorf("failed to create runtime: %w", err)
	}
	return rt, sync, nil
}

func runEntry(cmd *cobra.Command, v *viper.Viper, catalog *registry.Catalog, args []string) error {
	rt, sync, err := newRuntime(cmd, loadSettings(v), catalog)
	if err != nil {
		return err
	}
	defer sync()
	return rt.Run(cmd.Context(), args)
}
