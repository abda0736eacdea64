package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/honeycombio/sqlcomment-go/client"
	"github.com/honeycombio/sqlcomment-go/internal/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "sqlcomment",
		Short: "Prepend comments to SQL statements",
		Long: `sqlcomment puts a /* comment */ block in front of SQL so the statement can be
traced back to whatever issued it in slow query logs and process lists.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := client.Init(cfg.Client()); err != nil {
				return fmt.Errorf("failed to start event client: %w", err)
			}
			if cfg.Honeycomb.Debug {
				if f := config.GetConfigFileUsed(); f != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", f)
				}
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			client.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./sqlcomment.yaml)")
	pf.StringP("comment", "c", "", "comment to prepend")
	pf.BoolP("newline", "n", false, "put the comment on its own line")
	pf.String("policy", "", "how line breaks in a comment are handled (escape|collapse)")
	pf.Bool("quote", false, "render the comment as a string literal of the dialect")
	pf.String("dialect", "", "SQL dialect used by --quote (mysql|postgres|sqlite)")
	pf.String("write-key", "", "Honeycomb write key; events are discarded without one")
	pf.String("dataset", "", "Honeycomb dataset")
	pf.String("api-host", "", "Honeycomb API host")
	pf.Bool("stdout", false, "print events to stdout instead of sending them")
	pf.Bool("debug", false, "print config and transmission details")

	_ = rootCmd.RegisterFlagCompletionFunc("policy", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"escape", "collapse"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewAnnotateCommand())
	rootCmd.AddCommand(NewExecCommand())
	rootCmd.AddCommand(NewVersionCommand())
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getConfig retrieves the config stored by the root command.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{Policy: config.DefaultPolicy, Dialect: config.DefaultDialect}
}
