package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	cmdCtx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "popquiz",
		Short:         "Produce quiz round videos and sheets",
		Long:          "popquiz reads a quiz round file, fetches the video sources it references, and renders question and answer videos plus printable sheets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := cmdCtx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to configuration file")

	rootCmd.AddCommand(newRenderCommand(cmdCtx))
	rootCmd.AddCommand(newFetchCommand(cmdCtx))
	rootCmd.AddCommand(newSheetsCommand(cmdCtx))
	rootCmd.AddCommand(newStatusCommand(cmdCtx))
	rootCmd.AddCommand(newLedgerCommand(cmdCtx))
	rootCmd.AddCommand(newPreflightCommand(cmdCtx))
	rootCmd.AddCommand(newConfigCommand(cmdCtx))

	return rootCmd
}

// shouldSkipConfig reports whether the command opted out of configuration
// loading, e.g. `config init`, which must run before a config file exists.
func shouldSkipConfig(cmd *cobra.Command) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if current.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
