package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var serverFlag string
	var configFlag string
	var jsonOutput bool

	ctx := newCommandContext(&serverFlag, &configFlag, &jsonOutput)

	rootCmd := &cobra.Command{
		Use:           "discpipe",
		Short:         "discpipe control CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Control surface base URL or host:port (defaults to api_bind from config)")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output machine-readable JSON instead of tables")

	rootCmd.AddCommand(newQueueCommand(ctx))
	rootCmd.AddCommand(newCollectionCommand(ctx))
	rootCmd.AddCommand(newWantedCommand(ctx))
	rootCmd.AddCommand(newOversightCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
