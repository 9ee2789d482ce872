package main

import (
	"github.com/spf13/cobra"
)

const (
	serviceName    = "Teams AI Bot"
	serviceVersion = "1.0.0"
)

type globalOptions struct {
	verbose    bool
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "relay",
		Short:         "Conversational relay between chat clients and a completion backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML file overlaying environment configuration")

	root.AddCommand(newServeCmd(opts), newChatCmd(opts))
	return root
}
