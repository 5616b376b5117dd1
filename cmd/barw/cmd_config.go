package main

import (
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect barw configuration",
		Long: `Inspect the effective configuration.

Configuration is read from --config, else <root>/.barw/config.yaml, else
~/.barw/config.yaml, and then overridden by BARW_* environment variables.

Examples:
  barw config show
  barw config show --json`,
	}

	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if env.jsonOut {
				return writeJSON(cmd, env.cfg)
			}
			data, err := env.cfg.ToYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
