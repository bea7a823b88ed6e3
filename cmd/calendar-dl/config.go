package main

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func configCmd(g *globalOptions) *cobra.Command {
	var validate bool

	command := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := g.load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if validate {
				fmt.Fprintf(out, "%s is valid\n", g.configPath)
				return nil
			}

			return toml.NewEncoder(out).Encode(settings)
		},
	}

	command.Flags().BoolVar(&validate, "validate", false, "Only check that the configuration is valid")

	return command
}
