package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trainerhq/dexd/pkg/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dexd configuration files",
	}
	cmd.AddCommand(newConfigInitCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var outPath string
	var force bool
	var stdout bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stdout && outPath != "" {
				return fmt.Errorf("--stdout and --out are mutually exclusive")
			}

			if stdout {
				content, err := config.DefaultConfigYAML()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			}

			written := outPath
			if written != "" {
				if err := config.InitConfigToPath(written, force); err != nil {
					return err
				}
			} else {
				var err error
				written, err = config.InitConfig(force)
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", written)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", fmt.Sprintf("output path for the generated config (defaults to %s)", config.GetDefaultConfigPath()))
	cmd.Flags().BoolVar(&force, "force", false, "overwrite the target file if it already exists")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print the config to stdout instead of writing a file")
	return cmd
}
