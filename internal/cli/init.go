package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/hostkit/internal/config"
)

var initForce bool

// initCmd writes a default .hostkit.yaml in the current directory.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .hostkit.yaml configuration",
	Long: `Write a .hostkit.yaml with the default NFS and transport settings
into the current directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(config.ConfigFileName); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", config.ConfigFileName)
		}

		data, err := yaml.Marshal(config.DefaultConfig())
		if err != nil {
			return err
		}

		header := []byte("# hostkit configuration. Empty 'host' targets the local machine.\n")
		if err := os.WriteFile(config.ConfigFileName, append(header, data...), 0o644); err != nil {
			return err
		}

		fmt.Printf("wrote %s\n", config.ConfigFileName)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config")
	rootCmd.AddCommand(initCmd)
}
