// Package cli implements the blizzard command.
package cli

import (
	"errors"
	"io/fs"

	"blizzard-api/internal/common/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:          "blizzard",
		Short:        "Call the Battle.net game APIs",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(envFile); err != nil {
				return err
			}
			return logging.InitGlobalLogger()
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load; a missing file is ignored")

	root.AddCommand(
		newConfigsCmd(),
		newEndpointsCmd(),
		newCallCmd(),
		newAuthURLCmd(),
	)
	return root
}

// loadEnv loads path into the environment without overriding variables that are already set.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
