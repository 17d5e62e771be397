package cli

import (
	"fmt"
	"strings"

	"blizzard-api/internal/common/logging"
	"blizzard-api/internal/executor"
	"blizzard-api/internal/facade"
	"blizzard-api/internal/registry"

	"github.com/spf13/cobra"
)

func newEndpointsCmd() *cobra.Command {
	var withAsync bool
	cmd := &cobra.Command{
		Use:     "endpoints <game> <api_type>",
		Short:   "Print the generated operations of an API",
		Example: "  blizzard endpoints wow game_data",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := describeOnly(args[0], args[1])
			if err != nil {
				return err
			}
			for _, name := range api.Methods() {
				base := strings.TrimSuffix(name, facade.AsyncSuffix)
				if base != name && !withAsync {
					continue
				}
				line, err := api.Describe(base)
				if err != nil {
					return err
				}
				if base != name {
					line = name + strings.TrimPrefix(line, base)
				}
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withAsync, "async", false, "also list the _async variants")
	return cmd
}

// describeOnly builds the facade without credentials. Calling an operation on it fails
// with a token error.
func describeOnly(game, apiType string) (*facade.API, error) {
	reg := registry.New()
	cfg, err := reg.Load(game, apiType)
	if err != nil {
		return nil, err
	}
	logger := logging.GetGlobalLogger()
	exec, err := executor.New(executor.Config{Logger: logger})
	if err != nil {
		return nil, err
	}
	return facade.Build(cfg, reg, facade.Settings{Executor: exec, Logger: logger})
}
