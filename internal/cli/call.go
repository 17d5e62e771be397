package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"blizzard-api/internal/common/errors"
	"blizzard-api/pkg/blizzard"

	"github.com/spf13/cobra"
)

type callOptions struct {
	region   string
	locale   string
	timeout  time.Duration
	apiBase  string
	tokenURL string
	compact  bool
}

func newCallCmd() *cobra.Command {
	var opts callOptions
	cmd := &cobra.Command{
		Use:   "call <game> <api_type> <operation> [key=value...]",
		Short: "Call an operation and print the JSON response",
		Long: "Call an operation using the credentials in BLIZZARD_CLIENT_ID and BLIZZARD_CLIENT_SECRET.\n" +
			"Repeating a key sends it more than once, e.g. for search filters.",
		Example: "  blizzard call wow game_data get_achievement achievement_id=6\n" +
			"  blizzard call wow game_data search_decor name.en_US=Chair orderby=id",
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[3:])
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runCall(ctx, cmd, opts, args[0], args[1], args[2], params)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.region, "region", "", "default region, overrides BLIZZARD_REGION")
	fs.StringVar(&opts.locale, "locale", "", "default locale, overrides BLIZZARD_LOCALE")
	fs.DurationVar(&opts.timeout, "timeout", 0, "overall deadline for the call")
	fs.StringVar(&opts.apiBase, "base-url", "", "override the API base URL of every region")
	fs.StringVar(&opts.tokenURL, "token-url", "", "override the token URL of every region")
	fs.BoolVar(&opts.compact, "compact", false, "print compact JSON")
	return cmd
}

func runCall(ctx context.Context, cmd *cobra.Command, opts callOptions, game, apiType, operation string, params blizzard.Params) error {
	var clientOpts []blizzard.Option
	if opts.region != "" {
		clientOpts = append(clientOpts, blizzard.WithRegion(opts.region))
	}
	if opts.locale != "" {
		clientOpts = append(clientOpts, blizzard.WithLocale(opts.locale))
	}
	if opts.apiBase != "" || opts.tokenURL != "" {
		clientOpts = append(clientOpts, blizzard.WithBaseURLs(opts.apiBase, opts.tokenURL))
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	client, err := blizzard.NewFromEnv(clientOpts...)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		return err
	}
	api, err := client.API(game, apiType)
	if err != nil {
		return err
	}
	payload, err := api.Call(ctx, operation, params)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(payload)
}

// parseParams turns key=value arguments into call parameters. A repeated key becomes a list.
func parseParams(args []string) (blizzard.Params, error) {
	params := blizzard.Params{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, errors.ValidationError(fmt.Sprintf("argument %q is not key=value", arg)).
				WithCode("invalid_argument")
		}
		switch existing := params[key].(type) {
		case nil:
			params[key] = value
		case []interface{}:
			params[key] = append(existing, value)
		default:
			params[key] = []interface{}{existing, value}
		}
	}
	return params, nil
}
