package cli

import (
	"fmt"
	"os"

	"blizzard-api/internal/common/errors"
	"blizzard-api/pkg/blizzard"

	"github.com/spf13/cobra"
)

type authURLOptions struct {
	region      string
	clientID    string
	redirectURI string
	scope       string
	state       string
}

func newAuthURLCmd() *cobra.Command {
	opts := authURLOptions{
		redirectURI: blizzard.DefaultRedirectURI,
		scope:       blizzard.DefaultScope,
	}
	cmd := &cobra.Command{
		Use:   "auth-url",
		Short: "Print the URL a user visits to authorize profile access",
		Long: "Print the authorization-code URL for user tokens. After authorizing, exchange the\n" +
			"returned code for a token and pass it as access_token to profile operations.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.region == "" {
				opts.region = envOr("BLIZZARD_REGION", "us")
			}
			if opts.clientID == "" {
				opts.clientID = os.Getenv("BLIZZARD_CLIENT_ID")
			}
			if opts.clientID == "" {
				return errors.MissingParameterError("client id is required", "client-id", []string{"client-id"})
			}
			u, err := blizzard.AuthorizeURL(opts.region, opts.clientID, opts.redirectURI, opts.scope, opts.state)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), u)
			return err
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.region, "region", "", "region, defaults to BLIZZARD_REGION or us")
	fs.StringVar(&opts.clientID, "client-id", "", "client id, defaults to BLIZZARD_CLIENT_ID")
	fs.StringVar(&opts.redirectURI, "redirect-uri", opts.redirectURI, "registered redirect URI")
	fs.StringVar(&opts.scope, "scope", opts.scope, "space separated scopes")
	fs.StringVar(&opts.state, "state", "", "opaque state echoed back on redirect")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
