package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/pratik-mahalle/soar/internal/auth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newTokenCmd() *cobra.Command {
	var (
		secret  string
		subject string
		role    string
		ttl     time.Duration
		save    bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API bearer token",
		Long: `Token signs an HS256 access token with the server's JWT secret. The
secret defaults to the JWT_SECRET environment variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}

			token, err := auth.MintToken(subject, role, secret, ttl)
			if err != nil {
				return err
			}

			if save {
				viper.Set("auth.token", token)
				path, err := writeConfig()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Token saved to %s\n", path)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (default $JWT_SECRET)")
	cmd.Flags().StringVar(&subject, "subject", "soar-cli", "token subject")
	cmd.Flags().StringVar(&role, "role", "responder", "token role")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().BoolVar(&save, "save", false, "store the token in the CLI config")

	return cmd
}
