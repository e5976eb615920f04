package commands

import (
	"fmt"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

type LoginCmd struct {
	accessKey string
	secretKey string
	load      Loader
	reporter  *export.Reporter
}

func NewLoginCmd(load Loader, reporter *export.Reporter) *cobra.Command {
	lc := &LoginCmd{load: load, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange API keys for an access token",
		Long: "Exchange API keys for an access token. Keys default to FIREFLY_ACCESS_KEY/FIREFLY_SECRET_KEY " +
			"and then to the selected credentials profile.",
		RunE: lc.run,
	}

	cmd.Flags().StringVar(&lc.accessKey, "access-key", "", "API access key")
	cmd.Flags().StringVar(&lc.secretKey, "secret-key", "", "API secret key")
	cmd.MarkFlagsRequiredTogether("access-key", "secret-key")

	return cmd
}

func (lc *LoginCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	deps, err := lc.load(cmd)
	if err != nil {
		return err
	}

	creds := domain.Credentials{AccessKey: lc.accessKey, SecretKey: lc.secretKey}
	if creds.Empty() {
		creds, err = deps.Credentials(ctx)
		if err != nil {
			return fmt.Errorf("no credentials to log in with: %w", err)
		}
	}

	token, err := deps.Auth.Login(ctx, creds)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return lc.reporter.TokenStatus(domain.TokenStatus{Valid: true, ExpiresAt: token.ExpiresAt()})
}

func NewTokenStatusCmd(load Loader, reporter *export.Reporter) *cobra.Command {
	return &cobra.Command{
		Use:   "token-status",
		Short: "Show whether a valid access token is cached",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := load(cmd)
			if err != nil {
				return err
			}
			return reporter.TokenStatus(deps.Auth.Status(cmd.Context()))
		},
	}
}

func NewLogoutCmd(load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the cached access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := load(cmd)
			if err != nil {
				return err
			}
			if err := deps.Auth.Invalidate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}
			cmd.Println("Token removed.")
			return nil
		},
	}
}
