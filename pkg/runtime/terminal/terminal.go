package terminal

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/runtime"
	"github.com/de-tools/governance-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/governance-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/governance-atlas/pkg/services/config"
	"github.com/de-tools/governance-atlas/pkg/store/s3export"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	reporter *export.Reporter
	rootCmd  *cobra.Command
	load     commands.Loader

	configPath      string
	credentialsPath string
	profile         string
	awsProfile      string
	awsRegion       string
	verbose         bool

	app *runtime.App
}

// Options contain configuration for the CLI
type Options struct {
	Output io.Writer
	// Loader overrides how command dependencies are built.
	Loader commands.Loader
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		reporter: export.NewReporter(opts.Output),
		load:     opts.Loader,
	}
	if cli.load == nil {
		cli.load = cli.bootstrap
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute() error {
	defer cli.close()
	return cli.rootCmd.Execute()
}

func (cli *CLI) ExecuteContext(ctx context.Context) error {
	defer cli.close()
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "atlas",
		Short:             "EOL governance reporting",
		SilenceUsage:      true,
		PersistentPreRunE: cli.setupLogger,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cli.configPath, "config", "c", "", "Path to the settings file (yaml, json or toml)")
	flags.StringVar(&cli.credentialsPath, "credentials", "", "Path to the credentials file (default is $HOME/.firefly/credentials)")
	flags.StringVarP(&cli.profile, "profile", "p", "", "Credentials profile (default from settings)")
	flags.StringVar(&cli.awsProfile, "aws-profile", "", "AWS shared config profile used for S3 uploads")
	flags.StringVar(&cli.awsRegion, "aws-region", "", "AWS region used for S3 uploads")
	flags.BoolVarP(&cli.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(commands.NewLoginCmd(cli.load, cli.reporter))
	cmd.AddCommand(commands.NewLogoutCmd(cli.load))
	cmd.AddCommand(commands.NewTokenStatusCmd(cli.load, cli.reporter))
	cmd.AddCommand(commands.NewPoliciesCmd(cli.load, cli.reporter))
	cmd.AddCommand(commands.NewInventoryCmd(cli.load, cli.reporter))
	cmd.AddCommand(commands.NewReportCmd(cli.load, cli.reporter))
	cmd.AddCommand(commands.NewNotifyCmd(cli.load, cli.reporter))

	return cmd
}

func (cli *CLI) setupLogger(cmd *cobra.Command, _ []string) error {
	level := zerolog.InfoLevel
	if cli.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logger.WithContext(ctx))
	return nil
}

func (cli *CLI) bootstrap(cmd *cobra.Command) (*commands.Deps, error) {
	ctx := cmd.Context()
	if cli.app == nil {
		app, err := runtime.Bootstrap(ctx, runtime.Options{
			ConfigPath:      cli.configPath,
			CredentialsPath: cli.credentialsPath,
			Profile:         cli.profile,
		})
		if err != nil {
			return nil, err
		}
		cli.app = app
	}

	app := cli.app
	profile := app.Settings.Storage.Profile
	return &commands.Deps{
		Runner: app.Pipeline,
		Auth:   app.Auth,
		Credentials: func(ctx context.Context) (domain.Credentials, error) {
			return config.ResolveCredentials(ctx, app.Registry, profile)
		},
		SMTP: app.Settings.Notification,
		NewUploader: func(ctx context.Context) (commands.Uploader, error) {
			uploader, err := s3export.NewUploaderFromProfile(ctx, cli.awsProfile, cli.awsRegion)
			if err != nil {
				return nil, err
			}
			return uploader, nil
		},
	}, nil
}

func (cli *CLI) close() {
	if cli.app != nil {
		_ = cli.app.Close()
	}
}
