package main

import (
	"fmt"
	"net"
	"os"

	"github.com/de-tools/governance-atlas/pkg/runtime"
	"github.com/de-tools/governance-atlas/pkg/server"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath   string
	credsPath string
	profile   string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for Governance Atlas",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to the settings file")
	rootCmd.Flags().StringVar(&credsPath, "credentials", "",
		"Path to the credentials file (default is $HOME/.firefly/credentials)")
	rootCmd.Flags().StringVarP(&profile, "profile", "p", "", "Credentials profile")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	app, err := runtime.Bootstrap(ctx, runtime.Options{
		ConfigPath:      cfgPath,
		CredentialsPath: credsPath,
		Profile:         profile,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}
	defer app.Close()

	if app.Registry != nil {
		profiles, _ := app.Registry.GetProfiles(ctx)
		logger.Info().Strs("profiles", profiles).Msg("credentials profiles found")
	}

	host := app.Settings.Server.Host
	port := app.Settings.Server.Port
	if v := os.Getenv("SERVER_HOST"); v != "" {
		host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port = v
	}
	if port == "" {
		return fmt.Errorf("missing server port")
	}

	api := server.NewWebAPI(logger, server.Config{
		Addr: net.JoinHostPort(host, port),
		Dependencies: server.Dependencies{
			Runner:  app.Pipeline,
			Auth:    app.Auth,
			SMTP:    app.Settings.Notification,
			Metrics: app.Metrics,
		},
	})

	return api.Start()
}
