package runtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/auth"
	"github.com/de-tools/governance-atlas/pkg/services/config"
	"github.com/de-tools/governance-atlas/pkg/services/pipeline"
	"github.com/de-tools/governance-atlas/pkg/store/duckdb"
	"github.com/de-tools/governance-atlas/pkg/store/duckdb/token"
	"github.com/de-tools/governance-atlas/pkg/store/firefly"
	"github.com/de-tools/governance-atlas/pkg/store/secret"
	"github.com/de-tools/governance-atlas/pkg/telemetry"
	"github.com/rs/zerolog"
)

// Options locate the settings and credentials files. Empty paths fall back
// to defaults.
type Options struct {
	ConfigPath      string
	CredentialsPath string
	Profile         string
}

// App is the assembled object graph shared by the CLI and the web server.
type App struct {
	Settings domain.Settings
	Registry config.Registry
	Client   *firefly.Client
	Auth     *auth.Provider
	Pipeline *pipeline.Pipeline
	Metrics  *telemetry.Metrics

	db *sql.DB
}

// Bootstrap loads configuration and wires every component. Tokens are kept
// in DuckDB only when an encryption key is configured.
func Bootstrap(ctx context.Context, opts Options) (*App, error) {
	logger := zerolog.Ctx(ctx)

	settings, err := config.LoadSettings(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Profile != "" {
		settings.Storage.Profile = opts.Profile
	}

	registry, err := openRegistry(opts.CredentialsPath)
	if err != nil {
		return nil, err
	}
	if registry != nil {
		if profile, err := registry.GetProfile(ctx, settings.Storage.Profile); err == nil && profile.BaseURL != "" {
			settings.Upstream.BaseURL = profile.BaseURL
		}
	}

	app := &App{
		Settings: settings,
		Registry: registry,
		Metrics:  telemetry.NewMetrics(),
	}

	var (
		tokens token.Store
		cipher *secret.Cipher
	)
	if settings.Storage.EncryptionKey != "" {
		app.db, err = duckdb.NewDB(duckdb.Settings{DbPath: settings.Storage.DbPath})
		if err != nil {
			return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
		}
		tokens, err = token.NewStore(app.db)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("failed to create token store: %w", err)
		}
		cipher, err = secret.NewCipher(settings.Storage.EncryptionKey)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
	} else {
		logger.Debug().Msg("no encryption key configured, tokens are kept in memory")
	}

	app.Client = firefly.NewClient(settings.Upstream, *logger)

	profile := settings.Storage.Profile
	app.Auth, err = auth.NewProvider(profile, tokens, cipher, app.Client, func(ctx context.Context) (domain.Credentials, error) {
		return config.ResolveCredentials(ctx, registry, profile)
	})
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Pipeline = pipeline.NewPipeline(app.Client.Session(app.Auth), settings.Pipeline, app.Metrics)

	logger.Debug().
		Str("profile", profile).
		Str("base_url", settings.Upstream.BaseURL).
		Bool("persistent_tokens", tokens != nil).
		Msg("runtime assembled")
	return app, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// openRegistry returns a nil registry when the credentials file does not
// exist, leaving the environment as the only credential source.
func openRegistry(path string) (config.Registry, error) {
	if path == "" {
		var err error
		path, err = config.DefaultCredentialsPath()
		if err != nil {
			return nil, err
		}
	}
	registry, err := config.NewRegistry(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return registry, nil
}
