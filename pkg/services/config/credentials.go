package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"gopkg.in/ini.v1"
)

const (
	DefaultProfile = "default"

	EnvAccessKey = "FIREFLY_ACCESS_KEY"
	EnvSecretKey = "FIREFLY_SECRET_KEY"
)

// Registry reads API credentials from an ini profile file:
//
//	[default]
//	access_key = ...
//	secret_key = ...
//	base_url   = https://api.firefly.ai
type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, profile string) (domain.ConfigProfile, error)
	GetCredentials(ctx context.Context, profile string) (domain.Credentials, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

// DefaultCredentialsPath returns ~/.firefly/credentials.
func DefaultCredentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".firefly", "credentials"), nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(_ context.Context, profile string) (domain.ConfigProfile, error) {
	section, err := cr.cfg.GetSection(profile)
	if err != nil {
		return domain.ConfigProfile{}, fmt.Errorf("profile %s not found", profile)
	}
	return domain.ConfigProfile{
		Name:    profile,
		BaseURL: section.Key("base_url").String(),
	}, nil
}

func (cr *cfgRegistry) GetCredentials(_ context.Context, profile string) (domain.Credentials, error) {
	section, err := cr.cfg.GetSection(profile)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("profile %s not found", profile)
	}

	creds := domain.Credentials{
		AccessKey: section.Key("access_key").String(),
		SecretKey: section.Key("secret_key").String(),
	}
	if creds.Empty() {
		return domain.Credentials{}, fmt.Errorf("profile %s: %w", profile, domain.ErrNoCredentials)
	}
	return creds, nil
}

// ResolveCredentials prefers FIREFLY_ACCESS_KEY/FIREFLY_SECRET_KEY and falls
// back to the registry profile. registry may be nil.
func ResolveCredentials(ctx context.Context, registry Registry, profile string) (domain.Credentials, error) {
	env := domain.Credentials{
		AccessKey: os.Getenv(EnvAccessKey),
		SecretKey: os.Getenv(EnvSecretKey),
	}
	if !env.Empty() {
		return env, nil
	}
	if registry == nil {
		return domain.Credentials{}, domain.ErrNoCredentials
	}
	return registry.GetCredentials(ctx, profile)
}
