package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const credentialsFile = `[default]
access_key = ak-default
secret_key = sk-default

[staging]
access_key = ak-staging
secret_key = sk-staging
base_url = https://staging.firefly.ai

[broken]
access_key = only-half
`

func writeCredentials(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials")
	require.NoError(t, os.WriteFile(path, []byte(credentialsFile), 0o600))
	return path
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	reg, err := NewRegistry(writeCredentials(t))
	require.NoError(t, err)

	t.Run("profiles", func(t *testing.T) {
		profiles, err := reg.GetProfiles(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"default", "staging", "broken"}, profiles)
	})

	t.Run("credentials", func(t *testing.T) {
		creds, err := reg.GetCredentials(ctx, "staging")
		require.NoError(t, err)
		assert.Equal(t, domain.Credentials{AccessKey: "ak-staging", SecretKey: "sk-staging"}, creds)
	})

	t.Run("profile base url", func(t *testing.T) {
		p, err := reg.GetProfile(ctx, "staging")
		require.NoError(t, err)
		assert.Equal(t, "staging@https://staging.firefly.ai", p.String())
	})

	t.Run("incomplete profile", func(t *testing.T) {
		_, err := reg.GetCredentials(ctx, "broken")
		assert.ErrorIs(t, err, domain.ErrNoCredentials)
	})

	t.Run("unknown profile", func(t *testing.T) {
		_, err := reg.GetCredentials(ctx, "prod")
		assert.Error(t, err)
	})
}

func TestNewRegistry_MissingFile(t *testing.T) {
	_, err := NewRegistry(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestResolveCredentials(t *testing.T) {
	ctx := context.Background()
	reg, err := NewRegistry(writeCredentials(t))
	require.NoError(t, err)

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv(EnvAccessKey, "ak-env")
		t.Setenv(EnvSecretKey, "sk-env")

		creds, err := ResolveCredentials(ctx, reg, "default")
		require.NoError(t, err)
		assert.Equal(t, "ak-env", creds.AccessKey)
	})

	t.Run("registry fallback", func(t *testing.T) {
		t.Setenv(EnvAccessKey, "")
		t.Setenv(EnvSecretKey, "")

		creds, err := ResolveCredentials(ctx, reg, "default")
		require.NoError(t, err)
		assert.Equal(t, "ak-default", creds.AccessKey)
	})

	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv(EnvAccessKey, "")
		t.Setenv(EnvSecretKey, "")

		_, err := ResolveCredentials(ctx, nil, "default")
		assert.ErrorIs(t, err, domain.ErrNoCredentials)
	})
}
