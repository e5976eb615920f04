package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/owner"
	"github.com/spf13/viper"
)

const EnvPrefix = "ATLAS"

type fileSettings struct {
	Upstream struct {
		BaseURL           string        `mapstructure:"base_url"`
		Timeout           time.Duration `mapstructure:"timeout"`
		RetryMax          int           `mapstructure:"retry_max"`
		RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	} `mapstructure:"upstream"`
	Pipeline struct {
		Framework          string `mapstructure:"framework"`
		OnlyMatchingAssets bool   `mapstructure:"only_matching_assets"`
		MaxPages           int    `mapstructure:"max_pages"`
		MinViolations      int    `mapstructure:"min_violations"`
		OwnerMode          string `mapstructure:"owner_mode"`
		TagKey             string `mapstructure:"tag_key"`
		Concurrency        int    `mapstructure:"concurrency"`
	} `mapstructure:"pipeline"`
	Storage struct {
		DbPath        string `mapstructure:"db_path"`
		EncryptionKey string `mapstructure:"encryption_key"`
		Profile       string `mapstructure:"profile"`
	} `mapstructure:"storage"`
	Server struct {
		Host string `mapstructure:"host"`
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	SMTP struct {
		Host      string `mapstructure:"host"`
		Port      int    `mapstructure:"port"`
		User      string `mapstructure:"user"`
		Password  string `mapstructure:"password"`
		From      string `mapstructure:"from"`
		TestEmail string `mapstructure:"test_email"`
	} `mapstructure:"smtp"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("upstream.base_url", "https://api.firefly.ai")
	v.SetDefault("upstream.timeout", 60*time.Second)
	v.SetDefault("upstream.retry_max", 3)
	v.SetDefault("upstream.requests_per_second", 5.0)

	v.SetDefault("pipeline.framework", domain.FrameworkEOL)
	v.SetDefault("pipeline.only_matching_assets", true)
	v.SetDefault("pipeline.max_pages", 100)
	v.SetDefault("pipeline.min_violations", 1)
	v.SetDefault("pipeline.owner_mode", "owner")
	v.SetDefault("pipeline.tag_key", owner.DefaultTagKey)
	v.SetDefault("pipeline.concurrency", 1)

	v.SetDefault("storage.db_path", "atlas.db")
	v.SetDefault("storage.encryption_key", "")
	v.SetDefault("storage.profile", DefaultProfile)

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.test_email", "")
}

// LoadSettings reads defaults, the optional settings file at path and
// ATLAS_* environment overrides (ATLAS_PIPELINE_MIN_VIOLATIONS and so on).
func LoadSettings(path string) (domain.Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return domain.Settings{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var fs fileSettings
	if err := v.Unmarshal(&fs); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}

	mode, err := owner.ParseMode(fs.Pipeline.OwnerMode, fs.Pipeline.TagKey)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("invalid pipeline.owner_mode: %w", err)
	}
	if fs.Pipeline.MinViolations < 0 {
		return domain.Settings{}, fmt.Errorf("pipeline.min_violations must not be negative")
	}

	return domain.Settings{
		Upstream: domain.UpstreamSettings{
			BaseURL:           fs.Upstream.BaseURL,
			Timeout:           fs.Upstream.Timeout,
			RetryMax:          fs.Upstream.RetryMax,
			RequestsPerSecond: fs.Upstream.RequestsPerSecond,
		},
		Pipeline: domain.PipelineSettings{
			Framework:          fs.Pipeline.Framework,
			OnlyMatchingAssets: fs.Pipeline.OnlyMatchingAssets,
			MaxPages:           fs.Pipeline.MaxPages,
			MinViolations:      fs.Pipeline.MinViolations,
			OwnerMode:          mode,
			Concurrency:        fs.Pipeline.Concurrency,
		},
		Storage: domain.StorageSettings{
			DbPath:        fs.Storage.DbPath,
			EncryptionKey: fs.Storage.EncryptionKey,
			Profile:       fs.Storage.Profile,
		},
		Server: domain.ServerSettings{
			Host: fs.Server.Host,
			Port: fs.Server.Port,
		},
		Notification: domain.SMTPConfig{
			Host:      fs.SMTP.Host,
			Port:      fs.SMTP.Port,
			User:      fs.SMTP.User,
			Password:  fs.SMTP.Password,
			From:      fs.SMTP.From,
			TestEmail: fs.SMTP.TestEmail,
		},
	}, nil
}
