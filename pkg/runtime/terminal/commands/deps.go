package commands

import (
	"context"
	"io"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/pipeline"
	"github.com/de-tools/governance-atlas/pkg/store/s3export"
	"github.com/spf13/cobra"
)

type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (domain.RunResult, error)
	ListPolicies(ctx context.Context) (pipeline.PolicyListing, error)
	ListInventory(ctx context.Context, limit int) (domain.InventoryListing, error)
	DefaultRequest() pipeline.Request
}

type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.Token, error)
	Status(ctx context.Context) domain.TokenStatus
	Invalidate(ctx context.Context) error
}

type Uploader interface {
	Upload(ctx context.Context, loc s3export.Location, contentType string, body io.Reader) error
}

// Deps are the services a command needs. They are built lazily so that
// flags parsed by the root command can shape them.
type Deps struct {
	Runner      Runner
	Auth        Authenticator
	Credentials func(ctx context.Context) (domain.Credentials, error)
	SMTP        domain.SMTPConfig
	NewUploader func(ctx context.Context) (Uploader, error)
}

// Loader builds the dependencies for the running command.
type Loader func(cmd *cobra.Command) (*Deps, error)
