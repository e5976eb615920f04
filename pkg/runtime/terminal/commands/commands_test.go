package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/governance-atlas/pkg/services/pipeline"
	"github.com/de-tools/governance-atlas/pkg/store/s3export"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, req pipeline.Request) (domain.RunResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.RunResult), args.Error(1)
}

func (m *mockRunner) ListPolicies(ctx context.Context) (pipeline.PolicyListing, error) {
	args := m.Called(ctx)
	return args.Get(0).(pipeline.PolicyListing), args.Error(1)
}

func (m *mockRunner) ListInventory(ctx context.Context, limit int) (domain.InventoryListing, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).(domain.InventoryListing), args.Error(1)
}

func (m *mockRunner) DefaultRequest() pipeline.Request {
	return pipeline.Request{Mode: domain.OwnerFieldMode(), MinViolations: 1}
}

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Login(ctx context.Context, creds domain.Credentials) (domain.Token, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(domain.Token), args.Error(1)
}

func (m *mockAuth) Status(ctx context.Context) domain.TokenStatus {
	args := m.Called(ctx)
	return args.Get(0).(domain.TokenStatus)
}

func (m *mockAuth) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, loc s3export.Location, contentType string, body io.Reader) error {
	data, _ := io.ReadAll(body)
	return m.Called(ctx, loc, contentType, string(data)).Error(0)
}

func result() domain.RunResult {
	return domain.RunResult{
		RunID: "run-1",
		Mode:  domain.OwnerFieldMode(),
		Owners: []domain.OwnerSummary{
			{
				Owner: "a@example.com", Count: 1, Violations: 1,
				ViolationTypes: []string{"Python"},
				Assets:         []domain.AssetRef{{Key: "1", Label: "api (lambda)", ARN: "arn:1"}},
			},
			{
				Owner: "b@example.com", Count: 1, Violations: 1,
				ViolationTypes: []string{"Node"},
				Assets:         []domain.AssetRef{{Key: "2", Label: "web (ec2)", ARN: "arn:2"}},
			},
		},
	}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func loaderFor(deps *Deps) Loader {
	return func(*cobra.Command) (*Deps, error) { return deps, nil }
}

func TestReportCmd_CSVFiltered(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, pipeline.Request{Mode: domain.TagMode("team"), MinViolations: 1}).
		Return(result(), nil)

	var out bytes.Buffer
	cmd := NewReportCmd(loaderFor(&Deps{Runner: runner}), export.NewReporter(&out))

	err := execute(t, cmd, "--mode", "tag", "--tag-key", "team", "--format", "csv", "--owners", "b@example.com")

	require.NoError(t, err)
	assert.Equal(t, "Owner,Asset,ARN,Violation Type\n"+`"b@example.com","web (ec2)","arn:2","Node"`, out.String())
	runner.AssertExpectations(t)
}

func TestReportCmd_MinViolationsOverride(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, pipeline.Request{Mode: domain.OwnerFieldMode(), MinViolations: 3}).
		Return(domain.RunResult{Mode: domain.OwnerFieldMode()}, nil)

	cmd := NewReportCmd(loaderFor(&Deps{Runner: runner}), export.NewReporter(io.Discard))

	require.NoError(t, execute(t, cmd, "--min-violations", "3", "--format", "json"))
	runner.AssertExpectations(t)
}

func TestReportCmd_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown format", args: []string{"--format", "xml"}},
		{name: "unknown mode", args: []string{"--mode", "team"}},
		{name: "negative threshold", args: []string{"--min-violations", "-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(mockRunner)
			cmd := NewReportCmd(loaderFor(&Deps{Runner: runner}), export.NewReporter(io.Discard))

			assert.Error(t, execute(t, cmd, tt.args...))
			runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
		})
	}
}

func TestReportCmd_OutputFileAndUpload(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, mock.Anything).Return(result(), nil)
	uploader := new(mockUploader)

	path := filepath.Join(t.TempDir(), "report.csv")
	var out bytes.Buffer
	fixed := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	cmd := newReportCmd(loaderFor(&Deps{
		Runner:      runner,
		NewUploader: func(context.Context) (Uploader, error) { return uploader, nil },
	}), export.NewReporter(&out), func() time.Time { return fixed })

	uploader.On("Upload", mock.Anything,
		s3export.Location{Bucket: "reports", Key: "eol/eol-violations-2025-03-07.csv"},
		"text/csv",
		mock.MatchedBy(func(body string) bool { return bytes.HasPrefix([]byte(body), []byte("Owner Email,")) }),
	).Return(nil)

	err := execute(t, cmd, "--format", "summary-csv", "--output", path, "--s3-uri", "s3://reports/eol/")

	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"a@example.com","1","1"`)
	assert.Empty(t, out.String(), "stdout is untouched when writing to a file")
	uploader.AssertExpectations(t)
}

func TestReportCmd_RunError(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, mock.Anything).Return(domain.RunResult{}, domain.ErrAuthRequired)

	cmd := NewReportCmd(loaderFor(&Deps{Runner: runner}), export.NewReporter(io.Discard))

	err := execute(t, cmd)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestLoginCmd(t *testing.T) {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("explicit keys", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("Login", mock.Anything, domain.Credentials{AccessKey: "ak", SecretKey: "sk"}).
			Return(domain.Token{AccessToken: "t", ExpiresIn: time.Hour, CreatedAt: expires.Add(-time.Hour)}, nil)

		var out bytes.Buffer
		cmd := NewLoginCmd(loaderFor(&Deps{Auth: auth}), export.NewReporter(&out))

		require.NoError(t, execute(t, cmd, "--access-key", "ak", "--secret-key", "sk"))
		assert.Contains(t, out.String(), "Token valid until")
		auth.AssertExpectations(t)
	})

	t.Run("resolved credentials", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("Login", mock.Anything, domain.Credentials{AccessKey: "env", SecretKey: "env"}).
			Return(domain.Token{AccessToken: "t", ExpiresIn: time.Hour, CreatedAt: expires}, nil)

		cmd := NewLoginCmd(loaderFor(&Deps{
			Auth: auth,
			Credentials: func(context.Context) (domain.Credentials, error) {
				return domain.Credentials{AccessKey: "env", SecretKey: "env"}, nil
			},
		}), export.NewReporter(io.Discard))

		require.NoError(t, execute(t, cmd))
		auth.AssertExpectations(t)
	})

	t.Run("no credentials", func(t *testing.T) {
		cmd := NewLoginCmd(loaderFor(&Deps{
			Auth: new(mockAuth),
			Credentials: func(context.Context) (domain.Credentials, error) {
				return domain.Credentials{}, domain.ErrNoCredentials
			},
		}), export.NewReporter(io.Discard))

		assert.ErrorIs(t, execute(t, cmd), domain.ErrNoCredentials)
	})
}

func TestLogoutCmd(t *testing.T) {
	auth := new(mockAuth)
	auth.On("Invalidate", mock.Anything).Return(errors.New("disk full")).Once()

	cmd := NewLogoutCmd(loaderFor(&Deps{Auth: auth}))

	assert.Error(t, execute(t, cmd))
}

func TestNotifyCmd(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, mock.Anything).Return(result(), nil)

	var out bytes.Buffer
	cmd := NewNotifyCmd(loaderFor(&Deps{Runner: runner}), export.NewReporter(&out))

	require.NoError(t, execute(t, cmd, "--all", "--test-email", "qa@example.com"))

	assert.Contains(t, out.String(), "a@example.com")
	assert.Contains(t, out.String(), "-> qa@example.com")
	assert.Contains(t, out.String(), "demo-")
}

func TestNotifyCmd_RequiresSelection(t *testing.T) {
	cmd := NewNotifyCmd(loaderFor(&Deps{Runner: new(mockRunner)}), export.NewReporter(io.Discard))

	assert.Error(t, execute(t, cmd))
}

func TestInventoryCmd(t *testing.T) {
	runner := new(mockRunner)
	runner.On("ListInventory", mock.Anything, 5).Return(domain.InventoryListing{
		Assets: []domain.Asset{{ID: "1", Name: "api", Type: "lambda", Owner: "a@example.com"}},
		Pages:  1,
	}, nil)

	var out bytes.Buffer
	cmd := NewInventoryCmd(loaderFor(&Deps{Runner: runner}), export.NewReporter(&out))

	require.NoError(t, execute(t, cmd, "--limit", "5"))
	assert.Contains(t, out.String(), "Managed inventory (1 assets, 1 pages)")
	runner.AssertExpectations(t)
}
