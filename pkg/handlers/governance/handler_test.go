package governance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/api"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

var fixedNow = time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

func setupRouter(runner *mockRunner, auth *mockAuth) http.Handler {
	h := NewHandler(runner, auth, domain.SMTPConfig{})
	h.now = func() time.Time { return fixedNow }
	r := chi.NewRouter()
	r.Route("/api/v1", h.Register)
	return r
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*mockAuth)
		expectedStatus int
	}{
		{
			name: "successful login",
			body: `{"accessKey":"ak","secretKey":"sk"}`,
			setupMock: func(m *mockAuth) {
				m.On("Login", mock.Anything, domain.Credentials{AccessKey: "ak", SecretKey: "sk"}).
					Return(domain.Token{AccessToken: "tok", ExpiresIn: time.Hour, CreatedAt: fixedNow}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing keys",
			body:           `{"accessKey":"ak"}`,
			setupMock:      func(*mockAuth) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "rejected credentials",
			body: `{"accessKey":"ak","secretKey":"bad"}`,
			setupMock: func(m *mockAuth) {
				m.On("Login", mock.Anything, mock.Anything).
					Return(domain.Token{}, fmt.Errorf("login: %w", domain.ErrAuthRequired))
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := new(mockAuth)
			tt.setupMock(auth)

			rec := do(t, setupRouter(new(mockRunner), auth), http.MethodPost, "/api/v1/auth", tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp api.AuthResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.True(t, resp.Valid)
				assert.Equal(t, fixedNow.Add(time.Hour), resp.ExpiresAt)
			} else {
				var resp api.Error
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, "/api/v1/auth", resp.Endpoint)
				assert.NotEmpty(t, resp.Error)
			}
			auth.AssertExpectations(t)
		})
	}
}

func TestTokenStatus(t *testing.T) {
	auth := new(mockAuth)
	auth.On("Status", mock.Anything).Return(domain.TokenStatus{Valid: true, ExpiresAt: fixedNow})

	rec := do(t, setupRouter(new(mockRunner), auth), http.MethodGet, "/api/v1/token-status", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true,"expiresAt":"2025-03-07T10:00:00Z"}`, rec.Body.String())
}

func TestListOwners(t *testing.T) {
	result := domain.RunResult{
		RunID:         "run-1",
		Mode:          domain.TagMode("system"),
		MinViolations: 2,
		Policies:      []domain.Violation{{Name: "Python - EOL", TotalAssets: 1}},
		Owners: []domain.OwnerSummary{{
			Owner:               "checkout",
			Count:               1,
			Violations:          2,
			ViolationTypes:      []string{"Python", "Node"},
			ViolationTypeCounts: map[string]int{"Python": 1, "Node": 1},
			Assets:              []domain.AssetRef{{Key: "a1", Label: "api (lambda)", ARN: "arn:1"}},
		}},
		Diagnostics: domain.Diagnostics{TotalViolatingAssets: 1, GovernancePages: 1},
	}

	tests := []struct {
		name           string
		body           string
		setupMock      func(*mockRunner)
		expectedStatus int
	}{
		{
			name: "tag mode with threshold",
			body: `{"mode":"tag","tagKey":"system","minViolations":2}`,
			setupMock: func(m *mockRunner) {
				m.On("Run", mock.Anything, pipeline.Request{Mode: domain.TagMode("system"), MinViolations: 2}).
					Return(result, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "defaults without body",
			body: "",
			setupMock: func(m *mockRunner) {
				m.On("Run", mock.Anything, pipeline.Request{Mode: domain.OwnerFieldMode(), MinViolations: 1}).
					Return(domain.RunResult{Mode: domain.OwnerFieldMode()}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown mode",
			body:           `{"mode":"team"}`,
			setupMock:      func(*mockRunner) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative threshold",
			body:           `{"minViolations":-1}`,
			setupMock:      func(*mockRunner) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "auth required",
			body: `{}`,
			setupMock: func(m *mockRunner) {
				m.On("Run", mock.Anything, mock.Anything).Return(domain.RunResult{}, domain.ErrAuthRequired)
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(mockRunner)
			tt.setupMock(runner)

			rec := do(t, setupRouter(runner, new(mockAuth)), http.MethodPost, "/api/v1/owners", tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			runner.AssertExpectations(t)
		})
	}

	t.Run("response shape", func(t *testing.T) {
		runner := new(mockRunner)
		runner.On("Run", mock.Anything, mock.Anything).Return(result, nil)

		rec := do(t, setupRouter(runner, new(mockAuth)), http.MethodPost, "/api/v1/owners", `{"mode":"tag:system"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp api.OwnersResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "run-1", resp.RunID)
		assert.Equal(t, "tag:system", resp.Mode)
		assert.Equal(t, 1, resp.UniqueOwners)
		assert.Equal(t, 1, resp.TotalViolations)
		require.Len(t, resp.Owners, 1)
		assert.Equal(t, []string{"api (lambda)"}, resp.Owners[0].ViolatingAssets)
		assert.Equal(t, []string{"arn:1"}, resp.Owners[0].AssetArns)
	})
}

func TestListPolicies(t *testing.T) {
	runner := new(mockRunner)
	runner.On("ListPolicies", mock.Anything).Return(pipeline.PolicyListing{
		Policies: []domain.Violation{{Name: "Node - EOL", Severity: "high", AssetTypes: []string{"lambda"}, TotalAssets: 3}},
		Pages:    1,
	}, nil)

	rec := do(t, setupRouter(runner, new(mockAuth)), http.MethodGet, "/api/v1/policies", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"policies": [{"name":"Node - EOL","severity":"high","total_assets":3,"type":["lambda"]}],
		"total": 1, "pages": 1, "incomplete": false
	}`, rec.Body.String())
}

func TestListInventory(t *testing.T) {
	runner := new(mockRunner)
	runner.On("ListInventory", mock.Anything, 50).Return(domain.InventoryListing{
		Assets:  []domain.Asset{{ID: "a1", Type: "lambda", Name: "api"}},
		Pages:   1,
		Limit:   50,
		HasMore: true,
	}, nil)

	rec := do(t, setupRouter(runner, new(mockAuth)), http.MethodPost, "/api/v1/inventory", `{"limit":50}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.InventoryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.TotalObjects)
	assert.True(t, resp.HasMore)
	assert.False(t, resp.PaginationComplete)
	runner.AssertExpectations(t)
}

func TestExport(t *testing.T) {
	owners := `[{"owner":"dev@example.com","count":1,"types":["lambda"],"violations":2,
		"violationTypes":["X - Upcoming","Y - Ended"],"violatingAssets":["api (lambda)"],"assetArns":["arn:1"]}]`

	t.Run("rows", func(t *testing.T) {
		rec := do(t, setupRouter(new(mockRunner), new(mockAuth)), http.MethodPost, "/api/v1/export",
			`{"ownersData":`+owners+`}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="eol-violations-2025-03-07.csv"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "Owner,Asset,ARN,Violation Type\n"+`"dev@example.com","api (lambda)","arn:1","Y - Ended"`, rec.Body.String())
	})

	t.Run("summary", func(t *testing.T) {
		rec := do(t, setupRouter(new(mockRunner), new(mockAuth)), http.MethodPost, "/api/v1/export",
			`{"format":"summary","ownersData":`+owners+`}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"dev@example.com","2","1","lambda","X - Upcoming; Y - Ended","api (lambda)"`)
	})

	t.Run("filtered out owners", func(t *testing.T) {
		rec := do(t, setupRouter(new(mockRunner), new(mockAuth)), http.MethodPost, "/api/v1/export",
			`{"selectedOwners":["other"],"ownersData":`+owners+`}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Owner,Asset,ARN,Violation Type", rec.Body.String())
	})

	t.Run("no data", func(t *testing.T) {
		rec := do(t, setupRouter(new(mockRunner), new(mockAuth)), http.MethodPost, "/api/v1/export", `{"ownersData":[]}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := do(t, setupRouter(new(mockRunner), new(mockAuth)), http.MethodPost, "/api/v1/export",
			`{"format":"xlsx","ownersData":`+owners+`}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNotify(t *testing.T) {
	owners := `[{"owner":"dev@example.com","count":1,"violations":1,"violationTypes":["Python"],
		"violatingAssets":["api (lambda)"],"assetArns":["arn:1"]}]`

	t.Run("demo dispatch", func(t *testing.T) {
		rec := do(t, setupRouter(new(mockRunner), new(mockAuth)), http.MethodPost, "/api/v1/notifications",
			`{"selectedOwners":["dev@example.com"],"ownersData":`+owners+`}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp api.NotificationResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 1, resp.Sent)
		require.Len(t, resp.Results, 1)
		assert.True(t, strings.HasPrefix(resp.Results[0].MessageID, "demo-"))
		assert.Equal(t, "dev@example.com", resp.Results[0].Recipient)
	})

	t.Run("request smtp config redirects", func(t *testing.T) {
		rec := do(t, setupRouter(new(mockRunner), new(mockAuth)), http.MethodPost, "/api/v1/notifications",
			`{"selectedOwners":["dev@example.com"],"ownersData":`+owners+`,"smtp":{"smtpHost":"smtp.example.com","smtpPort":25,"testEmail":"qa@example.com"}}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp api.NotificationResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "qa@example.com", resp.Results[0].Recipient)
	})

	t.Run("no owners selected", func(t *testing.T) {
		rec := do(t, setupRouter(new(mockRunner), new(mockAuth)), http.MethodPost, "/api/v1/notifications",
			`{"selectedOwners":[],"ownersData":`+owners+`}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
