package firefly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/de-tools/governance-atlas/pkg/adapters"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/models/store"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.firefly.ai"

	loginPath     = "/v2/login"
	inventoryPath = "/api/v1.0/inventory"
	insightsPath  = "/v2/governance/insights"

	maxErrorBody = 512
)

func DefaultSettings() domain.UpstreamSettings {
	return domain.UpstreamSettings{
		BaseURL:           DefaultBaseURL,
		Timeout:           60 * time.Second,
		RetryMax:          3,
		RequestsPerSecond: 5,
	}
}

// TokenSource supplies the bearer token for upstream calls.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client talks to the governance API. Login needs no token; inventory and
// insights calls go through a Session.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	limiter *rate.Limiter
	now     func() time.Time
}

func NewClient(settings domain.UpstreamSettings, logger zerolog.Logger) *Client {
	if settings.BaseURL == "" {
		settings.BaseURL = DefaultBaseURL
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = settings.RetryMax
	httpClient.RetryWaitMin = 250 * time.Millisecond
	httpClient.RetryWaitMax = 5 * time.Second
	httpClient.Logger = leveledLogger{logger: logger.With().Str("component", "firefly").Logger()}
	if settings.Timeout > 0 {
		httpClient.HTTPClient.Timeout = settings.Timeout
	}

	limit := rate.Inf
	if settings.RequestsPerSecond > 0 {
		limit = rate.Limit(settings.RequestsPerSecond)
	}

	return &Client{
		baseURL: strings.TrimRight(settings.BaseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.Token, error) {
	if creds.Empty() {
		return domain.Token{}, domain.ErrNoCredentials
	}

	var resp store.LoginResponse
	err := c.do(ctx, http.MethodPost, loginPath, "", store.LoginRequest{
		AccessKey: creds.AccessKey,
		SecretKey: creds.SecretKey,
	}, &resp)
	if err != nil {
		return domain.Token{}, fmt.Errorf("login: %w", err)
	}
	if resp.AccessToken == "" {
		return domain.Token{}, fmt.Errorf("login: empty access token in response")
	}

	return domain.Token{
		AccessToken: resp.AccessToken,
		ExpiresIn:   time.Duration(resp.ExpiresAt) * time.Second,
		CreatedAt:   c.now().UTC(),
	}, nil
}

// Session binds the client to a token source.
func (c *Client) Session(tokens TokenSource) *Session {
	return &Session{client: c, tokens: tokens}
}

type Session struct {
	client *Client
	tokens TokenSource
}

func (s *Session) FetchInventoryPage(
	ctx context.Context,
	filters domain.InventoryFilters,
	cursor string,
) (domain.Page[domain.Asset], error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return domain.Page[domain.Asset]{}, err
	}

	var resp store.InventoryResponse
	req := adapters.MapInventoryFiltersDomainToStore(filters, cursor)
	if err := s.client.do(ctx, http.MethodPost, inventoryPath, token, req, &resp); err != nil {
		return domain.Page[domain.Asset]{}, fmt.Errorf("inventory: %w", err)
	}

	items := make([]domain.Asset, 0, len(resp.ResponseObjects))
	for _, a := range resp.ResponseObjects {
		items = append(items, adapters.MapInventoryAssetStoreToDomain(a))
	}
	return domain.Page[domain.Asset]{
		Items:      items,
		NextCursor: adapters.CursorFromRaw(resp.AfterKey),
	}, nil
}

func (s *Session) FetchGovernanceInsights(
	ctx context.Context,
	query domain.InsightsQuery,
	cursor string,
) (domain.Page[domain.Violation], error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return domain.Page[domain.Violation]{}, err
	}

	var resp store.InsightsResponse
	req := adapters.MapInsightsQueryDomainToStore(query, cursor)
	if err := s.client.do(ctx, http.MethodPost, insightsPath, token, req, &resp); err != nil {
		return domain.Page[domain.Violation]{}, fmt.Errorf("governance insights: %w", err)
	}

	items := make([]domain.Violation, 0, len(resp.Hits))
	for _, p := range resp.Hits {
		items = append(items, adapters.MapPolicyStoreToDomain(p))
	}
	return domain.Page[domain.Violation]{
		Items:      items,
		NextCursor: adapters.CursorFromRaw(resp.AfterKey),
	}, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: upstream returned %d", domain.ErrAuthRequired, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
