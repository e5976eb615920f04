package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/models/store"
	"github.com/de-tools/governance-atlas/pkg/store/duckdb/token"
	"github.com/de-tools/governance-atlas/pkg/store/secret"
	"github.com/rs/zerolog"
)

type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.Token, error)
}

// CredentialsFunc returns the credentials used for automatic re-login.
type CredentialsFunc func(ctx context.Context) (domain.Credentials, error)

// Provider hands out a valid bearer token. It reuses the cached token while
// it is unexpired and logs in again when credentials are available.
type Provider struct {
	profile     string
	store       token.Store
	cipher      *secret.Cipher
	auth        Authenticator
	credentials CredentialsFunc
	now         func() time.Time

	mu     sync.Mutex
	cached *domain.Token
}

// NewProvider builds a provider. tokens and cipher may both be nil to keep
// the token in memory only.
func NewProvider(
	profile string,
	tokens token.Store,
	cipher *secret.Cipher,
	auth Authenticator,
	credentials CredentialsFunc,
) (*Provider, error) {
	if auth == nil {
		return nil, fmt.Errorf("authenticator is nil")
	}
	if tokens != nil && cipher == nil {
		return nil, fmt.Errorf("persisted tokens require a cipher")
	}
	return &Provider{
		profile:     profile,
		store:       tokens,
		cipher:      cipher,
		auth:        auth,
		credentials: credentials,
		now:         time.Now,
	}, nil
}

// AccessToken returns the bearer string of a valid token.
func (p *Provider) AccessToken(ctx context.Context) (string, error) {
	t, err := p.Token(ctx)
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

func (p *Provider) Token(ctx context.Context) (domain.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.current(ctx); ok {
		return t, nil
	}

	if p.credentials == nil {
		return domain.Token{}, domain.ErrAuthRequired
	}
	creds, err := p.credentials(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("no credentials for automatic login")
		return domain.Token{}, fmt.Errorf("%w: %v", domain.ErrAuthRequired, err)
	}
	return p.login(ctx, creds)
}

// Login exchanges credentials for a new token and caches it.
func (p *Provider) Login(ctx context.Context, creds domain.Credentials) (domain.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.login(ctx, creds)
}

// Status reports the cached token without logging in.
func (p *Provider) Status(ctx context.Context) domain.TokenStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.current(ctx)
	if !ok {
		return domain.TokenStatus{}
	}
	return domain.TokenStatus{Valid: true, ExpiresAt: t.ExpiresAt()}
}

// Invalidate forgets the cached token, for example after the upstream
// rejected it.
func (p *Provider) Invalidate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cached = nil
	if p.store == nil {
		return nil
	}
	return p.store.Delete(ctx, p.profile)
}

func (p *Provider) login(ctx context.Context, creds domain.Credentials) (domain.Token, error) {
	logger := zerolog.Ctx(ctx)

	t, err := p.auth.Login(ctx, creds)
	if err != nil {
		return domain.Token{}, err
	}
	p.cached = &t

	if err := p.persist(ctx, t); err != nil {
		logger.Warn().Err(err).Msg("failed to persist token, keeping it in memory")
	}
	logger.Info().Time("expires_at", t.ExpiresAt()).Msg("authenticated")
	return t, nil
}

func (p *Provider) current(ctx context.Context) (domain.Token, bool) {
	now := p.now()
	if p.cached != nil && !p.cached.Expired(now) {
		return *p.cached, true
	}

	t, err := p.load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrTokenNotFound) {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to load cached token")
		}
		return domain.Token{}, false
	}
	if t.Expired(now) {
		return domain.Token{}, false
	}
	p.cached = &t
	return t, true
}

func (p *Provider) persist(ctx context.Context, t domain.Token) error {
	if p.store == nil {
		return nil
	}
	payload, err := json.Marshal(store.TokenPayload{
		AccessToken: t.AccessToken,
		ExpiresIn:   int64(t.ExpiresIn / time.Second),
		CreatedAt:   t.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	sealed, err := p.cipher.Seal(payload)
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}
	now := p.now().UTC()
	return p.store.Save(ctx, store.TokenRecord{
		Profile:   p.profile,
		Payload:   sealed,
		CreatedAt: t.CreatedAt,
		UpdatedAt: now,
	})
}

func (p *Provider) load(ctx context.Context) (domain.Token, error) {
	if p.store == nil {
		return domain.Token{}, domain.ErrTokenNotFound
	}
	record, err := p.store.Load(ctx, p.profile)
	if err != nil {
		return domain.Token{}, err
	}
	plain, err := p.cipher.Open(record.Payload)
	if err != nil {
		return domain.Token{}, fmt.Errorf("open token: %w", err)
	}
	var payload store.TokenPayload
	if err := json.Unmarshal(plain, &payload); err != nil {
		return domain.Token{}, fmt.Errorf("decode token: %w", err)
	}
	return domain.Token{
		AccessToken: payload.AccessToken,
		ExpiresIn:   time.Duration(payload.ExpiresIn) * time.Second,
		CreatedAt:   time.UnixMilli(payload.CreatedAt).UTC(),
	}, nil
}
