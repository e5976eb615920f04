package governance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/de-tools/governance-atlas/pkg/adapters"
	"github.com/de-tools/governance-atlas/pkg/models/api"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/notify"
	"github.com/de-tools/governance-atlas/pkg/services/owner"
	"github.com/de-tools/governance-atlas/pkg/services/pipeline"
	"github.com/de-tools/governance-atlas/pkg/services/reporter"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const exportPrefix = "eol-violations"

type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (domain.RunResult, error)
	ListPolicies(ctx context.Context) (pipeline.PolicyListing, error)
	ListInventory(ctx context.Context, limit int) (domain.InventoryListing, error)
	DefaultRequest() pipeline.Request
}

type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.Token, error)
	Status(ctx context.Context) domain.TokenStatus
}

type Handler struct {
	runner Runner
	auth   Authenticator
	smtp   domain.SMTPConfig
	now    func() time.Time
}

// NewHandler builds the governance handler. smtp is the default relay
// configuration; requests may supply their own.
func NewHandler(runner Runner, auth Authenticator, smtp domain.SMTPConfig) *Handler {
	return &Handler{
		runner: runner,
		auth:   auth,
		smtp:   smtp,
		now:    time.Now,
	}
}

// Register mounts the governance routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth", h.Authenticate)
	r.Get("/token-status", h.TokenStatus)
	r.Get("/policies", h.ListPolicies)
	r.Post("/inventory", h.ListInventory)
	r.Post("/owners", h.ListOwners)
	r.Post("/export", h.Export)
	r.Post("/notifications", h.Notify)
}

func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	creds := domain.Credentials{AccessKey: req.AccessKey, SecretKey: req.SecretKey}
	if creds.Empty() {
		h.writeError(w, r, http.StatusBadRequest, errors.New("accessKey and secretKey are required"))
		return
	}

	token, err := h.auth.Login(ctx, creds)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, api.AuthResponse{Valid: true, ExpiresAt: token.ExpiresAt()})
}

func (h *Handler) TokenStatus(w http.ResponseWriter, r *http.Request) {
	status := h.auth.Status(r.Context())
	h.writeJSON(w, r, http.StatusOK, adapters.MapTokenStatusDomainToApi(status))
}

func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	listing, err := h.runner.ListPolicies(r.Context())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, adapters.MapPoliciesDomainToApi(listing.Policies, listing.Pages, listing.Incomplete()))
}

func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	var req api.InventoryRequest
	if err := decodeOptional(r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if req.Limit < 0 {
		h.writeError(w, r, http.StatusBadRequest, errors.New("limit must not be negative"))
		return
	}

	listing, err := h.runner.ListInventory(r.Context(), req.Limit)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, adapters.MapInventoryListingDomainToApi(listing))
}

func (h *Handler) ListOwners(w http.ResponseWriter, r *http.Request) {
	var req api.OwnersRequest
	if err := decodeOptional(r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	run := h.runner.DefaultRequest()
	if req.Mode != "" || req.TagKey != "" {
		mode, err := owner.ParseMode(req.Mode, req.TagKey)
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		run.Mode = mode
	}
	if req.MinViolations != nil {
		if *req.MinViolations < 0 {
			h.writeError(w, r, http.StatusBadRequest, errors.New("minViolations must not be negative"))
			return
		}
		run.MinViolations = *req.MinViolations
	}

	result, err := h.runner.Run(r.Context(), run)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, adapters.MapRunResultDomainToApi(result))
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req api.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(req.Owners) == 0 {
		h.writeError(w, r, http.StatusBadRequest, errors.New("no data to export"))
		return
	}

	summaries := make([]domain.OwnerSummary, 0, len(req.Owners))
	for _, o := range req.Owners {
		summaries = append(summaries, adapters.MapOwnerSummaryApiToDomain(o))
	}

	var buf bytes.Buffer
	var err error
	switch req.Format {
	case "", api.ExportFormatRows:
		err = reporter.WriteRowsCSV(&buf, reporter.Flatten(summaries, req.FilterKeys))
	case api.ExportFormatSummary:
		err = reporter.WriteSummaryCSV(&buf, reporter.SummaryRows(summaries, req.FilterKeys))
	default:
		h.writeError(w, r, http.StatusBadRequest, fmt.Errorf("unsupported export format %q", req.Format))
		return
	}
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, reporter.Filename(exportPrefix, h.now())))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write export")
	}
}

func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.NotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	cfg := h.smtp
	if req.SMTP != nil {
		cfg = adapters.MapSMTPConfigApiToDomain(*req.SMTP)
	}
	summaries := make([]domain.OwnerSummary, 0, len(req.Owners))
	for _, o := range req.Owners {
		summaries = append(summaries, adapters.MapOwnerSummaryApiToDomain(o))
	}

	results, err := notify.DemoDispatch(ctx, cfg, req.SelectedOwners, summaries)
	if errors.Is(err, notify.ErrNoOwnersSelected) {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, adapters.MapDeliveryResultsDomainToApi(results))
}

func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrAuthRequired) || errors.Is(err, domain.ErrNoCredentials) {
		status = http.StatusUnauthorized
	}
	h.writeError(w, r, status, err)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	} else {
		logger.Warn().Err(err).Int("status", status).Msg("request rejected")
	}
	h.writeJSON(w, r, status, api.Error{
		Error:     err.Error(),
		Timestamp: h.now().UTC(),
		Endpoint:  r.URL.Path,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}
