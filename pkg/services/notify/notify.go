package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/owner"
	"github.com/de-tools/governance-atlas/pkg/services/reporter"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const demoMessagePrefix = "demo-"

var (
	ErrNoOwnersSelected = errors.New("no owners selected")
	ErrNoRecipient      = errors.New("owner has no email address and no test recipient is configured")
)

const bodyTemplate = `Hello {{.Owner}},

The following assets you own are running end-of-life software.

Violations: {{.Violations}}
Assets:     {{.Count}}
Types:      {{join .ViolationTypes ", "}}
Priority:   {{representative .ViolationTypes}}

{{range .Assets}}- {{.Label}}{{if .ARN}}
  {{.ARN}}{{end}}
{{end}}
Please plan upgrades for these assets.
`

var body = template.Must(template.New("notification").Funcs(template.FuncMap{
	"join":           strings.Join,
	"representative": reporter.Representative,
}).Parse(bodyTemplate))

// Compose renders the message for one owner. The recipient is the owner key
// when it is an email address; cfg.TestEmail, when set, receives every
// message instead.
func Compose(cfg domain.SMTPConfig, summary domain.OwnerSummary) (domain.Notification, error) {
	recipient := cfg.TestEmail
	if recipient == "" && owner.IsEmail(summary.Owner) {
		recipient = summary.Owner
	}
	if recipient == "" {
		return domain.Notification{}, fmt.Errorf("%s: %w", summary.Owner, ErrNoRecipient)
	}

	var buf bytes.Buffer
	if err := body.Execute(&buf, summary); err != nil {
		return domain.Notification{}, fmt.Errorf("failed to render notification: %w", err)
	}

	return domain.Notification{
		Owner:     summary.Owner,
		Recipient: recipient,
		Subject:   fmt.Sprintf("EOL violations: %d across %d assets", summary.Violations, summary.Count),
		Body:      buf.String(),
	}, nil
}

// Preview composes messages for the selected owners in selection order.
func Preview(cfg domain.SMTPConfig, selected []string, summaries []domain.OwnerSummary) ([]domain.DeliveryResult, error) {
	if len(selected) == 0 {
		return nil, ErrNoOwnersSelected
	}
	byOwner := make(map[string]domain.OwnerSummary, len(summaries))
	for _, s := range summaries {
		byOwner[s.Owner] = s
	}

	results := make([]domain.DeliveryResult, 0, len(selected))
	for _, key := range selected {
		s, ok := byOwner[key]
		if !ok {
			results = append(results, domain.DeliveryResult{
				Notification: domain.Notification{Owner: key},
				Error:        "owner not found in report",
			})
			continue
		}
		n, err := Compose(cfg, s)
		if err != nil {
			results = append(results, domain.DeliveryResult{
				Notification: domain.Notification{Owner: key},
				Error:        err.Error(),
			})
			continue
		}
		results = append(results, domain.DeliveryResult{Notification: n})
	}
	return results, nil
}

// DemoDispatch marks every composable message as delivered without sending
// anything.
func DemoDispatch(ctx context.Context, cfg domain.SMTPConfig, selected []string, summaries []domain.OwnerSummary) ([]domain.DeliveryResult, error) {
	results, err := Preview(cfg, selected, summaries)
	if err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx)
	for i := range results {
		if results[i].Error != "" {
			logger.Warn().Str("owner", results[i].Owner).Str("reason", results[i].Error).Msg("notification skipped")
			continue
		}
		results[i].Success = true
		results[i].MessageID = demoMessagePrefix + uuid.NewString()
	}
	logger.Info().Int("total", len(results)).Msg("demo notifications prepared")
	return results, nil
}
