package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/reporter"
	"github.com/fatih/color"
)

type TableConfig struct {
	OwnerWidth      int
	CountWidth      int
	TypesWidth      int
	ViolationsWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		OwnerWidth:      36,
		CountWidth:      10,
		TypesWidth:      28,
		ViolationsWidth: 40,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

var (
	headerColor  = color.New(color.Bold)
	endedColor   = color.New(color.FgRed, color.Bold)
	soonColor    = color.New(color.FgYellow)
	warningColor = color.New(color.FgYellow)
)

const ownersTemplate = `
EOL violations by owner ({{.Mode}})
Run: {{.RunID}}  Started: {{.StartedAt.Format "2006-01-02 15:04:05"}}  Threshold: {{.MinViolations}}
Owners: {{len .Owners}}  Violating assets: {{.Diagnostics.TotalViolatingAssets}}  Policies: {{len .Policies}}
{{if .Diagnostics.Incomplete}}{{warn "Results are partial, see failures below."}}
{{end}}
{{separator}}
{{header "Owner" "Assets" "Asset Types" "Priority"}}
{{separator}}
{{range .Owners}}{{formatRow .Owner .Count (join .Types ", ") (representative .ViolationTypes)}}
{{end}}{{separator}}
{{range .Diagnostics.Failures}}{{warn (printf "! %s %s: %s" .Scope .Target .Reason)}}
{{end}}`

const policiesTemplate = `
EOL policies
{{separator}}
{{header "Policy" "Assets" "Asset Types" "Severity"}}
{{separator}}
{{range .}}{{formatRow .Name .TotalAssets (join .AssetTypes ", ") .Severity}}
{{end}}{{separator}}
`

const inventoryTemplate = `
Managed inventory ({{len .Assets}} assets, {{.Pages}} pages{{if .HasMore}}, more available{{end}})
{{separator}}
{{header "Asset" "Type" "Owner" "ARN"}}
{{separator}}
{{range .Assets}}{{formatRow .Name .Type .Owner .ARN}}
{{end}}{{separator}}
`

// Owners renders the per-owner table of a run.
func (c *Reporter) Owners(result domain.RunResult) error {
	return c.render("owners", ownersTemplate, result)
}

// Policies renders the policy listing.
func (c *Reporter) Policies(policies []domain.Violation) error {
	return c.render("policies", policiesTemplate, policies)
}

// Inventory renders a raw inventory listing.
func (c *Reporter) Inventory(listing domain.InventoryListing) error {
	return c.render("inventory", inventoryTemplate, listing)
}

// TokenStatus prints whether a usable token is cached.
func (c *Reporter) TokenStatus(status domain.TokenStatus) error {
	if !status.Valid {
		_, err := warningColor.Fprintln(c.writer, "No valid token. Run `atlas login`.")
		return err
	}
	_, err := fmt.Fprintf(c.writer, "Token valid until %s\n", status.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	return err
}

// Deliveries prints one line per notification outcome.
func (c *Reporter) Deliveries(results []domain.DeliveryResult) error {
	for _, r := range results {
		var err error
		if r.Success {
			_, err = fmt.Fprintf(c.writer, "sent    %-36s -> %s (%s)\n", r.Owner, r.Recipient, r.MessageID)
		} else {
			_, err = warningColor.Fprintf(c.writer, "skipped %-36s %s\n", r.Owner, r.Error)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Reporter) render(name, text string, data any) error {
	funcMap := template.FuncMap{
		"formatRow": func(a string, b any, d string, e string) string {
			return fmt.Sprintf("| %s | %-*v | %s | %s |",
				pad(a, c.config.OwnerWidth),
				c.config.CountWidth, b,
				pad(d, c.config.TypesWidth),
				c.priority(pad(e, c.config.ViolationsWidth)))
		},
		"header": func(a, b, d, e string) string {
			return headerColor.Sprintf("| %-*s | %-*s | %-*s | %-*s |",
				c.config.OwnerWidth, a,
				c.config.CountWidth, b,
				c.config.TypesWidth, d,
				c.config.ViolationsWidth, e)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.OwnerWidth+2),
				strings.Repeat("-", c.config.CountWidth+2),
				strings.Repeat("-", c.config.TypesWidth+2),
				strings.Repeat("-", c.config.ViolationsWidth+2))
		},
		"join":           strings.Join,
		"representative": reporter.Representative,
		"warn":           warningColor.Sprint,
	}

	t, err := template.New(name).Funcs(funcMap).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, data)
}

func (c *Reporter) priority(cell string) string {
	lower := strings.ToLower(cell)
	switch {
	case strings.Contains(lower, "ended"):
		return endedColor.Sprint(cell)
	case strings.Contains(lower, "imminent"), strings.Contains(lower, "upcoming"):
		return soonColor.Sprint(cell)
	default:
		return cell
	}
}

// pad truncates or right-pads s to width runes.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		if width <= 1 {
			return string(r[:width])
		}
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}

func (c *Reporter) Writer() io.Writer {
	return c.writer
}
