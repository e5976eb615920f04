package domain

import "strings"

const (
	FrameworkEOL = "EOL"

	violationTypeSeparator = " - "
)

// Violation is a governance policy together with the number of assets it matches.
type Violation struct {
	Name        string
	Severity    string
	Category    string
	Badge       string
	AssetTypes  []string
	Frameworks  []string
	TotalAssets int
}

// TypeName returns the canonical violation type of the policy.
func (v Violation) TypeName() string {
	return ViolationType(v.Name)
}

// ViolationType strips the sub-classification from a policy name:
// "Python - EOL" becomes "Python".
func ViolationType(name string) string {
	if idx := strings.Index(name, violationTypeSeparator); idx >= 0 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}

type InsightsQuery struct {
	Frameworks         []string
	OnlyMatchingAssets bool
}

// EOLInsights is the query used to list end-of-life policies.
func EOLInsights() InsightsQuery {
	return InsightsQuery{
		Frameworks:         []string{FrameworkEOL},
		OnlyMatchingAssets: true,
	}
}
