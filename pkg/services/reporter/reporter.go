package reporter

import (
	"regexp"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
)

// severityOrder ranks violation type classes, most severe first. A class
// matches as a whole word so "Extended Support" is not an "ended" type.
var severityOrder = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bended\b`),
	regexp.MustCompile(`(?i)\bimminent\b`),
	regexp.MustCompile(`(?i)\bupcoming\b`),
}

// Flatten renders summaries into one row per (owner, asset). When filterKeys
// is non-empty only the listed owners are kept.
func Flatten(summaries []domain.OwnerSummary, filterKeys []string) []domain.Row {
	keep := keySet(filterKeys)

	var rows []domain.Row
	for _, s := range summaries {
		if keep != nil {
			if _, ok := keep[s.Owner]; !ok {
				continue
			}
		}
		representative := Representative(s.ViolationTypes)
		for _, a := range s.Assets {
			rows = append(rows, domain.Row{
				Owner:         s.Owner,
				Asset:         a.Label,
				ARN:           a.ARN,
				ViolationType: representative,
			})
		}
	}
	return rows
}

// Representative picks the violation type reported for every row of an
// owner: the first type naming the most severe class, else the first type.
func Representative(violationTypes []string) string {
	for _, class := range severityOrder {
		for _, vt := range violationTypes {
			if class.MatchString(vt) {
				return vt
			}
		}
	}
	if len(violationTypes) > 0 {
		return violationTypes[0]
	}
	return domain.UnknownViolationType
}

// SummaryRows renders one row per owner.
func SummaryRows(summaries []domain.OwnerSummary, filterKeys []string) []domain.SummaryRow {
	keep := keySet(filterKeys)

	rows := make([]domain.SummaryRow, 0, len(summaries))
	for _, s := range summaries {
		if keep != nil {
			if _, ok := keep[s.Owner]; !ok {
				continue
			}
		}
		rows = append(rows, domain.SummaryRow{
			Owner:           s.Owner,
			Violations:      s.Violations,
			AssetCount:      s.Count,
			AssetTypes:      s.Types,
			ViolationTypes:  s.ViolationTypes,
			ViolatingAssets: s.ViolatingAssets(),
		})
	}
	return rows
}

func keySet(keys []string) map[string]struct{} {
	if len(keys) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
