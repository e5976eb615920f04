package adapters

import (
	"github.com/de-tools/governance-atlas/pkg/models/api"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
)

func MapOwnerSummaryDomainToApi(s domain.OwnerSummary) api.OwnerSummary {
	counts := make(map[string]int, len(s.ViolationTypeCounts))
	for k, v := range s.ViolationTypeCounts {
		counts[k] = v
	}
	return api.OwnerSummary{
		Owner:               s.Owner,
		Count:               s.Count,
		Types:               nonNil(s.Types),
		Violations:          s.Violations,
		ViolationTypes:      nonNil(s.ViolationTypes),
		ViolationTypeCounts: counts,
		ViolatingAssets:     s.ViolatingAssets(),
		AssetArns:           s.ARNs(),
	}
}

// MapOwnerSummaryApiToDomain rebuilds a summary posted back by a client.
// Labels and ARNs are paired by position; the shorter list is padded.
func MapOwnerSummaryApiToDomain(s api.OwnerSummary) domain.OwnerSummary {
	n := max(len(s.ViolatingAssets), len(s.AssetArns))
	assets := make([]domain.AssetRef, 0, n)
	for i := 0; i < n; i++ {
		ref := domain.AssetRef{}
		if i < len(s.ViolatingAssets) {
			ref.Label = s.ViolatingAssets[i]
		}
		if i < len(s.AssetArns) {
			ref.ARN = s.AssetArns[i]
		}
		assets = append(assets, ref)
	}
	counts := make(map[string]int, len(s.ViolationTypeCounts))
	for k, v := range s.ViolationTypeCounts {
		counts[k] = v
	}
	return domain.OwnerSummary{
		Owner:               s.Owner,
		Count:               s.Count,
		Types:               s.Types,
		Violations:          s.Violations,
		ViolationTypes:      s.ViolationTypes,
		ViolationTypeCounts: counts,
		Assets:              assets,
	}
}

func MapPolicyDomainToApi(v domain.Violation) api.Policy {
	return api.Policy{
		Name:        v.Name,
		Severity:    v.Severity,
		Category:    v.Category,
		TotalAssets: v.TotalAssets,
		Type:        nonNil(v.AssetTypes),
	}
}

func MapAssetDomainToApi(a domain.Asset) api.Asset {
	return api.Asset{
		AssetID:   a.ID,
		AssetType: a.Type,
		Name:      a.Name,
		Arn:       a.ARN,
		Owner:     a.Owner,
		Tags:      a.Tags,
	}
}

func MapRunResultDomainToApi(r domain.RunResult) api.OwnersResponse {
	res := api.OwnersResponse{
		RunID:                r.RunID,
		StartedAt:            r.StartedAt,
		DurationMs:           r.Duration.Milliseconds(),
		Mode:                 r.Mode.String(),
		Owners:               make([]api.OwnerSummary, 0, len(r.Owners)),
		TotalViolatingAssets: r.Diagnostics.TotalViolatingAssets,
		UniqueOwners:         len(r.Owners),
		TotalViolations:      len(r.Policies),
		GovernancePages:      r.Diagnostics.GovernancePages,
		FilteredOwners:       r.Diagnostics.FilteredOwners,
		DroppedAssets:        r.Diagnostics.DroppedAssets,
		MinViolations:        r.MinViolations,
		Incomplete:           r.Diagnostics.Incomplete,
		Violations:           make([]api.Policy, 0, len(r.Policies)),
	}
	for _, o := range r.Owners {
		res.Owners = append(res.Owners, MapOwnerSummaryDomainToApi(o))
	}
	for _, p := range r.Policies {
		res.Violations = append(res.Violations, MapPolicyDomainToApi(p))
	}
	for _, f := range r.Diagnostics.Failures {
		res.Failures = append(res.Failures, api.Failure{
			Scope:  string(f.Scope),
			Target: f.Target,
			Reason: f.Reason,
		})
	}
	return res
}

func MapSMTPConfigApiToDomain(c api.SMTPConfig) domain.SMTPConfig {
	return domain.SMTPConfig{
		Host:      c.Host,
		Port:      c.Port,
		User:      c.User,
		Password:  c.Password,
		From:      c.From,
		TestEmail: c.TestEmail,
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
