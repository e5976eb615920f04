package adapters

import (
	"github.com/de-tools/governance-atlas/pkg/models/api"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
)

func MapInventoryListingDomainToApi(l domain.InventoryListing) api.InventoryResponse {
	res := api.InventoryResponse{
		ResponseObjects:    make([]api.Asset, 0, len(l.Assets)),
		TotalObjects:       len(l.Assets),
		PaginationComplete: l.Complete,
		PagesFetched:       l.Pages,
		Limit:              l.Limit,
		HasMore:            l.HasMore,
	}
	for _, a := range l.Assets {
		res.ResponseObjects = append(res.ResponseObjects, MapAssetDomainToApi(a))
	}
	return res
}

func MapPoliciesDomainToApi(policies []domain.Violation, pages int, incomplete bool) api.PoliciesResponse {
	res := api.PoliciesResponse{
		Policies:   make([]api.Policy, 0, len(policies)),
		Total:      len(policies),
		Pages:      pages,
		Incomplete: incomplete,
	}
	for _, p := range policies {
		res.Policies = append(res.Policies, MapPolicyDomainToApi(p))
	}
	return res
}

func MapTokenStatusDomainToApi(s domain.TokenStatus) api.TokenStatus {
	res := api.TokenStatus{Valid: s.Valid}
	if s.Valid {
		expiresAt := s.ExpiresAt
		res.ExpiresAt = &expiresAt
	}
	return res
}

func MapDeliveryResultsDomainToApi(results []domain.DeliveryResult) api.NotificationResponse {
	res := api.NotificationResponse{
		Results: make([]api.NotificationResult, 0, len(results)),
		Total:   len(results),
		Errors:  []string{},
	}
	for _, r := range results {
		res.Results = append(res.Results, api.NotificationResult{
			Owner:     r.Owner,
			Recipient: r.Recipient,
			Subject:   r.Subject,
			Success:   r.Success,
			MessageID: r.MessageID,
			Error:     r.Error,
		})
		if r.Success {
			res.Sent++
		} else {
			res.Errors = append(res.Errors, r.Owner+": "+r.Error)
		}
	}
	res.Success = res.Sent > 0
	return res
}
