package adapters

import (
	"encoding/json"
	"strings"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/models/store"
)

func MapInventoryAssetStoreToDomain(a store.InventoryAsset) domain.Asset {
	asset := domain.Asset{
		ID:         a.AssetID,
		Type:       a.AssetType,
		Name:       a.Name,
		ARN:        a.Arn,
		ResourceID: a.ResourceID,
		Provider:   a.Provider,
		Region:     a.Region,
		Owner:      string(a.Owner),
		Tags:       mapFlexTags(a.Tags),
	}
	if a.TfObject != nil {
		asset.ResourceTags = mapFlexTags(a.TfObject.Tags)
	}
	if len(a.TagsList) > 0 {
		asset.TagsList = append([]string(nil), a.TagsList...)
	}
	return asset
}

func MapPolicyStoreToDomain(p store.Policy) domain.Violation {
	return domain.Violation{
		Name:        p.Name,
		Severity:    string(p.Severity),
		Category:    string(p.Category),
		Badge:       string(p.Badge),
		AssetTypes:  append([]string(nil), p.Type...),
		Frameworks:  append([]string(nil), p.Frameworks...),
		TotalAssets: p.TotalAssets,
	}
}

func MapInventoryFiltersDomainToStore(f domain.InventoryFilters, cursor string) store.InventoryRequest {
	return store.InventoryRequest{
		AssetState: f.AssetState,
		AssetTypes: f.AssetTypes,
		Size:       f.Size,
		Governance: f.Governance,
		AfterKey:   cursorToRaw(cursor),
	}
}

func MapInsightsQueryDomainToStore(q domain.InsightsQuery, cursor string) store.InsightsRequest {
	return store.InsightsRequest{
		Frameworks:         q.Frameworks,
		OnlyMatchingAssets: q.OnlyMatchingAssets,
		AfterKey:           cursorToRaw(cursor),
	}
}

// CursorFromRaw turns an upstream continuation key into an opaque cursor.
// Absent, null and empty-string keys end the pagination.
func CursorFromRaw(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "null", `""`, "{}", "[]":
		return ""
	}
	return s
}

func cursorToRaw(cursor string) json.RawMessage {
	if cursor == "" {
		return nil
	}
	return json.RawMessage(cursor)
}

func mapFlexTags(tags map[string]store.FlexString) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	res := make(map[string]string, len(tags))
	for k, v := range tags {
		res[k] = string(v)
	}
	return res
}
