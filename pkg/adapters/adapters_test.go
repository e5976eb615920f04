package adapters

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/api"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/models/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorFromRaw(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: ""},
		{raw: "null", want: ""},
		{raw: `""`, want: ""},
		{raw: "{}", want: ""},
		{raw: "[]", want: ""},
		{raw: `"abc"`, want: `"abc"`},
		{raw: ` ["k", 3] `, want: `["k", 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CursorFromRaw(json.RawMessage(tt.raw)))
		})
	}
}

func TestMapInventoryAssetStoreToDomain(t *testing.T) {
	var a store.InventoryAsset
	require.NoError(t, json.Unmarshal([]byte(`{
		"assetId": "a1", "assetType": "lambda", "name": "api", "owner": null,
		"tags": {"system": "checkout", "replicas": 3, "public": false},
		"tfObject": {"tags": {"team": "payments"}},
		"tagsList": ["env: prod"]
	}`), &a))

	got := MapInventoryAssetStoreToDomain(a)

	assert.Equal(t, "a1", got.ID)
	assert.Empty(t, got.Owner)
	assert.Equal(t, map[string]string{"system": "checkout", "replicas": "3", "public": "false"}, got.Tags)
	assert.Equal(t, map[string]string{"team": "payments"}, got.ResourceTags)
	assert.Equal(t, []string{"env: prod"}, got.TagsList)
}

func TestMapInventoryFiltersDomainToStore(t *testing.T) {
	req := MapInventoryFiltersDomainToStore(domain.InventoryFilters{AssetState: "managed", Size: 5}, `{"after":1}`)
	body, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"assetState":"managed","size":5,"afterKey":{"after":1}}`, string(body))

	first, err := json.Marshal(MapInventoryFiltersDomainToStore(domain.ManagedInventory(), ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"assetState":"managed"}`, string(first))
}

func TestOwnerSummaryRoundTrip(t *testing.T) {
	s := domain.OwnerSummary{
		Owner:               "checkout",
		Count:               2,
		Types:               []string{"lambda"},
		Violations:          2,
		ViolationTypes:      []string{"Python"},
		ViolationTypeCounts: map[string]int{"Python": 2},
		Assets: []domain.AssetRef{
			{Key: "api (lambda)#0", Label: "api (lambda)", ARN: "arn:1"},
			{Key: "api (lambda)#1", Label: "api (lambda)", ARN: "arn:2"},
		},
	}

	out := MapOwnerSummaryDomainToApi(s)
	assert.Equal(t, []string{"api (lambda)", "api (lambda)"}, out.ViolatingAssets)
	assert.Equal(t, []string{"arn:1", "arn:2"}, out.AssetArns)

	back := MapOwnerSummaryApiToDomain(out)
	assert.Equal(t, s.ViolatingAssets(), back.ViolatingAssets())
	assert.Equal(t, s.ARNs(), back.ARNs())
}

func TestMapOwnerSummaryApiToDomain_UnevenLists(t *testing.T) {
	back := MapOwnerSummaryApiToDomain(api.OwnerSummary{
		Owner:           "team",
		ViolatingAssets: []string{"a (x)", "b (x)"},
		AssetArns:       []string{"arn:a"},
	})

	assert.Equal(t, []string{"a (x)", "b (x)"}, back.ViolatingAssets())
	assert.Equal(t, []string{"arn:a", ""}, back.ARNs())
}

func TestMapTokenStatusDomainToApi(t *testing.T) {
	assert.Nil(t, MapTokenStatusDomainToApi(domain.TokenStatus{}).ExpiresAt)

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got := MapTokenStatusDomainToApi(domain.TokenStatus{Valid: true, ExpiresAt: at})
	require.NotNil(t, got.ExpiresAt)
	assert.Equal(t, at, *got.ExpiresAt)
}

func TestMapDeliveryResultsDomainToApi(t *testing.T) {
	res := MapDeliveryResultsDomainToApi([]domain.DeliveryResult{
		{Notification: domain.Notification{Owner: "a"}, Success: true, MessageID: "demo-1"},
		{Notification: domain.Notification{Owner: "b"}, Error: "no recipient"},
	})

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, []string{"b: no recipient"}, res.Errors)
}
