package aggregator

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
)

const syntheticKeyPrefix = "synthetic:"

// AssetKey is the deduplication identity of an asset: its identifier, else
// its name, else a stable hash of the remaining fields.
func AssetKey(asset domain.Asset) string {
	if id := strings.TrimSpace(asset.ID); id != "" {
		return id
	}
	if name := strings.TrimSpace(asset.Name); name != "" {
		return name
	}
	return syntheticKey(asset)
}

func syntheticKey(asset domain.Asset) string {
	h := xxhash.New()
	write := func(k, v string) {
		_, _ = h.WriteString(k)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(v)
		_, _ = h.WriteString("\x00")
	}

	write("arn", asset.ARN)
	write("resourceId", asset.ResourceID)
	write("provider", asset.Provider)
	write("region", asset.Region)
	write("owner", asset.Owner)
	for _, k := range sortedKeys(asset.Tags) {
		write("tag."+k, asset.Tags[k])
	}
	for _, k := range sortedKeys(asset.ResourceTags) {
		write("resourceTag."+k, asset.ResourceTags[k])
	}
	list := slices.Clone(asset.TagsList)
	slices.Sort(list)
	for _, entry := range list {
		write("tagsList", entry)
	}

	return fmt.Sprintf("%s%s:%016x", syntheticKeyPrefix, asset.Type, h.Sum64())
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

const (
	UnknownAssetName = "Unknown Asset"
	UnknownAssetType = "Unknown Type"
)

// AssetLabel renders an asset as "name (type)".
func AssetLabel(asset domain.Asset) string {
	name := cmp.Or(asset.Name, asset.ID, UnknownAssetName)
	return fmt.Sprintf("%s (%s)", name, cmp.Or(asset.Type, UnknownAssetType))
}

// AssetARN returns the ARN of an asset, falling back to its resource id.
func AssetARN(asset domain.Asset) string {
	if asset.ARN != "" {
		return asset.ARN
	}
	return asset.ResourceID
}
