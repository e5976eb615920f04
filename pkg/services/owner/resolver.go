package owner

import (
	"fmt"
	"strings"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
)

// DefaultTagKey is used when tag mode is selected without a key.
const DefaultTagKey = "system"

// Resolver extracts a validated owner key from assets using one strategy.
type Resolver struct {
	mode domain.OwnerMode
}

func NewResolver(mode domain.OwnerMode) (*Resolver, error) {
	if mode.Kind == domain.OwnerModeTag && strings.TrimSpace(mode.TagKey) == "" {
		return nil, fmt.Errorf("tag owner mode requires a tag key")
	}
	if mode.Kind != domain.OwnerModeTag && mode.Kind != domain.OwnerModeField {
		return nil, fmt.Errorf("unknown owner mode: %d", mode.Kind)
	}
	return &Resolver{mode: mode}, nil
}

func (r *Resolver) Mode() domain.OwnerMode {
	return r.mode
}

// Resolve returns the owner key of an asset, or false when the asset has no
// usable owner.
func (r *Resolver) Resolve(asset domain.Asset) (string, bool) {
	if r.mode.Kind == domain.OwnerModeTag {
		return resolveTag(asset, r.mode.TagKey)
	}
	return resolveOwnerField(asset)
}

func resolveOwnerField(asset domain.Asset) (string, bool) {
	owner := strings.TrimSpace(asset.Owner)
	if owner == "" || !IsEmail(owner) {
		return "", false
	}
	return owner, true
}

func resolveTag(asset domain.Asset, key string) (string, bool) {
	value, ok := LookupTag(asset, key)
	if !ok || !ValidTagValue(value) {
		return "", false
	}
	return value, true
}

// LookupTag finds the first non-empty value for key in the direct tag map,
// the resource tag map and the tag list, in that order.
func LookupTag(asset domain.Asset, key string) (string, bool) {
	if v := strings.TrimSpace(asset.Tags[key]); v != "" {
		return v, true
	}
	if v := strings.TrimSpace(asset.ResourceTags[key]); v != "" {
		return v, true
	}
	for _, entry := range asset.TagsList {
		k, v, found := strings.Cut(entry, ":")
		if !found || strings.TrimSpace(k) != key {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, true
		}
	}
	return "", false
}

// ParseMode reads "owner", "tag" or "tag:<key>". The tag key keeps its case.
func ParseMode(mode, tagKey string) (domain.OwnerMode, error) {
	kind, key, hasKey := strings.Cut(strings.TrimSpace(mode), ":")
	if hasKey {
		tagKey = key
	}
	switch strings.ToLower(kind) {
	case "", "owner", "owner-field", "email":
		return domain.OwnerFieldMode(), nil
	case "tag":
		tagKey = strings.TrimSpace(tagKey)
		if tagKey == "" {
			tagKey = DefaultTagKey
		}
		return domain.TagMode(tagKey), nil
	default:
		return domain.OwnerMode{}, fmt.Errorf("unsupported owner mode %q", mode)
	}
}
