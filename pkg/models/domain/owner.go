package domain

import "fmt"

type OwnerModeKind int

const (
	OwnerModeField OwnerModeKind = iota
	OwnerModeTag
)

// OwnerMode selects how owner keys are extracted from assets. It is chosen
// once per run.
type OwnerMode struct {
	Kind   OwnerModeKind
	TagKey string
}

func OwnerFieldMode() OwnerMode {
	return OwnerMode{Kind: OwnerModeField}
}

func TagMode(key string) OwnerMode {
	return OwnerMode{Kind: OwnerModeTag, TagKey: key}
}

func (m OwnerMode) String() string {
	if m.Kind == OwnerModeTag {
		return fmt.Sprintf("tag:%s", m.TagKey)
	}
	return "owner"
}
