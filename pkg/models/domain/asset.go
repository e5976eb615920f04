package domain

const AssetStateManaged = "managed"

// Asset is a managed cloud resource as returned by the inventory.
type Asset struct {
	ID         string
	Type       string
	Name       string
	ARN        string
	ResourceID string
	Provider   string
	Region     string
	Owner      string
	// Tags is the direct tag map, ResourceTags the one nested in the resource body.
	Tags         map[string]string
	ResourceTags map[string]string
	// TagsList holds raw "key: value" entries.
	TagsList []string
}

// AnnotatedAsset pairs an inventory asset with the policies it was fetched for.
// The asset itself is never modified.
type AnnotatedAsset struct {
	Asset      Asset
	Violations []Violation
}

type InventoryFilters struct {
	AssetState string
	AssetTypes []string
	Size       int
	Governance string
}

// ManagedInventory returns the filters used for plain inventory listings.
func ManagedInventory() InventoryFilters {
	return InventoryFilters{AssetState: AssetStateManaged}
}
