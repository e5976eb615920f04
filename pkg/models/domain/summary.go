package domain

// AssetRef is one distinct asset inside an owner summary.
type AssetRef struct {
	Key   string
	Label string // "name (type)"
	ARN   string
}

// OwnerSummary aggregates the violating assets of one owner key.
type OwnerSummary struct {
	Owner               string
	Count               int
	Types               []string
	Violations          int
	ViolationTypes      []string
	ViolationTypeCounts map[string]int
	// Assets keeps labels and ARNs in the same order, one entry per asset key.
	Assets []AssetRef
}

// ViolatingAssets returns the display labels in asset order.
func (s OwnerSummary) ViolatingAssets() []string {
	labels := make([]string, 0, len(s.Assets))
	for _, a := range s.Assets {
		labels = append(labels, a.Label)
	}
	return labels
}

// ARNs returns the asset ARNs in asset order.
func (s OwnerSummary) ARNs() []string {
	arns := make([]string, 0, len(s.Assets))
	for _, a := range s.Assets {
		arns = append(arns, a.ARN)
	}
	return arns
}
