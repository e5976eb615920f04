package domain

const UnknownViolationType = "Unknown"

// Row is one (owner, asset) line of the flat export.
type Row struct {
	Owner         string
	Asset         string
	ARN           string
	ViolationType string
}

// SummaryRow is one owner line of the summary export.
type SummaryRow struct {
	Owner           string
	Violations      int
	AssetCount      int
	AssetTypes      []string
	ViolationTypes  []string
	ViolatingAssets []string
}
