package api

import "time"

type OwnersRequest struct {
	MinViolations *int   `json:"minViolations,omitempty"`
	Mode          string `json:"mode,omitempty"`
	TagKey        string `json:"tagKey,omitempty"`
}

type OwnerSummary struct {
	Owner               string         `json:"owner"`
	Count               int            `json:"count"`
	Types               []string       `json:"types"`
	Violations          int            `json:"violations"`
	ViolationTypes      []string       `json:"violationTypes"`
	ViolationTypeCounts map[string]int `json:"violationTypeCounts"`
	ViolatingAssets     []string       `json:"violatingAssets"`
	AssetArns           []string       `json:"assetArns"`
}

type Policy struct {
	Name        string   `json:"name"`
	Severity    string   `json:"severity"`
	Category    string   `json:"category,omitempty"`
	TotalAssets int      `json:"total_assets"`
	Type        []string `json:"type"`
}

type Failure struct {
	Scope  string `json:"scope"`
	Target string `json:"target"`
	Reason string `json:"reason"`
}

type OwnersResponse struct {
	RunID                string         `json:"runId"`
	StartedAt            time.Time      `json:"startedAt"`
	DurationMs           int64          `json:"durationMs"`
	Mode                 string         `json:"mode"`
	Owners               []OwnerSummary `json:"owners"`
	TotalViolatingAssets int            `json:"totalViolatingAssets"`
	UniqueOwners         int            `json:"uniqueOwners"`
	TotalViolations      int            `json:"totalViolations"`
	GovernancePages      int            `json:"governancePages"`
	FilteredOwners       int            `json:"filteredOwners"`
	DroppedAssets        int            `json:"droppedAssets"`
	MinViolations        int            `json:"minViolations"`
	Incomplete           bool           `json:"incomplete"`
	Failures             []Failure      `json:"failures,omitempty"`
	Violations           []Policy       `json:"violations"`
}

type PoliciesResponse struct {
	Policies   []Policy `json:"policies"`
	Total      int      `json:"total"`
	Pages      int      `json:"pages"`
	Incomplete bool     `json:"incomplete"`
}

type InventoryRequest struct {
	Limit int `json:"limit,omitempty"`
}

type Asset struct {
	AssetID   string            `json:"assetId"`
	AssetType string            `json:"assetType"`
	Name      string            `json:"name"`
	Arn       string            `json:"arn,omitempty"`
	Owner     string            `json:"owner,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
}

type InventoryResponse struct {
	ResponseObjects    []Asset `json:"responseObjects"`
	TotalObjects       int     `json:"totalObjects"`
	PaginationComplete bool    `json:"paginationComplete"`
	PagesFetched       int     `json:"pagesFetched"`
	Limit              int     `json:"limit"`
	HasMore            bool    `json:"hasMore"`
}

type ExportFormat string

const (
	ExportFormatRows    ExportFormat = "rows"
	ExportFormatSummary ExportFormat = "summary"
)

type ExportRequest struct {
	Owners     []OwnerSummary `json:"ownersData"`
	FilterKeys []string       `json:"selectedOwners,omitempty"`
	Format     ExportFormat   `json:"format,omitempty"`
}
