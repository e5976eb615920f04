package domain

import "time"

type FailureScope string

const (
	FailureScopeGovernance FailureScope = "governance"
	FailureScopeInventory  FailureScope = "inventory"
	FailureScopePolicy     FailureScope = "policy"
	FailureScopeGroup      FailureScope = "group"
)

// FetchFailure records a unit of work that was skipped during a run.
type FetchFailure struct {
	Scope  FailureScope
	Target string
	Reason string
}

type Diagnostics struct {
	GovernancePages      int
	PoliciesProcessed    int
	Incomplete           bool
	Failures             []FetchFailure
	DroppedAssets        int
	FilteredOwners       int
	TotalViolatingAssets int
}

// RunResult is the outcome of one pipeline run.
type RunResult struct {
	RunID         string
	StartedAt     time.Time
	Duration      time.Duration
	Mode          OwnerMode
	MinViolations int
	Policies      []Violation
	Owners        []OwnerSummary
	Diagnostics   Diagnostics
}

// InventoryListing is a bounded raw listing of managed assets.
type InventoryListing struct {
	Assets   []Asset
	Pages    int
	Limit    int
	HasMore  bool
	Complete bool
}
