package controller

// ConflictMode decides what the backfill does when a namespace already
// belongs to a different project than the one its name maps to.
type ConflictMode string

const (
	// ConflictModeOverwrite reassigns the namespace, like the admission webhook does.
	ConflictModeOverwrite ConflictMode = "overwrite"
	// ConflictModeWarn leaves the namespace alone and emits a Warning event.
	ConflictModeWarn ConflictMode = "warn"
	// ConflictModeSkip leaves the namespace alone and only logs.
	ConflictModeSkip ConflictMode = "skip"
)

// Event reasons emitted on namespaces.
const (
	ReasonProjectAssigned   = "ProjectAssigned"
	ReasonProjectReassigned = "ProjectReassigned"
	ReasonProjectConflict   = "ProjectConflict"
)

// DefaultExcludedNamespaces are never touched by the backfill unless the
// exclusion list is overridden.
var DefaultExcludedNamespaces = []string{"kube-system", "kube-public", "kube-node-lease"}

// ConflictResult represents the result of comparing the current and the desired project
type ConflictResult struct {
	Apply    bool
	Conflict bool
	Message  string
}
