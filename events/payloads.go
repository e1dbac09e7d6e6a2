package events

// ActorPayload describes a spawned or removed actor.
type ActorPayload struct {
	Kind string
	ID   string
	X, Y float64
}

// RejectedPayload describes a spawn that failed validation.
type RejectedPayload struct {
	Kind   string
	ID     string
	Reason string
}

// EatenPayload describes a consumable eaten by a swimmer.
type EatenPayload struct {
	SwimmerID string
	FoodID    string
	Health    int // health granted to the swimmer
}

// ReconciledPayload summarizes one reconciliation pass.
type ReconciledPayload struct {
	Mode           string // "merge" or "replace"
	Records        int
	Spawned        int
	Updated        int
	RemovedStale   int
	RemovedDead    int
	RemovalsIssued int
	Skipped        int
}

// RemovalPayload names a swimmer whose remote removal was requested.
type RemovalPayload struct {
	ID string
}

// SyncPayload describes a position push of the local avatar.
type SyncPayload struct {
	X, Y float64
}

// FailurePayload describes a failed remote call.
type FailurePayload struct {
	Op  string
	ID  string
	Err error
}
