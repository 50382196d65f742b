package domain

// RunState is the scheduler's lifecycle state.
type RunState string

const (
	StateIdle     RunState = "idle"
	StateRunning  RunState = "running"
	StateStopping RunState = "stopping" // run flag cleared, current cycle still executing
)
