package ai

import "fmt"

// LoadReason classifies why the generator could not be loaded.
type LoadReason string

const (
	ReasonCheckpointMissing    LoadReason = "checkpoint_missing"
	ReasonCheckpointIncomplete LoadReason = "checkpoint_incomplete"
	ReasonBackendUnknown       LoadReason = "backend_unknown"
	ReasonBackendConfig        LoadReason = "backend_config"
	ReasonBackendInit          LoadReason = "backend_init"
)

// LoadError is returned when the generator cannot be brought up. Only the
// generation path is disabled; the rest of the service keeps running.
type LoadError struct {
	Reason LoadReason
	Path   string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load generator (%s, %s): %v", e.Reason, e.Path, e.Err)
	}
	return fmt.Sprintf("load generator (%s): %v", e.Reason, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
