package uninstall

import "fmt"

// Start transitions PENDING -> PREPARED. Idempotent: calling it on an
// already-PREPARED (or further along) step is a no-op.
func (s *Step) Start() {
	if s.Status == StatusPending {
		s.Status = StatusPrepared
	}
}

// Submit transitions PREPARED -> STARTING, recording that an operation has
// been handed to the driver.
func (s *Step) Submit() error {
	if s.Status != StatusPrepared {
		return fmt.Errorf("uninstall: step %s: submit requires PREPARED, got %s", s.Name, s.Status)
	}
	s.Status = StatusStarting
	return nil
}

// Confirm moves the step to COMPLETE from any status once its effect has
// been observed: kill steps are confirmed from STARTING, while release
// steps, which have no submit leg, are confirmed from PREPARED. Once
// COMPLETE a step never leaves it (I4).
func (s *Step) Confirm() {
	if s.Status == StatusComplete {
		return
	}
	s.Status = StatusComplete
}

// Fail moves the step to ERROR from any non-terminal status. ERROR steps
// retry as PENDING on the coordinator's next candidate-selection tick (see
// ResetIfError), not immediately.
func (s *Step) Fail() {
	if s.Status == StatusComplete {
		return
	}
	s.Status = StatusError
}

// ResetIfError moves an ERROR step back to PENDING. The coordinator calls
// this once per tick before computing candidates, which is what makes
// ERROR retryable on the next tick rather than a permanent dead end.
func (s *Step) ResetIfError() {
	if s.Status == StatusError {
		s.Status = StatusPending
	}
}

// Candidate reports whether s is eligible for work this tick: only PENDING
// and PREPARED steps are candidates.
func (s *Step) Candidate() bool {
	return s.Status == StatusPending || s.Status == StatusPrepared
}
