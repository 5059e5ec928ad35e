package api

import "errors"

// stopTrainingError is returned by hooks or step runners that want to end
// the run gracefully before the epoch range is exhausted.
type stopTrainingError struct {
	Reason string
}

func (e *stopTrainingError) Error() string {
	if e.Reason == "" {
		return "stop training"
	}
	return "stop training: " + e.Reason
}

// StopTraining returns an error that, when surfaced from any hook
// notification or from the step runner, ends the run gracefully: the loop
// transitions to StatusStopped, AfterTrain still runs, and Train returns
// nil. The reason is logged and may be empty.
func StopTraining(reason string) error {
	return &stopTrainingError{Reason: reason}
}

// IsStopTraining returns (reason, true) if err requests a graceful stop.
func IsStopTraining(err error) (string, bool) {
	var s *stopTrainingError
	if errors.As(err, &s) {
		return s.Reason, true
	}
	return "", false
}
