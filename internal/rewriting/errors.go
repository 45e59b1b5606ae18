package rewriting

import (
	"errors"
	"fmt"
)

// Reason tags why a rewrite was rejected
type Reason string

// Rejection reasons
const (
	ReasonQualityFailed       Reason = "quality_failed"
	ReasonFabricationDetected Reason = "fabrication_detected"
	ReasonModelInvalidOutput  Reason = "model_invalid_output"
)

// Sentinels matched by errors.Is against a *RejectedError
var (
	ErrQualityFailed       = errors.New("quality check failed")
	ErrFabricationDetected = errors.New("possible fabrication detected")
	ErrModelInvalidOutput  = errors.New("rewrite failed")
)

// Message is the client-facing text for the reason
func (r Reason) Message() string {
	switch r {
	case ReasonQualityFailed:
		return "Quality check failed"
	case ReasonFabricationDetected:
		return "Possible fabrication detected"
	default:
		return "Rewrite failed"
	}
}

func (r Reason) sentinel() error {
	switch r {
	case ReasonQualityFailed:
		return ErrQualityFailed
	case ReasonFabricationDetected:
		return ErrFabricationDetected
	default:
		return ErrModelInvalidOutput
	}
}

// RejectedError is returned when no acceptable rewrite was produced
type RejectedError struct {
	Reason   Reason
	Attempts int
	Cause    error
}

func (e *RejectedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rewrite rejected (%s) after %d attempt(s): %v", e.Reason, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("rewrite rejected (%s) after %d attempt(s)", e.Reason, e.Attempts)
}

func (e *RejectedError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel for the rejection reason
func (e *RejectedError) Is(target error) bool {
	return target == e.Reason.sentinel()
}
