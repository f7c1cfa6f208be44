package llm

import "fmt"

// NotFoundError reports that no model is configured for a tier.
type NotFoundError struct {
	Tier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no model configured for tier %s", e.Tier)
}

// NotLoadedError reports that the inference runtime could not be brought up.
type NotLoadedError struct {
	Reason string
	Cause  error
}

func (e *NotLoadedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model not loaded: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("model not loaded: %s", e.Reason)
}

func (e *NotLoadedError) Unwrap() error {
	return e.Cause
}

// InferenceError reports a failed or unusable inference.
type InferenceError struct {
	Message string
	Cause   error
}

func (e *InferenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("inference failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("inference failed: %s", e.Message)
}

func (e *InferenceError) Unwrap() error {
	return e.Cause
}
