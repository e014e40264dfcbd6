package interpreter

import (
	"errors"
	"fmt"
)

var (
	// ErrRuntimeUnavailable means no runtime factory is bound, so there is
	// nothing to configure.
	ErrRuntimeUnavailable = errors.New("runtime library is not available")

	// ErrNotConfigured is returned by Submit before a successful Configure.
	ErrNotConfigured = errors.New("interpreter is not configured, select a provider first")

	// ErrBusy is returned by Submit while a turn is active. Submissions are
	// rejected, never queued.
	ErrBusy = errors.New("interpreter is already processing a turn")
)

// ConfigurationError wraps a runtime construction failure with its detail.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("interpreter configuration failed: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// inferenceFailureMessage turns an in-turn failure into the actionable text
// shown in the transcript. Raw diagnostics stay in the log.
func inferenceFailureMessage(err error) string {
	return fmt.Sprintf(
		"Inference failed: %v\n\nThings to check:\n1. The provider endpoint is running and reachable\n2. Your network connection is up\n3. The API key is valid for this provider",
		err,
	)
}
