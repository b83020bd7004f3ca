package llm

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse signals that a provider answered successfully but produced
// no extractable text. Terminal; never retried.
var ErrEmptyResponse = errors.New("llm: no response produced")

// ConfigurationError signals that the credential needed by the selected
// provider is missing. Raised before any network call.
type ConfigurationError struct {
	Provider string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("llm: provider %q has no API key configured", e.Provider)
}

// UpstreamError is a non-success HTTP status from a provider, with the
// response body preserved for diagnosis.
type UpstreamError struct {
	Provider   string
	Model      string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: model %q: status %d: %s", e.Provider, e.Model, e.StatusCode, e.Body)
}
