package model

import "fmt"

// ProviderError describes a failed LLM API call.
//
// Transient distinguishes failures worth retrying (rate limits, server
// errors, network problems) from permanent ones (bad credentials,
// exhausted quota). The engine retries node errors that report
// Retryable() as true.
type ProviderError struct {
	// Provider is the provider identifier ("openai", "anthropic").
	Provider string

	// Code is a short machine-readable failure class
	// ("rate_limited", "invalid_api_key", "server_error", ...).
	Code string

	// Message is a human-readable description.
	Message string

	// Transient reports whether retrying may succeed.
	Transient bool
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Code)
}

// Retryable reports whether the failure is transient.
func (e *ProviderError) Retryable() bool {
	return e.Transient
}
