package backends

import (
	"fmt"
	"strings"

	"omnisearch/internal/config"
)

// CredentialError reports a backend whose required API key is absent or
// still an unresolved placeholder. It is detected before any network call.
type CredentialError struct {
	Backend string
	EnvHint string
}

func (e *CredentialError) Error() string {
	if e.EnvHint != "" {
		return fmt.Sprintf("%s API key not configured; set %s", e.Backend, e.EnvHint)
	}
	return fmt.Sprintf("%s API key not configured", e.Backend)
}

// TransportError wraps any network or protocol failure from a backend call.
type TransportError struct {
	Backend string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Redact strips the backend's credential out of a message so that error
// strings surfaced to callers never leak keys.
func Redact(msg string, cfg config.BackendConfig) string {
	if cfg.CredentialConfigured() {
		return strings.ReplaceAll(msg, cfg.APIKey, "***")
	}
	return msg
}
