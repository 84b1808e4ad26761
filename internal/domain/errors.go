package domain

import "fmt"

// ConfigError marks invalid input detected before any network or disk I/O.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid config: " + e.Reason
}

// AuthError means the shared credentials were rejected by the vendor API.
// Fatal to the whole batch, never retried.
type AuthError struct {
	Ret    int
	ErrMsg string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("credentials rejected (ret=%d): %s", e.Ret, e.ErrMsg)
}

// NotFoundError means an account name resolved to no candidates. Fatal to
// that account only.
type NotFoundError struct {
	Account string
}

func (e *NotFoundError) Error() string {
	return "account not found: " + e.Account
}

// TransportError wraps a network, HTTP, or parse failure on a vendor call
// after retries were exhausted. Fatal to the current account only.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PersistError wraps a storage write failure. Logged and swallowed per
// occurrence; the orchestrator escalates past a threshold.
type PersistError struct {
	URL string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.URL, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
