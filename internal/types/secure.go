package types

// SecretString holds a sensitive value (API keys, connection strings) and
// redacts it from logs, fmt verbs, and JSON encoding. Use Value() to access
// the raw secret at the point of use.
type SecretString string

const redacted = `"[REDACTED]"`

// String implements fmt.Stringer and returns the redaction marker.
func (s SecretString) String() string {
	return "[REDACTED]"
}

// GoString prevents %#v from leaking the secret.
func (s SecretString) GoString() string {
	return "[REDACTED]"
}

// MarshalJSON always encodes the redaction marker, never the secret.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(redacted), nil
}

// Value returns the underlying secret.
func (s SecretString) Value() string {
	return string(s)
}

// IsEmpty reports whether the secret is unset.
func (s SecretString) IsEmpty() bool {
	return len(s) == 0
}
