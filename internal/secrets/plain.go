package secrets

import "encoding/json"

// Plain carries a secret (password or recovery code) decoded from a JSON
// string field into a mutable byte slice, so the handler that consumes it
// can call SecureClear on the exact memory the secret occupies. Unlike a
// plain Go string, this buffer is in the caller's control for its entire
// lifetime.
type Plain []byte

// UnmarshalJSON decodes a JSON string into the byte slice.
func (p *Plain) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = []byte(s)
	return nil
}

// String exposes the secret for the single call (hash/verify) that needs
// it as a string. Callers must not retain the result past that call.
func (p Plain) String() string {
	return string(p)
}
