package codec

import "encoding/base64"

// Base64Encode returns the standard RFC-4648 encoding (with '=' padding)
// of data.
func Base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Base64Decode reverses Base64Encode.
func Base64Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
