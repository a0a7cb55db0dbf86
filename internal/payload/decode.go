package payload

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
)

var ErrEmptyPayload = errors.New("empty payload")

// DecodeBase64 accepts plain base64 (std or URL alphabet, padded or not)
// and data: URIs.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if idx := strings.IndexByte(s, ','); idx > 0 {
			s = s[idx+1:]
		}
	}
	if s == "" {
		return nil, ErrEmptyPayload
	}
	// transports sometimes wrap long base64 lines
	s = strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(s)

	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// UnwrapBody returns the JSON body, decoding it first when the hosting layer
// delivered it base64-encoded.
func UnwrapBody(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ErrEmptyPayload
	}
	if trimmed[0] == '{' {
		return trimmed, nil
	}
	return DecodeBase64(string(trimmed))
}
