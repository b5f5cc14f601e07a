package fileutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoJSONObject means a model reply contained no decodable object.
var ErrNoJSONObject = errors.New("no JSON object in model output")

// DecodeModelJSON decodes the first complete JSON object in a model reply into v. Text before
// the object (prose, a code fence) and anything after it are ignored.
func DecodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	var lastErr error
	for off := 0; ; {
		i := strings.IndexByte(s[off:], '{')
		if i < 0 {
			break
		}
		off += i
		dec := json.NewDecoder(strings.NewReader(s[off:]))
		if lastErr = dec.Decode(v); lastErr == nil {
			return nil
		}
		off++
	}
	if lastErr != nil {
		return fmt.Errorf("DecodeModelJSON: %w: %w", ErrNoJSONObject, lastErr)
	}
	return fmt.Errorf("DecodeModelJSON: %w (len=%d)", ErrNoJSONObject, len(s))
}
