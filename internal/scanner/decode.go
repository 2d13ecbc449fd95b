package scanner

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeText validates raw as UTF-8 and drops a leading byte order mark.
// Invalid input is rejected instead of being patched with replacement runes.
func decodeText(raw []byte) (string, error) {
	t := transform.Chain(encoding.UTF8Validator, unicode.UTF8BOM.NewDecoder())
	out, _, err := transform.Bytes(t, raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
