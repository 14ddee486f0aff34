package profiles

import (
	"fmt"
	"strings"
)

// fieldLookup resolves one logical user field from documents whose key names
// drifted across client versions. Candidate keys are tried in order; the
// first that normalizes to a non-empty value wins.
type fieldLookup struct {
	keys      []string
	normalize func(any) string
}

var (
	redcapLookup = fieldLookup{
		keys:      []string{"redcap_code", "redcapCode", "redcap"},
		normalize: asTrimmedString,
	}
	emailLookup = fieldLookup{
		keys:      []string{"email", "userEmail"},
		normalize: asTrimmedString,
	}
)

func resolveField(data map[string]any, lookup fieldLookup) string {
	for _, key := range lookup.keys {
		raw, ok := data[key]
		if !ok {
			continue
		}
		if value := lookup.normalize(raw); value != "" {
			return value
		}
	}
	return ""
}

func asTrimmedString(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	}
	return ""
}
