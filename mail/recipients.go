package mail

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Recipients is an ordered, de-duplicated list of addresses. It decodes from a
// JSON array of strings, a JSON string holding such an array, or a string of
// addresses separated by commas or semicolons.
type Recipients []string

func (r *Recipients) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return invalid("recipients", "must be a list of addresses")
		}
		*r = NormalizeRecipients(list...)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return invalid("recipients", "must be a list of addresses")
	}
	parsed, err := ParseRecipients(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRecipients parses a form value: a JSON array, or a delimited list.
func ParseRecipients(value string) (Recipients, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if strings.HasPrefix(value, "[") {
		var list []string
		if err := json.Unmarshal([]byte(value), &list); err != nil {
			return nil, invalid("recipients", "malformed recipient list")
		}
		return NormalizeRecipients(list...), nil
	}
	return NormalizeRecipients(strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';'
	})...), nil
}

// NormalizeRecipients trims each address and drops blanks and repeats,
// keeping the first occurrence. Repeats are matched case-insensitively.
func NormalizeRecipients(addresses ...string) Recipients {
	var out Recipients
	seen := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}
