package postgres

import "encoding/json"

// jsonText encodes v for a JSON/JSONB parameter.
func jsonText(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// decodeJSON unmarshals a JSON column, leaving dst untouched on empty or bad input.
func decodeJSON(b []byte, dst any) {
	if len(b) == 0 {
		return
	}
	_ = json.Unmarshal(b, dst)
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
