package mcp

import "encoding/json"

// UnknownField is an argument that was passed but not recognized
type UnknownField struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// collectUnknownFields parses raw JSON into a map, capturing any fields
// that aren't part of the provided known field set
func collectUnknownFields(data []byte, known map[string]struct{}) (map[string]json.RawMessage, []UnknownField, error) {
	var raw map[string]json.RawMessage
	if len(data) == 0 {
		return raw, nil, nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	var warnings []UnknownField
	for key, value := range raw {
		if _, ok := known[key]; !ok {
			warnings = append(warnings, decodeUnknownField(key, value))
		}
	}
	return raw, warnings, nil
}

func decodeUnknownField(name string, data json.RawMessage) UnknownField {
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		value = string(data)
	}
	return UnknownField{Name: name, Value: value}
}

// warningMessages renders unknown fields for a response's warnings list
func warningMessages(fields []UnknownField) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, "unknown parameter ignored: "+f.Name)
	}
	return out
}
