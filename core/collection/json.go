package collection

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
)

// Extra holds object members the model does not interpret. They are kept
// verbatim and written back after the known members, sorted by key.
type Extra map[string]json.RawMessage

func (e Extra) clone() Extra {
	if e == nil {
		return nil
	}
	out := make(Extra, len(e))
	for k, v := range e {
		out[k] = bytes.Clone(v)
	}
	return out
}

type member struct {
	key   string
	value any
	omit  bool
}

// encode marshals without HTML escaping; test scripts are full of && and <.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func encodeObject(members []member, extra Extra) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, value any) error {
		k, err := encode(key)
		if err != nil {
			return err
		}
		v, err := encode(value)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	written := make(map[string]bool, len(members))
	for _, m := range members {
		if m.omit {
			continue
		}
		if err := write(m.key, m.value); err != nil {
			return nil, err
		}
		written[m.key] = true
	}
	// A known member that was set replaces the preserved form of the same key.
	for _, key := range slices.Sorted(maps.Keys(extra)) {
		if written[key] {
			continue
		}
		if err := write(key, extra[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeObject splits an object into its members
func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// take decodes and removes one member; absent members leave v untouched
func take(m map[string]json.RawMessage, key string, v any) error {
	raw, ok := m[key]
	if !ok {
		return nil
	}
	delete(m, key)
	return json.Unmarshal(raw, v)
}

func rest(m map[string]json.RawMessage) Extra {
	if len(m) == 0 {
		return nil
	}
	return Extra(m)
}
