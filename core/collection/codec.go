package collection

import "bytes"

// MarshalJSON implements json.Marshaler
func (c *Collection) MarshalJSON() ([]byte, error) {
	items := c.Item
	if items == nil {
		items = []*Item{}
	}
	return encodeObject([]member{
		{key: "info", value: c.Info, omit: len(c.Info) == 0},
		{key: "item", value: items},
	}, c.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Collection) UnmarshalJSON(data []byte) error {
	m, err := decodeObject(data)
	if err != nil {
		return err
	}
	if err := take(m, "info", &c.Info); err != nil {
		return err
	}
	if err := take(m, "item", &c.Item); err != nil {
		return err
	}
	c.Extra = rest(m)
	return nil
}

// MarshalJSON implements json.Marshaler
func (i *Item) MarshalJSON() ([]byte, error) {
	return encodeObject([]member{
		{key: "id", value: i.ID, omit: i.ID == ""},
		{key: "name", value: i.Name},
		{key: "description", value: i.Description, omit: i.Description == ""},
		{key: "item", value: i.Item, omit: i.Item == nil},
		{key: "request", value: i.Request, omit: i.Request == nil},
		{key: "event", value: i.Event, omit: i.Event == nil},
	}, i.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (i *Item) UnmarshalJSON(data []byte) error {
	m, err := decodeObject(data)
	if err != nil {
		return err
	}
	// Descriptions may also be objects; those stay in Extra until Description is set.
	if raw, ok := m["description"]; ok && len(raw) > 0 && raw[0] == '"' {
		if err := take(m, "description", &i.Description); err != nil {
			return err
		}
	}
	for key, v := range map[string]any{
		"id":      &i.ID,
		"name":    &i.Name,
		"item":    &i.Item,
		"request": &i.Request,
		"event":   &i.Event,
	} {
		if err := take(m, key, v); err != nil {
			return err
		}
	}
	i.Extra = rest(m)
	return nil
}

// MarshalJSON implements json.Marshaler
func (r *Request) MarshalJSON() ([]byte, error) {
	if r.bareURL() {
		return r.URL, nil
	}
	return encodeObject([]member{
		{key: "method", value: r.Method, omit: r.Method == ""},
		{key: "header", value: r.Header, omit: len(r.Header) == 0},
		{key: "body", value: r.Body, omit: r.Body == nil},
		{key: "url", value: r.URL, omit: len(r.URL) == 0},
	}, r.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Request) UnmarshalJSON(data []byte) error {
	// Postman allows a bare URL string for the whole request.
	if len(data) > 0 && data[0] == '"' {
		r.URL = bytes.Clone(data)
		r.urlOnly = true
		return nil
	}
	m, err := decodeObject(data)
	if err != nil {
		return err
	}
	if err := take(m, "method", &r.Method); err != nil {
		return err
	}
	if err := take(m, "header", &r.Header); err != nil {
		return err
	}
	if err := take(m, "body", &r.Body); err != nil {
		return err
	}
	if err := take(m, "url", &r.URL); err != nil {
		return err
	}
	r.Extra = rest(m)
	return nil
}

// bareURL reports whether the request was read as a URL string and nothing
// has been added to it since
func (r *Request) bareURL() bool {
	return r.urlOnly && r.Method == "" && len(r.Header) == 0 && r.Body == nil &&
		len(r.Extra) == 0 && len(r.URL) > 0 && r.URL[0] == '"'
}

// MarshalJSON implements json.Marshaler
func (b *Body) MarshalJSON() ([]byte, error) {
	return encodeObject([]member{
		{key: "mode", value: b.Mode, omit: b.Mode == ""},
		{key: "raw", value: b.Raw, omit: b.Mode != "raw" && b.Raw == ""},
	}, b.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (b *Body) UnmarshalJSON(data []byte) error {
	m, err := decodeObject(data)
	if err != nil {
		return err
	}
	if err := take(m, "mode", &b.Mode); err != nil {
		return err
	}
	if err := take(m, "raw", &b.Raw); err != nil {
		return err
	}
	b.Extra = rest(m)
	return nil
}

// MarshalJSON implements json.Marshaler
func (e Event) MarshalJSON() ([]byte, error) {
	return encodeObject([]member{
		{key: "listen", value: e.Listen},
		{key: "script", value: e.Script},
	}, e.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (e *Event) UnmarshalJSON(data []byte) error {
	m, err := decodeObject(data)
	if err != nil {
		return err
	}
	if err := take(m, "listen", &e.Listen); err != nil {
		return err
	}
	if err := take(m, "script", &e.Script); err != nil {
		return err
	}
	e.Extra = rest(m)
	return nil
}

// MarshalJSON implements json.Marshaler
func (s Script) MarshalJSON() ([]byte, error) {
	exec := s.Exec
	if exec == nil {
		exec = []string{}
	}
	return encodeObject([]member{
		{key: "id", value: s.ID, omit: s.ID == ""},
		{key: "type", value: s.Type, omit: s.Type == ""},
		{key: "exec", value: exec},
	}, s.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Script) UnmarshalJSON(data []byte) error {
	m, err := decodeObject(data)
	if err != nil {
		return err
	}
	if err := take(m, "id", &s.ID); err != nil {
		return err
	}
	if err := take(m, "type", &s.Type); err != nil {
		return err
	}
	// exec is either a single string or an array of lines
	if raw, ok := m["exec"]; ok && len(raw) > 0 && raw[0] == '"' {
		var line string
		if err := take(m, "exec", &line); err != nil {
			return err
		}
		s.Exec = []string{line}
	} else if err := take(m, "exec", &s.Exec); err != nil {
		return err
	}
	s.Extra = rest(m)
	return nil
}
