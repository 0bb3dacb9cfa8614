// Package collection models the Postman collection document: folders of
// requests with their pre-request and test scripts. Members the model does
// not know about are preserved, so a parse and write round trip leaves the
// rest of the document intact.
package collection

import (
	"bytes"
	"encoding/json"
	"strings"

	"billing-fixtures/internal/errors"
)

// Script listeners
const (
	ListenTest       = "test"
	ListenPrerequest = "prerequest"
)

// ScriptType is the Postman script language tag
const ScriptType = "text/javascript"

// Collection is a whole Postman collection document
type Collection struct {
	Info  json.RawMessage
	Item  []*Item
	Extra Extra
}

// Item is either a folder (Item set) or a request (Request set)
type Item struct {
	ID          string
	Name        string
	Description string
	Item        []*Item
	Request     *Request
	Event       []Event
	Extra       Extra
}

// Request is a Postman request
type Request struct {
	Method string
	Header json.RawMessage
	Body   *Body
	URL    json.RawMessage
	Extra  Extra

	// urlOnly is set when the request was written as a bare URL string
	urlOnly bool
}

// Body is a request body; only raw mode is interpreted
type Body struct {
	Mode  string
	Raw   string
	Extra Extra
}

// Event attaches a script to an item
type Event struct {
	Listen string
	Script Script
	Extra  Extra
}

// Script is a Postman script; Exec holds one source line per element
type Script struct {
	ID    string
	Type  string
	Exec  []string
	Extra Extra
}

// Parse decodes a collection document
func Parse(data []byte) (*Collection, error) {
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Parsing("invalid collection document", err)
	}
	return &c, nil
}

// Marshal encodes the document with two-space indentation and a trailing newline
func (c *Collection) Marshal() ([]byte, error) {
	compact, err := encode(c)
	if err != nil {
		return nil, errors.Internal("failed to encode collection", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, errors.Internal("failed to indent collection", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Clone returns a deep copy sharing no memory with c
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	return &Collection{
		Info:  bytes.Clone(c.Info),
		Item:  cloneItems(c.Item),
		Extra: c.Extra.clone(),
	}
}

// Folder returns the top-level item at index
func (c *Collection) Folder(index int) (*Item, error) {
	if index < 0 || index >= len(c.Item) {
		return nil, errors.Newf(errors.TypeNotFound, "collection has no folder at index %d (%d folders)", index, len(c.Item))
	}
	return c.Item[index], nil
}

// Find returns the top-level item with the given name
func (c *Collection) Find(name string) *Item {
	for _, it := range c.Item {
		if it.Name == name {
			return it
		}
	}
	return nil
}

// Clone returns a deep copy of the item and all of its children
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	out := &Item{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Item:        cloneItems(i.Item),
		Request:     i.Request.Clone(),
		Extra:       i.Extra.clone(),
	}
	if i.Event != nil {
		out.Event = make([]Event, len(i.Event))
		for k, e := range i.Event {
			out.Event[k] = e.clone()
		}
	}
	return out
}

func cloneItems(items []*Item) []*Item {
	if items == nil {
		return nil
	}
	out := make([]*Item, len(items))
	for k, it := range items {
		out[k] = it.Clone()
	}
	return out
}

// Clone returns a deep copy of the request
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	out := &Request{
		Method:  r.Method,
		Header:  bytes.Clone(r.Header),
		URL:     bytes.Clone(r.URL),
		Extra:   r.Extra.clone(),
		urlOnly: r.urlOnly,
	}
	if r.Body != nil {
		out.Body = &Body{Mode: r.Body.Mode, Raw: r.Body.Raw, Extra: r.Body.Extra.clone()}
	}
	return out
}

func (e Event) clone() Event {
	out := Event{Listen: e.Listen, Extra: e.Extra.clone()}
	out.Script = Script{
		ID:    e.Script.ID,
		Type:  e.Script.Type,
		Extra: e.Script.Extra.clone(),
	}
	if e.Script.Exec != nil {
		out.Script.Exec = append([]string(nil), e.Script.Exec...)
	}
	return out
}

// Step returns the direct child with the given name
func (i *Item) Step(name string) *Item {
	for _, it := range i.Item {
		if it.Name == name {
			return it
		}
	}
	return nil
}

// Script returns the script lines for a listener, or nil
func (i *Item) Script(listen string) []string {
	for _, e := range i.Event {
		if e.Listen == listen {
			return e.Script.Exec
		}
	}
	return nil
}

// SetScript replaces the script for a listener, adding the event if missing
func (i *Item) SetScript(listen string, lines []string) {
	exec := append([]string(nil), lines...)
	for k := range i.Event {
		if i.Event[k].Listen == listen {
			i.Event[k].Script.Exec = exec
			if i.Event[k].Script.Type == "" {
				i.Event[k].Script.Type = ScriptType
			}
			return
		}
	}
	i.Event = append(i.Event, Event{
		Listen: listen,
		Script: Script{Type: ScriptType, Exec: exec},
	})
}

// Walk visits the item and its descendants depth first
func (i *Item) Walk(fn func(*Item)) {
	fn(i)
	for _, child := range i.Item {
		child.Walk(fn)
	}
}

// InsertAfterPrefix inserts items after the last item whose name starts with
// prefix, or appends them when no item matches. The input slice is not modified.
func InsertAfterPrefix(items []*Item, prefix string, add ...*Item) []*Item {
	at := insertionPoint(items, prefix)
	out := make([]*Item, 0, len(items)+len(add))
	out = append(out, items[:at]...)
	out = append(out, add...)
	return append(out, items[at:]...)
}

// Merge places items into the list. An item whose name already exists
// replaces it in place. A new item goes right after the previous item of
// add, or after the last item with the prefix when it is the first one.
// Merging the same items twice is a no-op.
func Merge(items []*Item, prefix string, add ...*Item) []*Item {
	out := append([]*Item(nil), items...)
	last := -1

	for _, it := range add {
		if k := indexOf(out, it.Name); k >= 0 {
			out[k] = it
			last = k
			continue
		}
		if last < 0 {
			last = insertionPoint(out, prefix) - 1
		}
		at := last + 1
		out = append(out[:at], append([]*Item{it}, out[at:]...)...)
		last = at
	}
	return out
}

func indexOf(items []*Item, name string) int {
	for k, it := range items {
		if it.Name == name {
			return k
		}
	}
	return -1
}

// insertionPoint is the index right after the last item with the prefix,
// or len(items) when none matches
func insertionPoint(items []*Item, prefix string) int {
	if prefix != "" {
		for k := len(items) - 1; k >= 0; k-- {
			if strings.HasPrefix(items[k].Name, prefix) {
				return k + 1
			}
		}
	}
	return len(items)
}
