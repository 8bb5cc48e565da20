package fitlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Field is one named value in a Payload.
type Field struct {
	Name  string
	Value Value
}

// Payload is an ordered mapping of field name to value. Order is the order
// fields were decoded in and survives a round trip through the store.
type Payload []Field

// Get returns the named field's value.
func (p Payload) Get(name string) (Value, bool) {
	for _, f := range p {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Set replaces the named field in place, or appends it.
func (p Payload) Set(name string, v Value) Payload {
	for i, f := range p {
		if f.Name == name {
			p[i].Value = v
			return p
		}
	}
	return append(p, Field{Name: name, Value: v})
}

// Delete returns a copy of p without the named field.
func (p Payload) Delete(name string) Payload {
	return slices.DeleteFunc(p.Clone(), func(f Field) bool { return f.Name == name })
}

func (p Payload) Names() []string {
	names := make([]string, len(p))
	for i, f := range p {
		names[i] = f.Name
	}
	return names
}

// Clone copies the field list. Values are immutable and are shared.
func (p Payload) Clone() Payload {
	return slices.Clone(p)
}

// Equal reports whether both payloads hold equal values under the same
// names in the same order.
func (p Payload) Equal(o Payload) bool {
	return slices.EqualFunc(p, o, func(a, b Field) bool {
		return a.Name == b.Name && a.Value.Equal(b.Value)
	})
}

// MarshalJSON writes a JSON object with keys in field order. The same
// payload always produces the same bytes.
func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("payload must be a JSON object, got %v", tok)
	}
	fields, err := decodeFields(dec)
	if err != nil {
		return err
	}
	*p = fields
	return nil
}

func (p Payload) encode(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, f := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, f.Name); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := f.Value.encode(buf); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	buf.WriteByte('}')
	return nil
}
