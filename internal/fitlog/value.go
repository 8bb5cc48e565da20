package fitlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindTime
	KindSeq
	KindMap
)

var kindNames = [...]string{"null", "bool", "int", "uint", "float", "string", "time", "seq", "map"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a decoded field value. The set of variants is closed; anything a
// decoder produces must convert into one of them or be rejected.
type Value struct {
	kind   Kind
	b      bool
	i      int64
	u      uint64
	f      float64
	s      string
	t      time.Time
	seq    []Value
	fields Payload
}

func NullValue() Value { return Value{} }
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }
func UintValue(u uint64) Value { return Value{kind: KindUint, u: u} }
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }
func StringValue(s string) Value { return Value{kind: KindString, s: s} }
func TimeValue(t time.Time) Value { return Value{kind: KindTime, t: t.UTC()} }
func SeqValue(vs ...Value) Value { return Value{kind: KindSeq, seq: vs} }
func MapValue(fields Payload) Value { return Value{kind: KindMap, fields: fields} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns integer variants as int64. A uint that does not fit fails.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindUint:
		if v.u > math.MaxInt64 {
			return 0, false
		}
		return int64(v.u), true
	}
	return 0, false
}

// AsFloat returns any numeric variant as float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindUint:
		return float64(v.u), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsTime returns time variants directly and parses RFC 3339 strings, which
// is how times come back out of the store.
func (v Value) AsTime() (time.Time, bool) {
	switch v.kind {
	case KindTime:
		return v.t, true
	case KindString:
		t, err := time.Parse(time.RFC3339Nano, v.s)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}

// String renders the value as text. Strings are returned unquoted; this is
// the form used for discriminator matching and CSV cells.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.s
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	}
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return fmt.Sprintf("<%s>", v.kind)
	}
	return buf.String()
}

// Equal compares kind and content. Int and uint holding the same number are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		a, aok := v.AsInt()
		b, bok := o.AsInt()
		return aok && bok && a == b
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindUint:
		return v.u == o.u
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindTime:
		return v.t.Equal(o.t)
	case KindSeq:
		return slices.EqualFunc(v.seq, o.seq, Value.Equal)
	case KindMap:
		return v.fields.Equal(o.fields)
	}
	return false
}

// FromAny converts a decoder-produced Go value into a Value. Types outside
// the closed set, and non-finite floats, fail with ErrUnencodable.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return t, nil
	case bool:
		return BoolValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int8:
		return IntValue(int64(t)), nil
	case int16:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint:
		return UintValue(uint64(t)), nil
	case uint8:
		return UintValue(uint64(t)), nil
	case uint16:
		return UintValue(uint64(t)), nil
	case uint32:
		return UintValue(uint64(t)), nil
	case uint64:
		return UintValue(t), nil
	case float32:
		return floatValue(float64(t))
	case float64:
		return floatValue(t)
	case string:
		return StringValue(t), nil
	case time.Time:
		return TimeValue(t), nil
	case []byte:
		return seqOf(t)
	case []bool:
		return seqOf(t)
	case []int8:
		return seqOf(t)
	case []int16:
		return seqOf(t)
	case []int32:
		return seqOf(t)
	case []int64:
		return seqOf(t)
	case []uint16:
		return seqOf(t)
	case []uint32:
		return seqOf(t)
	case []uint64:
		return seqOf(t)
	case []float32:
		return seqOf(t)
	case []float64:
		return seqOf(t)
	case []string:
		return seqOf(t)
	case []any:
		return seqOf(t)
	case Payload:
		return MapValue(t), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		fields := make(Payload, 0, len(keys))
		for _, k := range keys {
			fv, err := FromAny(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			fields = append(fields, Field{Name: k, Value: fv})
		}
		return MapValue(fields), nil
	}
	return Value{}, fmt.Errorf("%w: unsupported type %T", ErrUnencodable, x)
}

func floatValue(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("%w: non-finite float %v", ErrUnencodable, f)
	}
	return FloatValue(f), nil
}

func seqOf[T any](xs []T) (Value, error) {
	vs := make([]Value, len(xs))
	for i, x := range xs {
		v, err := FromAny(x)
		if err != nil {
			return Value{}, fmt.Errorf("index %d: %w", i, err)
		}
		vs[i] = v
	}
	return SeqValue(vs...), nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	decoded, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindUint:
		buf.WriteString(strconv.FormatUint(v.u, 10))
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return fmt.Errorf("%w: non-finite float %v", ErrUnencodable, v.f)
		}
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		buf.WriteString(s)
	case KindString:
		return writeString(buf, v.s)
	case KindTime:
		return writeString(buf, v.t.Format(time.RFC3339Nano))
	case KindSeq:
		buf.WriteByte('[')
		for i, e := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		return v.fields.encode(buf)
	default:
		return fmt.Errorf("%w: invalid kind %d", ErrUnencodable, v.kind)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// decodeValue reads one JSON value from dec token by token so object keys
// keep their stored order.
func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Number:
		return numberValue(t)
	case json.Delim:
		switch t {
		case '[':
			var vs []Value
			for dec.More() {
				e, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				vs = append(vs, e)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return SeqValue(vs...), nil
		case '{':
			fields, err := decodeFields(dec)
			if err != nil {
				return Value{}, err
			}
			return MapValue(fields), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}

// decodeFields reads object members after the opening brace, then the
// closing brace.
func decodeFields(dec *json.Decoder) (Payload, error) {
	fields := Payload{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected JSON object key %v", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: name, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

func numberValue(n json.Number) (Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if strings.HasPrefix(s, "-") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return IntValue(i), nil
			}
		} else if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			if u <= math.MaxInt64 {
				return IntValue(int64(u)), nil
			}
			return UintValue(u), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("parsing number %q: %w", s, err)
	}
	return FloatValue(f), nil
}
