// Package decoder adapts github.com/muktihari/fit to the fitlog.Decoder
// contract: profile names for messages and fields, scaled values, FIT
// date_time and local_date_time fields as time.Time and invalid values left
// out.
package decoder

import (
	"bytes"
	"errors"
	"iter"
	"math"
	"strings"
	"time"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"

	"fitlog/internal/fitlog"
)

// fitEpoch is 1989-12-31T00:00:00Z, the zero of FIT date_time values.
var fitEpoch = time.Date(1989, 12, 31, 0, 0, 0, 0, time.UTC)

// ErrNoData is returned for content holding no FIT sequence at all.
var ErrNoData = errors.New("no FIT data")

// minAbsoluteTime is the smallest date_time that counts from fitEpoch.
// Smaller values are seconds of device system time and stay numeric.
const minAbsoluteTime = 0x10000000

// enumNames renders enum fields the views and listings match on by name.
var enumNames = map[string]func(uint64) string{
	"file_id.type":             func(v uint64) string { return typedef.File(v).String() },
	"file_id.manufacturer":     func(v uint64) string { return typedef.Manufacturer(v).String() },
	"device_info.manufacturer": func(v uint64) string { return typedef.Manufacturer(v).String() },
	"sport.sport":              func(v uint64) string { return typedef.Sport(v).String() },
	"session.sport":            func(v uint64) string { return typedef.Sport(v).String() },
	"lap.sport":                func(v uint64) string { return typedef.Sport(v).String() },
}

// FITDecoder decodes FIT files, including chained FIT sequences.
type FITDecoder struct{}

var _ fitlog.Decoder = (*FITDecoder)(nil)

func NewFITDecoder() *FITDecoder {
	return &FITDecoder{}
}

func (d *FITDecoder) Decode(data []byte) iter.Seq2[fitlog.RawMessage, error] {
	return func(yield func(fitlog.RawMessage, error) bool) {
		dec := decoder.New(bytes.NewReader(data))
		sequences := 0
		for dec.Next() {
			fit, err := dec.Decode()
			if err != nil {
				yield(fitlog.RawMessage{}, err)
				return
			}
			sequences++
			for i := range fit.Messages {
				if !yield(convertMessage(&fit.Messages[i]), nil) {
					return
				}
			}
		}
		if sequences == 0 {
			yield(fitlog.RawMessage{}, ErrNoData)
		}
	}
}

func convertMessage(m *proto.Message) fitlog.RawMessage {
	msg := fitlog.RawMessage{Type: messageName(m.Num)}
	for i := range m.Fields {
		f := &m.Fields[i]
		msg.Fields = append(msg.Fields, fitlog.RawField{
			Name:  fieldName(f.Name),
			Value: fieldValue(msg.Type, f),
		})
	}
	return msg
}

// messageName returns "" for message numbers outside the profile.
func messageName(num typedef.MesgNum) string {
	name := num.String()
	if strings.HasPrefix(name, "MesgNumInvalid") {
		return ""
	}
	return name
}

func fieldName(name string) string {
	if name == "unknown" {
		return ""
	}
	return name
}

// fieldValue returns nil for values the profile marks invalid.
func fieldValue(mesg string, f *proto.Field) any {
	if f.Value.Type() == proto.TypeInvalid || !f.Value.Valid(f.BaseType) {
		return nil
	}
	raw := f.Value.Any()

	switch f.Type {
	case profile.DateTime:
		if secs, ok := toUint(raw); ok && secs >= minAbsoluteTime {
			return fitTime(secs)
		}
	case profile.LocalDateTime:
		if secs, ok := toUint(raw); ok {
			return fitTime(secs)
		}
	}
	if render, ok := enumNames[mesg+"."+f.Name]; ok {
		if n, ok := toUint(raw); ok {
			return render(n)
		}
	}
	if f.Scale != 1 && f.Scale != 0 || f.Offset != 0 {
		if n, ok := toFloat(raw); ok {
			return scaled(n, f.Scale, f.Offset)
		}
	}
	if x, ok := raw.(float64); ok && (math.IsNaN(x) || math.IsInf(x, 0)) {
		return nil
	}
	if x, ok := raw.(float32); ok && (math.IsNaN(float64(x)) || math.IsInf(float64(x), 0)) {
		return nil
	}
	return raw
}

func fitTime(secs uint64) time.Time {
	return fitEpoch.Add(time.Duration(secs) * time.Second)
}

func scaled(n, scale, offset float64) float64 {
	if scale == 0 {
		scale = 1
	}
	return n/scale - offset
}

func toUint(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
