package testutil

import (
	"errors"
	"iter"

	"fitlog/internal/fitlog"
)

// ErrUnknownContent is yielded by StubDecoder for bytes nobody registered.
var ErrUnknownContent = errors.New("stub decoder: unknown content")

// DecodeStep is one element a StubDecoder yields: a message, or an error
// when Err is set.
type DecodeStep struct {
	Message fitlog.RawMessage
	Err     error
}

// StubDecoder maps registered file contents to scripted decode sequences.
type StubDecoder struct {
	scripts map[string][]DecodeStep
}

func NewStubDecoder() *StubDecoder {
	return &StubDecoder{scripts: make(map[string][]DecodeStep)}
}

// Register scripts the sequence yielded for data.
func (d *StubDecoder) Register(data []byte, steps ...DecodeStep) {
	d.scripts[string(data)] = steps
}

// RegisterMessages scripts a sequence that decodes cleanly.
func (d *StubDecoder) RegisterMessages(data []byte, msgs ...fitlog.RawMessage) {
	steps := make([]DecodeStep, len(msgs))
	for i, m := range msgs {
		steps[i] = DecodeStep{Message: m}
	}
	d.Register(data, steps...)
}

func (d *StubDecoder) Decode(data []byte) iter.Seq2[fitlog.RawMessage, error] {
	return func(yield func(fitlog.RawMessage, error) bool) {
		steps, ok := d.scripts[string(data)]
		if !ok {
			yield(fitlog.RawMessage{}, ErrUnknownContent)
			return
		}
		for _, step := range steps {
			if step.Err != nil {
				yield(fitlog.RawMessage{}, step.Err)
				return
			}
			if !yield(step.Message, nil) {
				return
			}
		}
	}
}

// Msg builds a RawMessage from alternating field names and values.
func Msg(msgType string, kv ...any) fitlog.RawMessage {
	msg := fitlog.RawMessage{Type: msgType}
	for i := 0; i+1 < len(kv); i += 2 {
		name, _ := kv[i].(string)
		msg.Fields = append(msg.Fields, fitlog.RawField{Name: name, Value: kv[i+1]})
	}
	return msg
}

var _ fitlog.Decoder = (*StubDecoder)(nil)
