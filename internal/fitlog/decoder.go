package fitlog

import "iter"

// RawField is one decoded field of a message. An empty Name marks a field
// the decoder could not resolve against its profile; a nil Value marks a
// field that was present on the wire but unset.
type RawField struct {
	Name  string
	Value any
}

// RawMessage is one decoded message. An empty Type marks a message number
// the decoder could not resolve.
type RawMessage struct {
	Type   string
	Fields []RawField
}

// Decoder turns the bytes of one activity file into its messages, in file
// order. A decode error is yielded at most once and ends the sequence.
type Decoder interface {
	Decode(data []byte) iter.Seq2[RawMessage, error]
}
