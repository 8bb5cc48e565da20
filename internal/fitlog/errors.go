package fitlog

import "errors"

var (
	// ErrMalformedContent marks a file whose binary content the decoder
	// rejected part way through. The file stays pending.
	ErrMalformedContent = errors.New("malformed file content")

	// ErrUnencodable marks a decoded value with no deterministic
	// serialization. The file's batch is abandoned and the file stays pending.
	ErrUnencodable = errors.New("unencodable record value")

	// ErrPrecondition is returned when stored data does not have the shape a
	// query requires, such as exactly one record of a type.
	ErrPrecondition = errors.New("precondition failed")
)

// IsFileError reports whether err only concerns the file being imported,
// as opposed to a failure of the store itself.
func IsFileError(err error) bool {
	return errors.Is(err, ErrMalformedContent) || errors.Is(err, ErrUnencodable)
}
