// Package errs defines the sentinel errors returned by trailcask's core
// components. Callers should compare against these with errors.Is; wrapped
// context is added with fmt.Errorf("...: %w", err) so the sentinel still
// matches through wrapping.
package errs

import "errors"

var (
	// ErrIOOpen is returned when a store path cannot be opened for reading or writing.
	ErrIOOpen = errors.New("trailcask: io open failed")
	// ErrIORead is returned when a section read fails or is truncated.
	ErrIORead = errors.New("trailcask: io read failed")
	// ErrIOWrite is returned when a section write fails.
	ErrIOWrite = errors.New("trailcask: io write failed")
	// ErrInvalidPath is returned when a path is neither a valid package file nor a directory.
	ErrInvalidPath = errors.New("trailcask: invalid path")

	// ErrTooManyFields is returned when a store is opened with more fields than fit in the item codec.
	ErrTooManyFields = errors.New("trailcask: too many fields")
	// ErrDuplicateField is returned when two fields share a name.
	ErrDuplicateField = errors.New("trailcask: duplicate field name")
	// ErrInvalidFieldName is returned when a field name is empty, too long, uses
	// disallowed characters, or collides with the reserved name "time".
	ErrInvalidFieldName = errors.New("trailcask: invalid field name")

	// ErrValueTooLarge is returned when an interned value exceeds the configured maximum length.
	ErrValueTooLarge = errors.New("trailcask: value too large")
	// ErrTooManyValues is returned when a field's lexicon overflows its narrow id space.
	ErrTooManyValues = errors.New("trailcask: too many distinct values for field")
	// ErrTimestampTooLarge is returned when a timestamp delta exceeds TDBMaxTimeDelta.
	ErrTimestampTooLarge = errors.New("trailcask: timestamp delta too large")

	// ErrUnknownField is returned when a field name or index is not present in the store.
	ErrUnknownField = errors.New("trailcask: unknown field")
	// ErrUnknownUUID is returned when a UUID has no corresponding trail.
	ErrUnknownUUID = errors.New("trailcask: unknown uuid")
	// ErrInvalidUUID is returned when a caller-supplied UUID is malformed.
	ErrInvalidUUID = errors.New("trailcask: invalid uuid")

	// ErrIndexChecksumMismatch is returned when a page index's checksum does not
	// match the store it is opened against.
	ErrIndexChecksumMismatch = errors.New("trailcask: index checksum mismatch")
	// ErrVersionMismatch is returned when a store's format version is not supported by this build.
	ErrVersionMismatch = errors.New("trailcask: version mismatch")
	// ErrCorruptSection is returned when a section fails structural validation.
	ErrCorruptSection = errors.New("trailcask: corrupt section")
	// ErrOutOfMemory is returned when an allocation needed to intern a value or grow
	// a buffer fails.
	ErrOutOfMemory = errors.New("trailcask: out of memory")

	// ErrEncoderFinalized is returned when add/append is called after finalize.
	ErrEncoderFinalized = errors.New("trailcask: encoder already finalized")
	// ErrReaderClosed is returned when a reader or a cursor borrowing it is used after close.
	ErrReaderClosed = errors.New("trailcask: reader closed")
	// ErrTrailIDOutOfRange is returned when a trail id is outside [0, num_trails).
	ErrTrailIDOutOfRange = errors.New("trailcask: trail id out of range")
)
