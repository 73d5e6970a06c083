package dop2

import "errors"

// DOP2 errors.
var (
	// ErrLeafNotFound is returned when the appliance reports that the
	// addressed unit/attribute does not exist. This is an expected signal
	// and feeds the capability cache.
	ErrLeafNotFound = errors.New("dop2: leaf not found")

	// ErrUnknownLeaf is returned when no codec is registered for a leaf.
	ErrUnknownLeaf = errors.New("dop2: no codec for leaf")

	// ErrTruncatedPayload is returned when a payload ends before a field
	// it must contain.
	ErrTruncatedPayload = errors.New("dop2: truncated payload")

	// ErrInvalidStructure is returned when a payload contradicts its own
	// layout, e.g. a length prefix pointing past the end. Indicates
	// protocol drift or corruption.
	ErrInvalidStructure = errors.New("dop2: invalid structure")

	// ErrUnsupportedWrite is returned when encoding is requested for a
	// read-only leaf.
	ErrUnsupportedWrite = errors.New("dop2: leaf does not support writes")

	// ErrOutOfRange is returned when a setting write is outside the
	// decoded [min, max] bounds. Raised before any network I/O.
	ErrOutOfRange = errors.New("dop2: value out of range")

	// ErrShapeMismatch is returned when a value of the wrong kind is
	// passed to an encoder.
	ErrShapeMismatch = errors.New("dop2: value shape mismatch")

	// ErrCatalogUnavailable is returned when no schema family yielded a
	// program catalog for the device.
	ErrCatalogUnavailable = errors.New("dop2: program catalog unavailable")
)
