package scrollstage

import "errors"

var (
	// ErrInvalidRegion is returned by Register for an unusable RegionConfig.
	ErrInvalidRegion = errors.New("invalid region")
	// ErrInvalidMarker is returned when a scroll marker string cannot be parsed.
	ErrInvalidMarker = errors.New("invalid marker")
	// ErrInvalidThresholds is returned for a malformed threshold table.
	ErrInvalidThresholds = errors.New("invalid threshold table")
	// ErrUnknownHandle is returned when a handle no longer names a live object.
	ErrUnknownHandle = errors.New("unknown handle")
	// ErrClosed is returned by registration calls on a closed Controller.
	ErrClosed = errors.New("controller closed")
	// ErrConfigNotFound is returned when a layout file does not exist.
	ErrConfigNotFound = errors.New("layout file not found")
)
