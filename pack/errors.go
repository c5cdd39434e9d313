package pack

import "errors"

// Sentinel fault kinds a caller can test for with errors.Is. Any other
// error returned by CompilePack/ExtractPack/RepairPack is an I/O or
// parse failure propagated with its underlying cause.
var (
	// ErrBadTarget is returned when the nedb option disagrees with the
	// target's file extension: compile requires dest to end in .db,
	// extract requires src to end in .db.
	ErrBadTarget = errors.New("pack: target extension does not match nedb option")

	// ErrMissingType is returned by a log-store extract that cannot
	// resolve a collection, neither supplied directly nor derivable
	// from DocumentType.
	ErrMissingType = errors.New("pack: could not resolve a collection for this log store")

	// ErrDuplicateKey is returned by compile when two source entries
	// resolve to the same composite key. Both backends check every key
	// before writing anything: the sorted-store path never commits its
	// batch, and the log-store path never creates or inserts into dest
	// (see DESIGN.md).
	ErrDuplicateKey = errors.New("pack: duplicate key across source entries")
)

// DuplicateKeyError reports the offending key alongside the sentinel
// so callers that want detail can unwrap it.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return "pack: duplicate key " + e.Key
}

func (e *DuplicateKeyError) Unwrap() error {
	return ErrDuplicateKey
}
