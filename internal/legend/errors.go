package legend

import "errors"

var (
	// ErrMalformedDataset is returned when a base or patch row lacks the keys
	// needed to build a store.
	ErrMalformedDataset = errors.New("malformed legend dataset")

	// ErrUnknownTarget is returned when a patch entry references a record that
	// does not exist in the store being patched.
	ErrUnknownTarget = errors.New("unknown patch target")

	// ErrCollision is returned when a derived or aliased identifier is already
	// in use.
	ErrCollision = errors.New("identifier collision")

	// ErrUnresolved is returned by lookups that match no record.
	ErrUnresolved = errors.New("unresolved symbol")
)
