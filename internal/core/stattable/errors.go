package stattable

import "errors"

var (
	// ErrMissingMatchData marks a match whose lineup or stats could not be
	// obtained. Never fatal at the season level.
	ErrMissingMatchData = errors.New("missing match data")

	// ErrSchemaDrift marks a table whose structure no longer matches what
	// the pipeline depends on. Always fatal.
	ErrSchemaDrift = errors.New("schema drift")

	// ErrTableNotFound is returned by stores when no table exists for a key.
	ErrTableNotFound = errors.New("table not found")
)
