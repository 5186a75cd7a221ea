package sqlitestore

import "errors"

var (
	ErrEmptyDSN     = errors.New("sqlitestore.empty_dsn")
	ErrFailedToOpen = errors.New("sqlitestore.failed_to_open")
	ErrCorruptRow   = errors.New("sqlitestore.corrupt_row")
)
