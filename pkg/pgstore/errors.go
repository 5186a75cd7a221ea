package pgstore

import "errors"

var (
	ErrTxFailed   = errors.New("pgstore.tx_failed")
	ErrCorruptRow = errors.New("pgstore.corrupt_row")
)
