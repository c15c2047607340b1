package ir

import "errors"

// ErrOutOfRange is returned by StringTable.Get when asked for an id
// beyond the table's current size (other than InvalidStringID).
var ErrOutOfRange = errors.New("ir: out-of-range id")
