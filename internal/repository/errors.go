package repository

import "errors"

// ErrConflict is returned when a conditional write lost a race: the row no
// longer matched the state the caller read.
var ErrConflict = errors.New("concurrent modification")
