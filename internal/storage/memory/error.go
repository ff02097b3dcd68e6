package memory

import "errors"

var (
	ErrTransactionIDNotFoundInCtx = errors.New("no transaction id found in ctx")
	ErrTransactionNotFound        = errors.New("transaction not found")
	ErrReservationOverlap         = errors.New("reservation overlaps a blocking reservation")
	ErrInvalidReservation         = errors.New("reservation check-in must be before check-out")
)
