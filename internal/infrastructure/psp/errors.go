package psp

import (
	"errors"
	"fmt"
)

type PspError struct {
	StatusCode int
	Message    string
}

func (e *PspError) Error() string {
	return fmt.Sprintf("psp error: %s (status: %d)", e.Message, e.StatusCode)
}

func (e *PspError) IsRetryable() bool {
	return e.StatusCode >= 500
}

func IsPspError(err error) (*PspError, bool) {
	var pspErr *PspError
	ok := errors.As(err, &pspErr)
	return pspErr, ok
}
