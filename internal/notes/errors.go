package notes

import "errors"

var (
	ErrEmptyField      = errors.New("note title or content empty")
	ErrPersistWrite    = errors.New("persist notes")
	ErrInvalidDeadline = errors.New("invalid deadline")
)
