package catboost

import (
	"github.com/YuminosukeSato/catserve/pkg/errors"
)

// Error kinds attached with errors.Mark. Match them with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrUnknown         = errors.New("unknown")
)

func invalidArgument(msg string) error {
	return errors.Mark(errors.New(msg), ErrInvalidArgument)
}
