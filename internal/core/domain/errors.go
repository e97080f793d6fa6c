package domain

import (
	"errors"
	"fmt"
)

var (
	ErrIngestion     = errors.New("ingestion failed")
	ErrUnsupported   = errors.New("unsupported document format")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrEmptyIndex    = errors.New("index is empty")
	ErrRetrieval     = errors.New("retrieval failed")
	ErrAnswer        = errors.New("answer generation failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrTemporary     = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
