package i18n

import (
	"errors"
	"fmt"
)

// ErrInvalidCatalog is returned when catalog content cannot be parsed.
var ErrInvalidCatalog = errors.New("i18n: invalid catalog content")

// ErrLanguageNotSupported indicates the requested language has no
// catalog and no acceptable match among supported languages.
type ErrLanguageNotSupported struct {
	Lang string
}

func (e *ErrLanguageNotSupported) Error() string {
	return fmt.Sprintf("i18n: language not supported: %s", e.Lang)
}
