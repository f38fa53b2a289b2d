package validators

import "errors"

// ErrInvalidRuleParams is returned when a rule is declared with a
// parameter its validator cannot interpret (unparseable bound, missing
// referenced field, broken pattern). The engine converts it into a
// generic per-field validation error.
var ErrInvalidRuleParams = errors.New("validators: invalid rule params")
