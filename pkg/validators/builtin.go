package validators

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/formkit/pkg/dom"
	"github.com/dmitrymomot/formkit/pkg/registry"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	urlRe   = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9][0-9\s\-().]{6,19}$`)
)

// Every rule except "required" passes on an empty value: presence is
// exclusively required's concern, so optional fields stay optional.

// Required fails on empty or whitespace-only values.
func Required(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
	if strings.TrimSpace(value) == "" {
		return registry.Result{}, nil
	}
	return registry.Pass, nil
}

// Email checks basic address shape.
func Email(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
	if value == "" || emailRe.MatchString(value) {
		return registry.Pass, nil
	}
	return registry.Result{}, nil
}

// URL accepts http and https URLs.
func URL(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
	if value == "" || urlRe.MatchString(value) {
		return registry.Pass, nil
	}
	return registry.Result{}, nil
}

// Min checks a numeric lower bound.
func Min(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
	return numericBound(value, params, func(v, bound float64) bool { return v >= bound })
}

// Max checks a numeric upper bound.
func Max(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
	return numericBound(value, params, func(v, bound float64) bool { return v <= bound })
}

func numericBound(value, params string, ok func(v, bound float64) bool) (registry.Result, error) {
	if value == "" {
		return registry.Pass, nil
	}
	bound, err := strconv.ParseFloat(params, 64)
	if err != nil {
		return registry.Result{}, ErrInvalidRuleParams
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || !ok(v, bound) {
		return registry.Result{}, nil
	}
	return registry.Pass, nil
}

// MinLen checks a minimum length in runes.
func MinLen(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
	return lengthBound(value, params, func(n, bound int) bool { return n >= bound })
}

// MaxLen checks a maximum length in runes.
func MaxLen(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
	return lengthBound(value, params, func(n, bound int) bool { return n <= bound })
}

func lengthBound(value, params string, ok func(n, bound int) bool) (registry.Result, error) {
	if value == "" {
		return registry.Pass, nil
	}
	bound, err := strconv.Atoi(params)
	if err != nil {
		return registry.Result{}, ErrInvalidRuleParams
	}
	if !ok(len([]rune(value)), bound) {
		return registry.Result{}, nil
	}
	return registry.Pass, nil
}

// Numeric accepts any parseable decimal number.
func Numeric(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
	if value == "" {
		return registry.Pass, nil
	}
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		return registry.Result{}, nil
	}
	return registry.Pass, nil
}

// Integer accepts whole numbers only.
func Integer(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
	if value == "" {
		return registry.Pass, nil
	}
	if _, err := strconv.ParseInt(value, 10, 64); err != nil {
		return registry.Result{}, nil
	}
	return registry.Pass, nil
}

// In accepts values from a comma-separated allow list.
func In(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
	if value == "" {
		return registry.Pass, nil
	}
	for _, allowed := range strings.Split(params, ",") {
		if value == strings.TrimSpace(allowed) {
			return registry.Pass, nil
		}
	}
	return registry.Result{}, nil
}

// Regex matches the value against the parameter pattern. A pattern that
// does not compile is a configuration error.
func Regex(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
	if value == "" {
		return registry.Pass, nil
	}
	re, err := regexp.Compile(params)
	if err != nil {
		return registry.Result{}, ErrInvalidRuleParams
	}
	if !re.MatchString(value) {
		return registry.Result{}, nil
	}
	return registry.Pass, nil
}

// Match compares the value against the current value of the sibling
// control named by params ("match:password").
func Match(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
	if field == nil || params == "" {
		return registry.Result{}, ErrInvalidRuleParams
	}
	other := dom.ByName(topAncestor(field), params)
	if other == nil {
		return registry.Result{}, ErrInvalidRuleParams
	}
	if value != other.Value() {
		return registry.Result{}, nil
	}
	return registry.Pass, nil
}

func topAncestor(el dom.Element) dom.Element {
	cur := el
	for cur.Parent() != nil {
		cur = cur.Parent()
	}
	return cur
}

// Phone accepts common international phone formats.
func Phone(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
	if value == "" || phoneRe.MatchString(value) {
		return registry.Pass, nil
	}
	return registry.Result{}, nil
}

// CreditCard runs a Luhn check over the digits of the value.
func CreditCard(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
	if value == "" {
		return registry.Pass, nil
	}
	digits := make([]int, 0, len(value))
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r == ' ' || r == '-':
		default:
			return registry.Result{}, nil
		}
	}
	if len(digits) < 12 || len(digits) > 19 {
		return registry.Result{}, nil
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	if sum%10 != 0 {
		return registry.Result{}, nil
	}
	return registry.Pass, nil
}

var dateLayouts = []string{"2006-01-02", "2006-01-02T15:04:05Z07:00", "01/02/2006"}

// Date accepts ISO dates, RFC 3339 timestamps, and US slash dates. A
// custom layout can be supplied as the rule parameter.
func Date(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
	if value == "" {
		return registry.Pass, nil
	}
	layouts := dateLayouts
	if params != "" {
		layouts = []string{params}
	}
	for _, layout := range layouts {
		if _, err := time.Parse(layout, value); err == nil {
			return registry.Pass, nil
		}
	}
	return registry.Result{}, nil
}
