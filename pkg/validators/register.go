package validators

import "github.com/dmitrymomot/formkit/pkg/registry"

// RegisterBuiltins installs every built-in synchronous rule into the
// given registry, typically registry.Global().
func RegisterBuiltins(r *registry.Registry) error {
	builtins := map[string]registry.Func{
		"required":   Required,
		"email":      Email,
		"url":        URL,
		"min":        Min,
		"max":        Max,
		"minlen":     MinLen,
		"maxlen":     MaxLen,
		"numeric":    Numeric,
		"integer":    Integer,
		"in":         In,
		"regex":      Regex,
		"match":      Match,
		"phone":      Phone,
		"creditcard": CreditCard,
		"date":       Date,
	}
	for name, fn := range builtins {
		if err := r.RegisterFunc(name, fn); err != nil {
			return err
		}
	}
	return nil
}
