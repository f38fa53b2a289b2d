package rules

import "strings"

// Rule is one named, optionally parameterized validation check parsed
// from a declaration string. Params is empty when the rule carries no
// parameter ("required" vs "min:8").
type Rule struct {
	Name   string
	Params string
}

// HasParams reports whether the rule was declared with a parameter.
func (r Rule) HasParams() bool { return r.Params != "" }

// Parse splits a pipe-delimited rule declaration into an ordered rule
// list. Each token is split on its first colon only, so parameters may
// themselves contain colons ("between:1:10" yields params "1:10").
//
// Parse never validates rule names; unknown names are a runtime concern
// for the engine. Empty input and empty tokens yield no rules. The
// function is pure and deterministic, which lets callers cache its
// output alongside field configuration.
func Parse(declaration string) []Rule {
	declaration = strings.TrimSpace(declaration)
	if declaration == "" {
		return nil
	}

	tokens := strings.Split(declaration, "|")
	out := make([]Rule, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		name, params, _ := strings.Cut(token, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, Rule{Name: name, Params: params})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// String re-serializes the rule in declaration form.
func (r Rule) String() string {
	if r.Params == "" {
		return r.Name
	}
	return r.Name + ":" + r.Params
}
