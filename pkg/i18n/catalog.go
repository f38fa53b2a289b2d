package i18n

// builtinEnglish returns the default message catalog covering every
// built-in rule plus the engine's generic messages. Templates use
// %{field} for the control name and %{param} for the rule parameter.
func builtinEnglish() map[string]string {
	return map[string]string{
		"required":   "This field is required",
		"email":      "Please enter a valid email address",
		"url":        "Please enter a valid URL",
		"min":        "Must be at least %{param}",
		"max":        "Must be at most %{param}",
		"minlen":     "Must be at least %{param} characters",
		"maxlen":     "Must be at most %{param} characters",
		"numeric":    "Must be a number",
		"integer":    "Must be a whole number",
		"in":         "Must be one of: %{param}",
		"regex":      "Invalid format",
		"match":      "Must match the %{param} field",
		"phone":      "Please enter a valid phone number",
		"creditcard": "Please enter a valid card number",
		"date":       "Please enter a valid date",
		"unique":     "This value is already taken",
		"remote":     "This value was rejected",

		// Native constraint violations, keyed by the platform reason.
		"native.valueMissing":    "This field is required",
		"native.typeMismatch":    "Please enter a valid value",
		"native.patternMismatch": "Please match the requested format",
		"native.tooShort":        "This value is too short",
		"native.tooLong":         "This value is too long",
		"native.rangeUnderflow":  "This value is too small",
		"native.rangeOverflow":   "This value is too large",
		"native":                 "Please enter a valid value",

		// Engine-level messages.
		"validation_error": "Validation failed for this field",
		"form.errors":      "The form contains %{count} invalid fields",
		"form.error":       "The form contains 1 invalid field",
	}
}
