// Package rules parses pipe-delimited validation rule declarations such
// as "required|min:8|match:password" into ordered rule descriptors.
//
// Parsing is pure and side-effect free: no rule-name validation happens
// here, and identical input always yields identical output, so parsed
// configuration can be cached per field.
package rules
