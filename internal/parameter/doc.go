// Package parameter implements the typed, validated settings that make up an
// appliance command.
//
// Every setting advertised by the vendor catalog is parsed into one of four
// variants, selected by the entry's declared typology:
//
//   - Fixed: a single value that callers may still overwrite
//   - Enum: a closed set of option strings, compared in normalised form
//   - Range: numeric bounds with a step; values must be step-aligned
//   - Program: the synthetic selector over a command's sibling categories
//
// Each variant carries a Kind discriminant set at construction. Callers
// dispatch on Kind (or a type switch), never on reflected type names.
//
// # Validation
//
// SetValue only commits a candidate that passes the variant's check. A
// rejected candidate returns a *ValidationError and leaves the parameter
// untouched:
//
//	temp, _ := parameter.NewRange("temp", attrs, "parameters")
//	if err := temp.SetValue(65); err != nil {
//	    var verr *parameter.ValidationError
//	    errors.As(err, &verr) // verr.Allowed describes the bounds
//	}
//
// # Triggers
//
// A trigger binds a callback and payload to a specific value. Triggers fire
// in registration order after a successful SetValue whose value matches
// (case-insensitively), and immediately on registration when the current
// value already matches.
//
// # Thread Safety
//
// Parameters are not safe for concurrent mutation. The owning appliance
// serialises catalog rebuilds, sends and synchronisation.
package parameter
