// Package command models the sendable operations an appliance advertises
// and builds the catalog of them from the vendor payload.
//
// # Key Types
//
//   - Command: a named operation made of parameter.Parameter values, with
//     optional sibling categories (alternative variants such as wash programs)
//   - Catalog: command name → the currently active Command for that name
//   - Loader: turns the raw nested command tree, favourites and history into
//     a Catalog
//
// # Catalog building
//
// A node is a terminal command when it carries both a description and a
// protocolType marker. Any other object is treated as a set of categories;
// each child is parsed recursively and the "setParameters" child (or the
// first child that parsed) becomes the command exposed under the name.
// Malformed nodes are logged and contribute nothing.
//
// After categories are resolved, favourites are merged as independent
// copies of their base category, and the most recent history entry for each
// command is replayed onto it. Both steps are best-effort.
//
// # Sending
//
//	cmd, _ := catalog.Lookup("startProgram")
//	res, err := cmd.Send(ctx, map[string]any{"temp": 40})
//	switch {
//	case errors.Is(err, parameter.ErrInvalidValue):    // rejected locally, nothing sent
//	case errors.Is(err, command.ErrMissingCredentials): // no session attached
//	case errors.Is(err, command.ErrTransmission):       // remote refused or transport failed
//	}
//
// # Thread Safety
//
// Commands and catalogs are not synchronised. A rebuild replaces the
// catalog wholesale and must not overlap a send or synchronisation on the
// same appliance; callers serialise these.
package command
