// Package api provides the HTTP REST API and WebSocket server for hond.
//
// It exposes the appliance registry: catalogs, parameter assignment,
// category selection, sends, synchronisation, live attributes and the
// command journal. Appliance events are relayed to WebSocket clients on
// the "attributes", "commands" and "catalog" channels.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
