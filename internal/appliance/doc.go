// Package appliance ties a device's command catalog to its live attributes.
//
// An Appliance loads its catalog through an API (commands, favourites and
// history are fetched concurrently), keeps the attribute store fed from
// device pushes, and exposes the synchronisation operations between the
// two:
//
//   - SyncCommandToParams: command values → attribute store
//   - SyncParamsToCommand: attribute store → command values
//   - SyncCommand: one command's values → other commands
//
// Unknown command names return command.ErrUnknownCommand. Values that fail
// validation during synchronisation are reported as Failures and never
// abort the operation.
//
// A Registry indexes appliances by MAC address for the API layer.
package appliance
