// Package hon is the HTTPS client for the appliance vendor cloud.
//
// It implements the calls the appliance layer needs:
//   - LoadCommands: the raw command tree (GET /commands/v1/retrieve)
//   - LoadFavourites: saved presets (GET /commands/v1/favourite)
//   - LoadCommandHistory: recently sent commands (GET /commands/v1/appliance/{mac}/history)
//   - LoadAttributes: the current attribute snapshot (GET /commands/v1/context)
//   - SendCommand: transmit a command (POST /commands/v1/send)
//
// Every request carries the id-token and cognito-token headers held by a
// Session. Tokens are supplied by configuration; this package never runs a
// login flow. An id token that is missing or past its JWT expiry fails the
// call with command.ErrMissingCredentials before anything is sent.
package hon
