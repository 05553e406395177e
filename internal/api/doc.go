// Package api provides the admin HTTP API and WebSocket event feed for
// blockenergy core.
//
// Routes live under /api/v1. Health, stats and capability reads are open.
// Flushing and exporting a world need a bearer token from internal/auth with
// the matching permission. Successful flushes and exports are recorded in
// the audit log, readable at /api/v1/audit. The WebSocket feed at /api/v1/ws takes the token
// as a query parameter and streams flow tick reports, flush results and
// autosave results to subscribed clients.
//
// The server follows the same lifecycle as the other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
