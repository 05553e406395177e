// Package auth issues and verifies the bearer tokens that guard the admin
// API.
//
// Tokens are HS256 JWTs signed with security.jwt.secret. There are no user
// accounts: an operator mints a token with "blockenergy token" and hands it
// to whoever runs flushes or exports. Authorisation is a static role to
// permission table.
package auth
