// Package jwt reads and issues the bearer tokens exchanged with the auth API.
//
// [Inspect] decodes claims without verifying the signature and is only used to show
// session details to a user. The client never trusts these claims for access
// decisions; the API stays the authority. [Manager] signs and verifies tokens and
// backs the fake API used in tests and the mock-api example.
package jwt
