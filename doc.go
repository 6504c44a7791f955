// Package goAuthClient provides a session-bound client for a token-authenticated
// login / register / dashboard API.
//
// One [Client] is shared by every view of a program. It owns a single credential
// slot ([session.Store]) scoped to the API origin, attaches the stored token to
// every request, and discards it the moment the API answers 401. Views call the
// auth and protected operations and never touch the token themselves.
//
// # Architecture boundaries
//
// goAuthClient is the public surface: [Client], [Builder], [Config], the sentinel
// errors and the response types. Token persistence lives in package session and
// route protection in package guard. Exporters for [MetricsSnapshot] live under
// metrics/export.
//
// # What this package must NOT do
//
//   - Validate, decode or refresh tokens on the client side.
//   - Retry requests or apply timeouts beyond Config.HTTP.Timeout and the caller's context.
//   - Mutate the session store as an error side effect for anything other than a 401.
//   - Navigate. Session events go to the EventSink registered by the program.
package goAuthClient
