// Package guard decides whether a view that needs an authenticated session may render.
//
// Every [Guard.Check] reads the session store and, when a token is present, probes it
// with GetCurrentUser. The decision is never cached: each view entry validates again.
//
// # Architecture boundaries
//
// guard consumes goAuthClient. It owns the allow/deny decision and the redirect hook,
// nothing else. Request handling, 401 clearing and event emission stay in the Client.
//
// # What this package must NOT do
//
//   - Decode or validate tokens locally.
//   - Clear the session for anything other than a 401 probe answer.
//   - Cache a previous Allowed result.
package guard
