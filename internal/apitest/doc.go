// Package apitest is an in-process stand-in for the remote auth / dashboard API.
//
// It speaks the same JSON shapes and status codes as the production backend:
// application errors as {"error": ...}, token failures as 401 {"msg": ...}, and
// register answering 201 with an access_token. Tests drive it through httptest;
// examples/mock-api serves it on a real port.
package apitest
