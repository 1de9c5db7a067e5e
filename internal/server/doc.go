// Package server implements the trust and access-control core of the
// exchange and the HTTP handlers over it: password credential handling,
// stateless bearer sessions, email-verification tokens, and single-use
// time-bounded download grants. It wires the route table, the store,
// and object storage, and provides lifecycle helpers used by tests and
// the production binary.
package server
