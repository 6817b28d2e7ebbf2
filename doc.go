// Package moonmock is an in-memory stand-in for a Redis server.
//
// An Engine stores strings, lists, hashes, sets and sorted sets under string
// keys and mirrors the command semantics of the server closely enough to back
// unit tests. Commands are available as typed methods (Get, LPush, ZAdd...)
// and by name through Call, which accepts server-order arguments the way a
// script bridge or a command shell issues them.
//
// Key deadlines are enforced when DoExpire runs, or on access when the engine
// is created with Options.LazyExpire. Pipelines buffer commands until Exec
// and support WATCH-based optimistic transactions.
package moonmock
