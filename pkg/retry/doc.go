// Package retry provides combinators that transparently re-run failing
// operations and streams.
//
// The core idea is that when an operation fails its internal state is
// undefined, so it cannot simply be resumed. Instead the caller provides a
// factory that creates a fresh operation for every attempt, and an error
// handler that decides, for each encountered error, which route to take:
// try again immediately, wait and then try again, or give up and forward
// the error.
//
// Streams are handled slightly differently. A stream is a natural producer
// of new items, so no factory is needed; the stream is simply polled again
// according to the handler's decision, and every produced item is paired
// with the number of attempts it took to obtain it.
//
// Typical usages are establishing connections, RPC calls, and accepting
// connections on a listener. See the examples folder for a TCP echo server
// built on a retrying accept loop.
package retry
