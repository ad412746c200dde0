// Package transport provides the unbounded channels that carry values
// between clients and the engine worker, and the type-erased adapters the
// worker uses to drive them.
//
// A pipe has two endpoints. The Sender never blocks; the Receiver blocks
// until a value arrives or the pipe is closed. Either side may close
// independently:
//
//   - Sender.Close: no more values; values already queued are still
//     delivered, then receives report ErrClosed.
//   - Receiver.Close: queued values are discarded and every later Send
//     reports ErrClosed.
//
// Emitter and Listener wrap a Receiver and a Sender respectively so the
// worker can move ir.Value payloads without knowing the static type.
package transport
