// Package audit delivers client audit events to a [Sink] off the caller's
// goroutine.
//
// A [Dispatcher] owns a bounded queue. When the queue is full it either drops
// the event and counts the drop, or blocks the emitter, depending on its
// configuration. Deciding which events exist is left to the client and the
// flow functions; this package only buffers and delivers.
package audit
