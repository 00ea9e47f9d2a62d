// Package eventloop implements the AF's single-threaded cooperative
// scheduler: one worker goroutine drains a queue of closures to completion,
// one at a time, so no entity in internal/store, internal/m3 or
// internal/pcf needs its own lock. Long-running I/O (an M3 request, a
// certmgr invocation, a PCF call) runs on its own goroutine; its result is
// posted back as a new closure so the continuation still runs on the single
// worker. Timers (M3 backoff, delivery-boost expiry) are implemented the
// same way: they fire on their own goroutine and post their continuation.
package eventloop
