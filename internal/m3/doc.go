// Package m3 implements the AS reconciliation loop described in spec.md
// §4.6: one ASNode per configured Application Server, four FIFO upload/
// delete queues plus a purge queue, and a strict priority-ordered step
// function that issues exactly one M3 request at a time and suspends until
// the reply arrives. Backoff and dedup follow the same shape as
// internal/reconciler in the host project, adapted to a single outstanding
// request per node instead of a worker-pool-wide queue.
package m3
