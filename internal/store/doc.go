// Package store holds the authoritative in-memory Provisioning Session
// entities and their derived projections: server certificates, the Content
// Hosting Configuration and its AF-unique-id rewritten projection, policy
// templates, reporting configurations, the AS hostnames each session is
// assigned to and the memoised Service Access Information document. Per-AS
// reconciliation state lives in internal/m3, not here.
//
// Every exported mutation runs on the single event-loop worker (internal/eventloop);
// the package itself does not serialize access beyond the RWMutex a
// handful of cross-goroutine read paths (metrics, debug dumps) need.
package store
