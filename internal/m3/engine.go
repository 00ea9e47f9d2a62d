package m3

import (
	"context"
	"os"
	"time"

	"msaf/internal/eventloop"
	"msaf/internal/store"
	"msaf/pkg/logging"
)

const subsystem = "M3Engine"

// Engine owns every AS-state node and drives their reconciliation steps on
// the event loop. It implements certmgr.UploadNotifier and
// store.DeletionObserver so the certificate manager and provisioning store
// never need to know anything about AS nodes or M3 wire formats.
type Engine struct {
	loop  *eventloop.Loop
	nodes map[string]*ASNode

	pemPaths map[string]string                 // AFUniqueID -> PEM file path, valid while queued
	chcBody  map[string]map[string]interface{} // chcID (= provisioning session id) -> rewritten body

	pendingDeletions map[string]map[string]int // psID -> hostname -> remaining queue entries to withdraw
	onDrained        func(psID string)
}

// NewEngine constructs an Engine with one ASNode per configured Application
// Server. onDrained is called once every AS node has withdrawn a deleting
// Provisioning Session's mirrors — the caller wires this to store.Finalize.
func NewEngine(loop *eventloop.Loop, servers []ServerConfig, requestTimeout time.Duration, onDrained func(psID string)) *Engine {
	e := &Engine{
		loop:             loop,
		nodes:            make(map[string]*ASNode),
		pemPaths:         make(map[string]string),
		chcBody:          make(map[string]map[string]interface{}),
		pendingDeletions: make(map[string]map[string]int),
		onDrained:        onDrained,
	}
	client := newM3Client(requestTimeout)
	for _, s := range servers {
		e.nodes[s.CanonicalHostname] = newASNode(s.CanonicalHostname, s.URLPathPrefixFormat, s.M3Port, client)
	}
	return e
}

// ServerConfig is the subset of internal/config.ApplicationServerConfig the
// engine needs; kept separate so this package does not import
// internal/config.
type ServerConfig struct {
	CanonicalHostname   string
	URLPathPrefixFormat string
	M3Port              int
}

// AllHostnames returns the canonical hostnames of every configured AS — the
// default assignment set for a newly created Provisioning Session (spec.md
// does not describe a selection mechanism narrower than "every configured
// AS").
func (e *Engine) AllHostnames() map[string]bool {
	out := make(map[string]bool, len(e.nodes))
	for h := range e.nodes {
		out[h] = true
	}
	return out
}

// EnqueueCertificateUpload implements certmgr.UploadNotifier.
func (e *Engine) EnqueueCertificateUpload(hostnames map[string]bool, cert *store.ServerCertificate) {
	e.pemPaths[cert.AFUniqueID] = cert.PEMPath
	for host := range hostnames {
		if node := e.nodes[host]; node != nil {
			node.deleteCertificates.items = removeFromQueue(node.deleteCertificates, cert.AFUniqueID)
			node.uploadCertificates.Push(cert.AFUniqueID)
			e.kick(node)
		}
	}
}

// EnqueueCertificateDelete implements certmgr.UploadNotifier.
func (e *Engine) EnqueueCertificateDelete(hostnames map[string]bool, afUniqueID string) {
	for host := range hostnames {
		if node := e.nodes[host]; node != nil {
			node.uploadCertificates.items = removeFromQueue(node.uploadCertificates, afUniqueID)
			node.deleteCertificates.Push(afUniqueID)
			e.kick(node)
		}
	}
}

// EnqueueCHCUpload mirrors a rewritten Content Hosting Configuration to
// every hostname, keyed by chcID (the owning Provisioning Session's id).
func (e *Engine) EnqueueCHCUpload(hostnames map[string]bool, chcID string, rewritten map[string]interface{}) {
	e.chcBody[chcID] = rewritten
	for host := range hostnames {
		if node := e.nodes[host]; node != nil {
			node.deleteCHCs.items = removeFromQueue(node.deleteCHCs, chcID)
			node.uploadCHCs.Push(chcID)
			e.kick(node)
		}
	}
}

// EnqueueCHCDelete mirrors withdrawal of a Content Hosting Configuration.
func (e *Engine) EnqueueCHCDelete(hostnames map[string]bool, chcID string) {
	for host := range hostnames {
		if node := e.nodes[host]; node != nil {
			node.uploadCHCs.items = removeFromQueue(node.uploadCHCs, chcID)
			node.deleteCHCs.Push(chcID)
			e.kick(node)
		}
	}
}

// EnqueuePurge enqueues a cache-purge request on every hostname.
func (e *Engine) EnqueuePurge(hostnames map[string]bool, chcID, regex string) {
	for host := range hostnames {
		if node := e.nodes[host]; node != nil {
			node.purges.Push(purgeRequest{CHCID: chcID, Regex: regex})
			e.kick(node)
		}
	}
}

// OnProvisioningSessionDeleting implements store.DeletionObserver: phase
// (i) of the two-phase deletion from spec.md §4.3. It cancels any pending
// uploads for this session and enqueues withdrawal of every certificate
// and the CHC on every AS the session was assigned to.
//
// A node is only "drained" once every queue entry it withdraws for this
// session has completed — one markWithdrawn call per enqueued certificate
// delete and per CHC delete, not one per node. pendingDeletions tracks that
// remaining count per (psID, host) so a session with two or more queued
// deletes on the same node isn't finalized after the first one lands.
func (e *Engine) OnProvisioningSessionDeleting(ps *store.ProvisioningSession) {
	hosts := make(map[string]bool, len(ps.AssignedHostnames))
	for h := range ps.AssignedHostnames {
		hosts[h] = true
	}
	if len(hosts) == 0 {
		e.onDrained(ps.ID)
		return
	}

	pending := make(map[string]int, len(hosts))
	for host := range hosts {
		if e.nodes[host] == nil {
			pending[host] = 1 // no node to drive withdrawal; counts as immediately drained below
			continue
		}
		n := len(ps.Certificates)
		if ps.CHC != nil {
			n++
		}
		if n == 0 {
			n = 1 // nothing queued for this node either; same immediate-drain treatment
		}
		pending[host] = n
	}
	e.pendingDeletions[ps.ID] = pending

	for host := range hosts {
		node := e.nodes[host]
		if node == nil || (len(ps.Certificates) == 0 && ps.CHC == nil) {
			e.markWithdrawn(ps.ID, host)
			continue
		}
		for _, cert := range ps.Certificates {
			node.uploadCertificates.items = removeFromQueue(node.uploadCertificates, cert.AFUniqueID)
			node.deleteCertificates.Push(cert.AFUniqueID)
		}
		if ps.CHC != nil {
			node.uploadCHCs.items = removeFromQueue(node.uploadCHCs, ps.ID)
			node.deleteCHCs.Push(ps.ID)
		}
		e.kick(node)
	}
}

func (e *Engine) markWithdrawn(psID, host string) {
	counts := e.pendingDeletions[psID]
	if counts == nil {
		return
	}
	if counts[host] > 0 {
		counts[host]--
	}
	if counts[host] <= 0 {
		delete(counts, host)
	}
	if len(counts) == 0 {
		delete(e.pendingDeletions, psID)
		e.onDrained(psID)
	}
}

// kick starts the node's reconciliation step if it is not already driving
// one, satisfying "at most one outstanding M3 request" (spec.md §3, §5).
func (e *Engine) kick(node *ASNode) {
	if node.inFlight {
		return
	}
	e.step(node)
}

func removeFromQueue(q *idQueue, id string) []string {
	if !q.inSet[id] {
		return q.items
	}
	delete(q.inSet, id)
	out := q.items[:0]
	for _, v := range q.items {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// step chooses the next action by the strict priority of spec.md §4.6 and
// issues exactly one HTTP request, suspending via Loop.Go until the reply
// event arrives.
func (e *Engine) step(node *ASNode) {
	switch {
	case node.currentCertificates == nil:
		e.doGetCertificates(node)
	case node.currentCHCs == nil:
		e.doGetCHCs(node)
	case !node.uploadCertificates.Empty():
		id, _ := node.uploadCertificates.Peek()
		e.doUploadCertificate(node, id)
	case !node.uploadCHCs.Empty():
		id, _ := node.uploadCHCs.Peek()
		e.doUploadCHC(node, id)
	case !node.deleteCHCs.Empty():
		id, _ := node.deleteCHCs.Peek()
		e.doDeleteCHC(node, id)
	case !node.deleteCertificates.Empty():
		id, _ := node.deleteCertificates.Peek()
		e.doDeleteCertificate(node, id)
	case !node.purges.Empty():
		req, _ := node.purges.Peek()
		e.doPurge(node, req)
	default:
		// Nothing to do; the node goes idle until the next Enqueue* call.
	}
}

// onResult is shared by every action: on success it pops the driving queue
// entry, resets backoff and re-steps; on 4xx it drops the entry (logged,
// non-retriable); on 5xx/transport error it leaves the entry at the head
// and backs off.
func (e *Engine) onResult(node *ASNode, res m3Result, onSuccess func()) {
	node.inFlight = false

	switch {
	case res.err != nil, res.status >= 500:
		delay := node.nextBackoff()
		if res.err != nil {
			logging.Warn(subsystem, "m3 request to %s failed: %v, retrying in %s", node.Hostname, res.err, delay)
		} else {
			logging.Warn(subsystem, "m3 request to %s returned %d, retrying in %s", node.Hostname, res.status, delay)
		}
		e.loop.AfterFunc(delay, func() { e.kick(node) })
	case res.status >= 400:
		logging.Warn(subsystem, "m3 request to %s returned %d, dropping non-retriable entry", node.Hostname, res.status)
		node.resetBackoff()
		onSuccess() // onSuccess here just means "advance past this entry"
		e.step(node)
	default:
		node.resetBackoff()
		onSuccess()
		e.step(node)
	}
}

func (e *Engine) doGetCertificates(node *ASNode) {
	node.inFlight = true
	e.loop.Go(func() func() {
		ids, status, err := getCertificateList(context.Background(), node)
		return func() {
			e.onResult(node, m3Result{status: status, err: err}, func() {
				if ids == nil {
					ids = []string{} // a dropped (4xx) GET must not be re-issued at once
				}
				node.currentCertificates = ids
			})
		}
	})
}

func (e *Engine) doGetCHCs(node *ASNode) {
	node.inFlight = true
	e.loop.Go(func() func() {
		ids, status, err := getCHCList(context.Background(), node)
		return func() {
			e.onResult(node, m3Result{status: status, err: err}, func() {
				if ids == nil {
					ids = []string{} // a dropped (4xx) GET must not be re-issued at once
				}
				node.currentCHCs = ids
			})
		}
	})
}

func (e *Engine) doUploadCertificate(node *ASNode, afUniqueID string) {
	pem, err := os.ReadFile(e.pemPaths[afUniqueID])
	if err != nil {
		node.uploadCertificates.Pop()
		logging.Warn(subsystem, "dropping certificate upload %s: %v", afUniqueID, err)
		e.step(node)
		return
	}

	method := "POST"
	if node.knowsCertificate(afUniqueID) {
		method = "PUT"
	}

	node.inFlight = true
	e.loop.Go(func() func() {
		status, err := putOrPostCertificate(context.Background(), node, method, afUniqueID, pem)
		return func() {
			e.onResult(node, m3Result{status: status, err: err}, func() {
				node.uploadCertificates.Pop()
				if !node.knowsCertificate(afUniqueID) {
					node.currentCertificates = append(node.currentCertificates, afUniqueID)
				}
			})
		}
	})
}

func (e *Engine) doUploadCHC(node *ASNode, chcID string) {
	body := e.chcBody[chcID]
	method := "POST"
	if node.knowsCHC(chcID) {
		method = "PUT"
	}

	node.inFlight = true
	e.loop.Go(func() func() {
		status, err := putOrPostCHC(context.Background(), node, method, chcID, body)
		return func() {
			e.onResult(node, m3Result{status: status, err: err}, func() {
				node.uploadCHCs.Pop()
				if !node.knowsCHC(chcID) {
					node.currentCHCs = append(node.currentCHCs, chcID)
				}
			})
		}
	})
}

func (e *Engine) doDeleteCHC(node *ASNode, chcID string) {
	node.inFlight = true
	e.loop.Go(func() func() {
		status, err := deleteCHC(context.Background(), node, chcID)
		return func() {
			e.onResult(node, m3Result{status: status, err: err}, func() {
				node.deleteCHCs.Pop()
				node.removeCurrentCHC(chcID)
				e.markWithdrawn(chcID, node.Hostname)
			})
		}
	})
}

func (e *Engine) doDeleteCertificate(node *ASNode, afUniqueID string) {
	node.inFlight = true
	e.loop.Go(func() func() {
		status, err := deleteCertificate(context.Background(), node, afUniqueID)
		return func() {
			e.onResult(node, m3Result{status: status, err: err}, func() {
				node.deleteCertificates.Pop()
				node.removeCurrentCertificate(afUniqueID)
				e.markWithdrawn(psIDFromAFUniqueID(afUniqueID), node.Hostname)
			})
		}
	})
}

func (e *Engine) doPurge(node *ASNode, req purgeRequest) {
	node.inFlight = true
	e.loop.Go(func() func() {
		status, err := purgeCache(context.Background(), node, req)
		return func() {
			e.onResult(node, m3Result{status: status, err: err}, func() {
				node.purges.Pop()
			})
		}
	})
}

func psIDFromAFUniqueID(afUniqueID string) string {
	for i := 0; i < len(afUniqueID); i++ {
		if afUniqueID[i] == ':' {
			return afUniqueID[:i]
		}
	}
	return afUniqueID
}
