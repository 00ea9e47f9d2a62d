package m3

import (
	"net/http"
	"time"
)

// initialBackoff, maxBackoff are the bounds spec.md §4.6 prescribes for
// AS reconciliation retries: "initial 1 s, cap 60 s, reset on success".
const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 60 * time.Second
)

// ASNode is the per-Application-Server reconciliation state from spec.md
// §3: the set of Provisioning Sessions assigned to it, its last-known
// current_* lists, the four upload/delete queues and the purge queue, and
// a reference to its M3 client. At most one M3 request is ever in flight
// for a given node (spec.md §3 invariant, §5 ordering guarantee).
type ASNode struct {
	Hostname             string
	URLPathPrefixFormat   string
	M3Port               int

	currentCertificates []string // nil until first GET succeeds
	currentCHCs         []string // nil until first GET succeeds

	uploadCertificates *idQueue
	uploadCHCs         *idQueue
	deleteCertificates *idQueue
	deleteCHCs         *idQueue
	purges             *purgeQueue

	inFlight bool
	backoff  time.Duration

	client *http.Client
}

func newASNode(hostname, prefixFormat string, port int, client *http.Client) *ASNode {
	return &ASNode{
		Hostname:            hostname,
		URLPathPrefixFormat: prefixFormat,
		M3Port:              port,
		uploadCertificates:  newIDQueue(),
		uploadCHCs:          newIDQueue(),
		deleteCertificates:  newIDQueue(),
		deleteCHCs:          newIDQueue(),
		purges:              &purgeQueue{},
		backoff:             initialBackoff,
		client:              client,
	}
}

func (n *ASNode) knowsCertificate(id string) bool {
	for _, c := range n.currentCertificates {
		if c == id {
			return true
		}
	}
	return false
}

func (n *ASNode) knowsCHC(id string) bool {
	for _, c := range n.currentCHCs {
		if c == id {
			return true
		}
	}
	return false
}

func (n *ASNode) removeCurrentCertificate(id string) {
	n.currentCertificates = removeString(n.currentCertificates, id)
}

func (n *ASNode) removeCurrentCHC(id string) {
	n.currentCHCs = removeString(n.currentCHCs, id)
}

func (n *ASNode) resetBackoff() { n.backoff = initialBackoff }

func (n *ASNode) nextBackoff() time.Duration {
	d := n.backoff
	n.backoff *= 2
	if n.backoff > maxBackoff {
		n.backoff = maxBackoff
	}
	return d
}

func removeString(ss []string, target string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}
