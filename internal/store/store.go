package store

import (
	"sync"

	"github.com/google/uuid"

	"msaf/internal/problem"
)

// DeletionObserver is notified when a Provisioning Session transitions to
// PSDeleting, so the M3 client engine (internal/m3) can enqueue AS-side
// withdrawals. The store itself knows nothing about AS nodes or M3 queues.
type DeletionObserver interface {
	OnProvisioningSessionDeleting(ps *ProvisioningSession)
}

// Store is the authoritative set of Provisioning Sessions, indexed by id.
// Reads and writes are expected to run on the single event-loop worker;
// the RWMutex exists only to let incidental cross-goroutine readers (debug
// endpoints, metrics) take a consistent snapshot.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*ProvisioningSession

	observers []DeletionObserver
}

// New returns an empty Store.
func New() *Store {
	return &Store{sessions: make(map[string]*ProvisioningSession)}
}

// Subscribe registers an observer notified on two-phase deletion start.
func (s *Store) Subscribe(o DeletionObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// mintID generates a process-unique identifier, matching the teacher's
// uuid.New().String() idiom for execution/session ids.
func mintID() string {
	return uuid.New().String()
}

// Create mints a new Provisioning Session and stores it.
func (s *Store) Create(sessionType SessionType, appID, externalAppID, aspID string) *ProvisioningSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := mintID()
	for s.sessions[id] != nil { // astronomically unlikely, kept for correctness
		id = mintID()
	}

	ps := NewProvisioningSession(id, sessionType, appID, externalAppID, aspID)
	s.sessions[id] = ps
	return ps
}

// Get returns the session by id. It returns NotFound for sessions that do
// not exist or are in the PSDeleting phase: M1 and M5 reads during deletion
// both surface 404 per spec.md §4.3.
func (s *Store) Get(id string) (*ProvisioningSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.sessions[id]
	if !ok || ps.Lifecycle == PSDeleting {
		return nil, problem.New(problem.KindNotFound, "provisioning session not found")
	}
	return ps, nil
}

// List returns every active (non-deleting) session id.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id, ps := range s.sessions {
		if ps.Lifecycle == PSActive {
			ids = append(ids, id)
		}
	}
	return ids
}

// BeginDelete marks a session "deleting" and notifies every registered
// observer so AS-side withdrawals get enqueued before the record is freed.
// This is phase (i) of the two-phase deletion in spec.md §4.3.
func (s *Store) BeginDelete(id string) error {
	s.mu.Lock()
	ps, ok := s.sessions[id]
	if !ok || ps.Lifecycle == PSDeleting {
		s.mu.Unlock()
		return problem.New(problem.KindNotFound, "provisioning session not found")
	}
	ps.Lifecycle = PSDeleting
	observers := append([]DeletionObserver(nil), s.observers...)
	s.mu.Unlock()

	for _, o := range observers {
		o.OnProvisioningSessionDeleting(ps)
	}
	return nil
}

// Finalize frees a session record. It must only be called once every AS
// node referencing the session has observed an empty reconciliation queue
// for it (phase (ii) of two-phase deletion).
func (s *Store) Finalize(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// ResolveCertificate looks up a certificate by its AF-unique id across all
// sessions. The M3 engine does not call it: it keeps its own AF-unique id
// to PEM path map for its upload/delete queues.
func (s *Store) ResolveCertificate(afUniqueID string) (*ServerCertificate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ps := range s.sessions {
		if cert, ok := ps.Certificates[certIDFromAFUniqueID(afUniqueID)]; ok && cert.AFUniqueID == afUniqueID {
			return cert, true
		}
	}
	return nil, false
}

func certIDFromAFUniqueID(afUniqueID string) string {
	for i := len(afUniqueID) - 1; i >= 0; i-- {
		if afUniqueID[i] == ':' {
			return afUniqueID[i+1:]
		}
	}
	return afUniqueID
}
