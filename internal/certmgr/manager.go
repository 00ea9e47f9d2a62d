package certmgr

import (
	"context"
	"os"

	"msaf/internal/problem"
	"msaf/internal/store"
	"msaf/pkg/logging"
)

const subsystem = "CertificateManager"

// UploadNotifier is implemented by the M3 client engine: successful
// certificate creation/deletion must be mirrored to every AS assigned to
// the owning Provisioning Session.
type UploadNotifier interface {
	EnqueueCertificateUpload(hostnames map[string]bool, cert *store.ServerCertificate)
	EnqueueCertificateDelete(hostnames map[string]bool, afUniqueID string)
}

// Manager implements spec.md §4.4 on top of an Invoker and a certificate
// directory.
type Manager struct {
	invoker  *Invoker
	certDir  string
	notifier UploadNotifier
}

// NewManager constructs a Manager. notifier may be nil during tests that
// don't exercise AS propagation.
func NewManager(executablePath, certDir string, notifier UploadNotifier) *Manager {
	return &Manager{
		invoker:  &Invoker{ExecutablePath: executablePath},
		certDir:  certDir,
		notifier: notifier,
	}
}

// Reserve inserts a CertificateReserved record for the caller-supplied
// certificateID (with its AF-unique id) into ps.Certificates, returning a
// Conflict problem if that id is already present. It mutates ps directly, so callers that
// split certificate creation around the certmgr suspension point (spec.md
// §4.9/§5) must run Reserve on the event-loop goroutine, before handing off
// to Issue.
func (m *Manager) Reserve(ps *store.ProvisioningSession, certificateID string) (*store.ServerCertificate, error) {
	if _, exists := ps.Certificates[certificateID]; exists {
		return nil, problem.New(problem.KindConflict, "certificate already exists")
	}

	cert := &store.ServerCertificate{
		CertificateID: certificateID,
		AFUniqueID:    AFUniqueID(ps.ID, certificateID),
		State:         store.CertificateReserved,
	}
	ps.Certificates[certificateID] = cert
	return cert, nil
}

// Issue invokes certmgr's "newcert" and writes the returned PEM to disk.
// It touches only cert's own file on disk, never ps or cert's fields, so it
// is the one step callers may run off the event-loop goroutine.
func (m *Manager) Issue(ctx context.Context, cert *store.ServerCertificate) (string, error) {
	pem, err := m.invoker.Invoke(ctx, VerbNewCert, cert.AFUniqueID)
	if err != nil {
		return "", problem.Wrap(problem.KindInternal, "certificate authority error", err)
	}

	if err := ensureDir(m.certDir); err != nil {
		return "", problem.Wrap(problem.KindInternal, "certificate storage error", err)
	}
	path := pemPath(m.certDir, cert.AFUniqueID)
	if err := os.WriteFile(path, pem, 0o600); err != nil {
		return "", problem.Wrap(problem.KindInternal, "certificate storage error", err)
	}
	return path, nil
}

// Finalize applies a successful Issue's result: it transitions cert to
// uploaded, invalidates ps's SAI cache and enqueues the upload on every AS
// assigned to ps. Like Reserve, it mutates ps directly and must run on the
// event-loop goroutine — the continuation that resumes after Issue.
func (m *Manager) Finalize(ps *store.ProvisioningSession, cert *store.ServerCertificate, path string) {
	cert.PEMPath = path
	cert.State = store.CertificateUploaded
	ps.Touch()

	logging.Audit(logging.AuditEvent{Action: "certificate_issue", Outcome: "success", SessionID: logging.TruncateID(ps.ID), Target: cert.AFUniqueID})

	if m.notifier != nil {
		m.notifier.EnqueueCertificateUpload(ps.AssignedHostnames, cert)
	}
}

// Abort undoes a Reserve whose Issue failed, so a retried POST with the
// same certificateId is not blocked by a stale reservation. Must run on the
// event-loop goroutine. Returns err unchanged, for use in a continuation's
// return statement.
func (m *Manager) Abort(ps *store.ProvisioningSession, cert *store.ServerCertificate, err error) error {
	delete(ps.Certificates, cert.CertificateID)
	logging.Audit(logging.AuditEvent{Action: "certificate_issue", Outcome: "failure", SessionID: logging.TruncateID(ps.ID), Error: err.Error()})
	return err
}

// Create reserves, issues and finalizes a certificate in one synchronous
// call: Reserve, then Issue, then Finalize/Abort. It is for callers not
// bound by the event loop's suspend/resume discipline (tests, and anything
// invoked outside the loop goroutine); internal/m1's FSM calls Reserve,
// Issue and Finalize separately across its Loop.Go suspension point instead
// of calling this directly.
func (m *Manager) Create(ctx context.Context, ps *store.ProvisioningSession, certificateID string) (*store.ServerCertificate, error) {
	cert, err := m.Reserve(ps, certificateID)
	if err != nil {
		return nil, err
	}

	path, err := m.Issue(ctx, cert)
	if err != nil {
		return nil, m.Abort(ps, cert, err)
	}

	m.Finalize(ps, cert, path)
	return cert, nil
}

// Read returns the stored PEM bytes without re-invoking certmgr.
func (m *Manager) Read(cert *store.ServerCertificate) ([]byte, error) {
	if cert.State == store.CertificateReserved {
		return nil, problem.New(problem.KindNotFound, "certificate has no PEM yet")
	}
	data, err := os.ReadFile(cert.PEMPath)
	if err != nil {
		return nil, problem.Wrap(problem.KindInternal, "reading certificate", err)
	}
	return data, nil
}

// LookupForDelete returns the certificate to delete by id, for a caller
// that needs to split Revoke around the event-loop suspension point.
func (m *Manager) LookupForDelete(ps *store.ProvisioningSession, certificateID string) (*store.ServerCertificate, error) {
	cert, ok := ps.Certificates[certificateID]
	if !ok {
		return nil, problem.New(problem.KindNotFound, "certificate not found")
	}
	return cert, nil
}

// Revoke invokes certmgr's "revoke" and removes the PEM file from disk. It
// touches only cert's own file, never ps or cert's fields, so it is the one
// step callers may run off the event-loop goroutine.
func (m *Manager) Revoke(ctx context.Context, cert *store.ServerCertificate) {
	if _, err := m.invoker.Invoke(ctx, VerbRevoke, cert.AFUniqueID); err != nil {
		logging.Warn(subsystem, "revoke failed for %s: %v", cert.AFUniqueID, err)
	}
	if cert.PEMPath != "" {
		_ = os.Remove(cert.PEMPath)
	}
}

// FinalizeDelete removes cert from ps.Certificates and enqueues its
// withdrawal on every AS that had it. Like Reserve/Finalize, it mutates ps
// directly and must run on the event-loop goroutine.
func (m *Manager) FinalizeDelete(ps *store.ProvisioningSession, cert *store.ServerCertificate) {
	delete(ps.Certificates, cert.CertificateID)
	ps.Touch()

	if m.notifier != nil {
		m.notifier.EnqueueCertificateDelete(ps.AssignedHostnames, cert.AFUniqueID)
	}
}

// Delete revokes and removes a certificate, enqueuing its withdrawal on
// every AS that had it, in one synchronous call. Like Create, it is for
// callers not bound by the event loop's suspend/resume discipline;
// internal/m1's FSM calls LookupForDelete, Revoke and FinalizeDelete
// separately across its Loop.Go suspension point instead.
func (m *Manager) Delete(ctx context.Context, ps *store.ProvisioningSession, certificateID string) error {
	cert, err := m.LookupForDelete(ps, certificateID)
	if err != nil {
		return err
	}

	m.Revoke(ctx, cert)
	m.FinalizeDelete(ps, cert)
	return nil
}
