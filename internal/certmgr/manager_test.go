package certmgr

import (
	"context"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"

	"msaf/internal/store"
)

// fakeExecCommandContext replaces execCommandContext with one that shells
// out to /bin/sh, letting tests control exit code and stdout without
// depending on a real certmgr binary being installed.
func fakeExecCommandContext(succeed bool, stdout string) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if succeed {
			return exec.CommandContext(ctx, "sh", "-c", fmt.Sprintf("printf %%s %q", stdout))
		}
		return exec.CommandContext(ctx, "sh", "-c", "echo ca unavailable 1>&2; exit 1")
	}
}

type recordingNotifier struct {
	uploaded []string
	deleted  []string
}

func (r *recordingNotifier) EnqueueCertificateUpload(hostnames map[string]bool, cert *store.ServerCertificate) {
	r.uploaded = append(r.uploaded, cert.AFUniqueID)
}

func (r *recordingNotifier) EnqueueCertificateDelete(hostnames map[string]bool, afUniqueID string) {
	r.deleted = append(r.deleted, afUniqueID)
}

func TestCreateSuccessWritesPEMAndNotifiesAS(t *testing.T) {
	origExec := execCommandContext
	execCommandContext = fakeExecCommandContext(true, "PEMDATA")
	defer func() { execCommandContext = origExec }()

	dir := t.TempDir()
	notifier := &recordingNotifier{}
	mgr := NewManager("certmgr", dir, notifier)

	s := store.New()
	ps := s.Create(store.SessionTypeDownlink, "app1", "ext1", "asp1")
	ps.AssignedHostnames["as1.example.com"] = true

	cert, err := mgr.Create(context.Background(), ps, "cert1")
	require.NoError(t, err)
	require.Equal(t, store.CertificateUploaded, cert.State)
	require.Equal(t, []string{ps.ID + ":cert1"}, notifier.uploaded)

	data, err := mgr.Read(cert)
	require.NoError(t, err)
	require.Equal(t, "PEMDATA", string(data))
}

func TestCreateFailureReturnsInternalProblem(t *testing.T) {
	origExec := execCommandContext
	execCommandContext = fakeExecCommandContext(false, "")
	defer func() { execCommandContext = origExec }()

	dir := t.TempDir()
	mgr := NewManager("certmgr", dir, nil)

	s := store.New()
	ps := s.Create(store.SessionTypeDownlink, "app1", "ext1", "asp1")

	_, err := mgr.Create(context.Background(), ps, "cert1")
	require.Error(t, err)
}

func TestDeleteRemovesPEMAndNotifiesAS(t *testing.T) {
	origExec := execCommandContext
	execCommandContext = fakeExecCommandContext(true, "PEMDATA")
	defer func() { execCommandContext = origExec }()

	dir := t.TempDir()
	notifier := &recordingNotifier{}
	mgr := NewManager("certmgr", dir, notifier)

	s := store.New()
	ps := s.Create(store.SessionTypeDownlink, "app1", "ext1", "asp1")
	_, err := mgr.Create(context.Background(), ps, "cert1")
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(context.Background(), ps, "cert1"))
	require.Equal(t, []string{ps.ID + ":cert1"}, notifier.deleted)
	_, exists := ps.Certificates["cert1"]
	require.False(t, exists)
}
