package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateThenGetReturnsMintedSession(t *testing.T) {
	s := New()
	ps := s.Create(SessionTypeDownlink, "app1", "ext1", "asp1")
	require.NotEmpty(t, ps.ID)

	got, err := s.Get(ps.ID)
	require.NoError(t, err)
	require.Equal(t, ps.ID, got.ID)
}

func TestGetDuringDeletionReturnsNotFound(t *testing.T) {
	s := New()
	ps := s.Create(SessionTypeDownlink, "app1", "ext1", "asp1")

	require.NoError(t, s.BeginDelete(ps.ID))
	_, err := s.Get(ps.ID)
	require.Error(t, err)
}

type recordingObserver struct{ notified []string }

func (r *recordingObserver) OnProvisioningSessionDeleting(ps *ProvisioningSession) {
	r.notified = append(r.notified, ps.ID)
}

func TestBeginDeleteNotifiesObservers(t *testing.T) {
	s := New()
	obs := &recordingObserver{}
	s.Subscribe(obs)

	ps := s.Create(SessionTypeDownlink, "app1", "ext1", "asp1")
	require.NoError(t, s.BeginDelete(ps.ID))

	require.Equal(t, []string{ps.ID}, obs.notified)
}

func TestCHCRejectsForeignCertificateReference(t *testing.T) {
	s := New()
	ps := s.Create(SessionTypeDownlink, "app1", "ext1", "asp1")

	chc := map[string]interface{}{
		"distributionConfigurations": []interface{}{
			map[string]interface{}{"certificateId": "does-not-exist"},
		},
	}

	err := ps.SetContentHostingConfiguration(chc)
	require.Error(t, err)
}

func TestCHCRewritesKnownCertificateReference(t *testing.T) {
	s := New()
	ps := s.Create(SessionTypeDownlink, "app1", "ext1", "asp1")
	ps.Certificates["cert1"] = &ServerCertificate{CertificateID: "cert1", AFUniqueID: ps.ID + ":cert1", State: CertificateUploaded}

	chc := map[string]interface{}{
		"distributionConfigurations": []interface{}{
			map[string]interface{}{"certificateId": "cert1"},
		},
	}

	require.NoError(t, ps.SetContentHostingConfiguration(chc))

	dcs := ps.CHC.Rewritten["distributionConfigurations"].([]interface{})
	dc := dcs[0].(map[string]interface{})
	require.Equal(t, ps.ID+":cert1", dc["certificateId"])

	// The raw document keeps the provider's original reference.
	rawDCs := ps.CHC.Raw["distributionConfigurations"].([]interface{})
	rawDC := rawDCs[0].(map[string]interface{})
	require.Equal(t, "cert1", rawDC["certificateId"])
}

func TestSAIETagChangesOnlyWhenPSChanges(t *testing.T) {
	s := New()
	ps := s.Create(SessionTypeDownlink, "app1", "ext1", "asp1")

	first := ps.SAI()
	second := ps.SAI()
	require.Equal(t, first.ETag, second.ETag, "unchanged session must produce the same SAI etag")

	ps.PolicyTemplates["pt1"] = &PolicyTemplate{PolicyTemplateID: "pt1", State: PolicyValid}
	ps.Touch()

	third := ps.SAI()
	require.NotEqual(t, first.ETag, third.ETag, "a mutation must change the SAI etag")
}
