package problem

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	require.Equal(t, 400, KindValidation.Status())
	require.Equal(t, 404, KindNotFound.Status())
	require.Equal(t, 409, KindConflict.Status())
	require.Equal(t, 412, KindPreconditionFailed.Status())
	require.Equal(t, 502, KindUpstream.Status())
	require.Equal(t, 504, KindTimeout.Status())
	require.Equal(t, 500, KindInternal.Status())
}

func TestToDetailsInstanceJoinsComponents(t *testing.T) {
	err := New(KindValidation, "bad certificate reference").WithParam("certificateId", "unknown")
	details := err.ToDetails("3gpp-m1", "v2", []string{"provisioning-sessions", "abc123", "content-hosting-configuration"})

	require.Equal(t, "/3gpp-m1/v2", details.Type)
	require.Equal(t, "/provisioning-sessions/abc123/content-hosting-configuration", details.Instance)
	require.Len(t, details.InvalidParams, 1)
	require.Equal(t, "certificateId", details.InvalidParams[0].Param)
}

func TestWriteSetsContentTypeAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	err := New(KindConflict, "boost already active")

	require.NoError(t, WriteError(rec, err, "3gpp-m5", "v2", []string{"network-assistance", "s1", "delivery-boost"}))

	require.Equal(t, 409, rec.Code)
	require.Equal(t, ContentType, rec.Header().Get("Content-Type"))
}
