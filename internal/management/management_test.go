package management_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"msaf/internal/eventloop"
	"msaf/internal/httpserver"
	"msaf/internal/management"
	"msaf/internal/router"
	"msaf/internal/store"
)

func startBackend(t *testing.T, rt *router.Router, addr string) {
	t.Helper()
	backend := httpserver.NewHTTP1Backend(addr, false, time.Second)
	require.NoError(t, backend.Init(rt))
	require.NoError(t, backend.Start(context.Background()))
	t.Cleanup(func() { _ = backend.Stop(context.Background()) })
}

func TestManagementEnumeratesActiveProvisioningSessionIDs(t *testing.T) {
	loop := eventloop.New(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	st := store.New()
	ps := st.Create(store.SessionTypeDownlink, "app1", "", "asp1")

	rt := router.New(loop)
	management.New(st).Register(rt)

	const addr = "127.0.0.1:18743"
	startBackend(t, rt, addr)

	resp, err := http.Get("http://" + addr + "/5gmag-rt-management/v1/provisioning-sessions")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var ids []string
	require.NoError(t, json.Unmarshal(body, &ids))
	require.Equal(t, []string{ps.ID}, ids)
}
