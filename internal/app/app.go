// Package app wires the AF's components together from a loaded
// internal/config.Config: the event loop, provisioning store, certificate
// manager, M3 engine, PCF/BSF manager, router and HTTP backends. It is the
// single place that knows how all of spec.md's components fit together;
// every package it imports stays ignorant of the others.
package app

import (
	"context"
	"fmt"
	"time"

	"msaf/internal/certmgr"
	"msaf/internal/config"
	"msaf/internal/eventloop"
	"msaf/internal/httpserver"
	"msaf/internal/m1"
	"msaf/internal/m3"
	"msaf/internal/m5"
	"msaf/internal/management"
	"msaf/internal/pcf"
	"msaf/internal/router"
	"msaf/internal/store"
	"msaf/pkg/logging"
)

const subsystem = "App"

// eventQueueDepth bounds the event loop's pending-closure channel. spec.md
// does not size this; it is chosen generously since posting never blocks
// the HTTP goroutines for long (Dispatch only posts one closure per
// request).
const eventQueueDepth = 4096

// apiInfo names the (title, version) pair the "Server:" header's resource
// family info block carries, per spec.md §4.1. Keyed by the wire service
// name each resource family is registered under.
type apiInfo struct {
	title   string
	version string
}

var apiInfoByService = map[string]apiInfo{
	router.ServiceM1: {title: "5G Media Streaming: 5GMSd AF M1", version: "2.2.0"},
	router.ServiceM3: {title: "5G Media Streaming: 5GMSd AF M3", version: "2.2.0"},
	router.ServiceM5: {title: "5G Media Streaming: 5GMSd AF M5", version: "2.2.0"},
}

// ConfigError wraps a failure to load or validate configuration. cmd
// inspects it to choose exit code 1.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "configuration error: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// BindError wraps a failure to bind one of the configured listening
// sockets. cmd inspects it to choose exit code 2.
type BindError struct {
	Endpoint string
	Err      error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("binding endpoint %q: %v", e.Endpoint, e.Err)
}
func (e *BindError) Unwrap() error { return e.Err }

// Application owns every long-lived component and the event loop that
// drives them.
type Application struct {
	cfg *config.Config

	loop     *eventloop.Loop
	store    *store.Store
	certs    *certmgr.Manager
	m3Engine *m3.Engine
	pcfMgr   *pcf.Manager
	rt       *router.Router

	backends []httpserver.Backend
}

// New loads configuration from path and constructs every component, but
// does not bind any socket yet — that happens in Run, so bind failures
// surface from Run's error rather than from New.
func New(path string) (*Application, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	return newFromConfig(cfg), nil
}

func newFromConfig(cfg *config.Config) *Application {
	loop := eventloop.New(eventQueueDepth)
	st := store.New()

	servers := make([]m3.ServerConfig, 0, len(cfg.ApplicationServers))
	for _, as := range cfg.ApplicationServers {
		servers = append(servers, m3.ServerConfig{
			CanonicalHostname:   as.CanonicalHostname,
			URLPathPrefixFormat: as.URLPathPrefixFormat,
			M3Port:              as.M3Port,
		})
	}
	engine := m3.NewEngine(loop, servers, cfg.RequestTimeout, st.Finalize)
	st.Subscribe(engine)

	pcfMgr := pcf.New(loop, cfg.NetworkAssistance, cfg.BSFEndpoint, cfg.RequestTimeout)
	st.Subscribe(pcfMgr)

	certs := certmgr.NewManager(cfg.CertificateManager, cfg.CertificateDir, engine)

	rt := router.New(loop)
	rt.SetServerHeaderProvider(serverHeaderProvider(cfg.ServerName, cfg.APIRelease))

	m1FSM := m1.NewFSM(st, certs, engine, loop, buildTime)
	m1FSM.Register(rt)

	m5FSM := &m5.FSM{
		Store:                 st,
		PCF:                   pcfMgr,
		DataCollectionDir:     cfg.DataCollectionDir,
		SAICacheControlMaxAge: cfg.SAICacheControlMaxAge,
	}
	m5FSM.Register(rt)

	mgmt := management.New(st)
	mgmt.Register(rt)

	return &Application{
		cfg:      cfg,
		loop:     loop,
		store:    st,
		certs:    certs,
		m3Engine: engine,
		pcfMgr:   pcfMgr,
		rt:       rt,
	}
}

// buildTime stands in for the embedded Content Protocols Discovery
// document's on-disk mtime (see internal/m1.NewFSM); process start time is
// as close an approximation as a compiled-in byte slice can carry.
var buildTime = time.Now()

// serverHeaderProvider renders the "Server:" header value for a matched
// resource family's service name as "<serverName>/<apiRelease>
// (info.title=...; info.version=...)", or just "<serverName>/<apiRelease>"
// for a service with no apiInfoByService entry. The value has no "5GMSdAF-"
// prefix and no trailing "<name>/<version>" product token.
func serverHeaderProvider(serverName, apiRelease string) func(serviceName string) string {
	return func(serviceName string) string {
		info, ok := apiInfoByService[serviceName]
		if !ok {
			return fmt.Sprintf("%s/%s", serverName, apiRelease)
		}
		return fmt.Sprintf("%s/%s (info.title=%s; info.version=%s)", serverName, apiRelease, info.title, info.version)
	}
}

// Run binds every configured endpoint, starts the event loop and blocks
// until ctx is cancelled, then stops every backend and the loop in turn.
func (a *Application) Run(ctx context.Context) error {
	for _, ep := range a.cfg.Endpoints {
		addr := fmt.Sprintf("%s:%d", ep.Address, ep.Port)
		var backend httpserver.Backend
		switch ep.Protocol {
		case config.ProtocolHTTP2:
			backend = httpserver.NewHTTP2Backend(addr, ep.TLS, a.cfg.RequestTimeout)
		default:
			backend = httpserver.NewHTTP1Backend(addr, ep.TLS, a.cfg.RequestTimeout)
		}
		if err := backend.Init(a.rt); err != nil {
			return &BindError{Endpoint: ep.Name, Err: err}
		}
		if err := backend.Start(ctx); err != nil {
			return &BindError{Endpoint: ep.Name, Err: err}
		}
		a.backends = append(a.backends, backend)
		logging.Info(subsystem, "endpoint %q listening on %s (%s)", ep.Name, addr, ep.Protocol)
	}

	a.loop.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, backend := range a.backends {
		if err := backend.Stop(shutdownCtx); err != nil {
			logging.Warn(subsystem, "error stopping backend: %v", err)
		}
		if err := backend.Finalize(); err != nil {
			logging.Warn(subsystem, "error finalizing backend: %v", err)
		}
	}
	return nil
}
