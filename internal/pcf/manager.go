package pcf

import (
	"context"
	"net/http"
	"time"

	"msaf/internal/config"
	"msaf/internal/eventloop"
	"msaf/internal/problem"
	"msaf/internal/store"
	"msaf/pkg/logging"
)

const subsystem = "PCF"

// defaultBoostDuration is spec.md §4.8's "boost-duration timer ... default
// 20 s", used when NetworkAssistanceConfig.DeliveryBoostSeconds is unset.
const defaultBoostDuration = 20 * time.Second

// Manager owns the BSF discovery cache and every active PCF Session,
// implementing spec.md §4.8 (C8). Every exported method runs on the
// event-loop goroutine; HTTP calls to BSF or PCF are issued via
// eventloop.Loop.Go, the same suspend/resume idiom internal/m1 uses for
// certmgr invocations (spec.md §5's suspension points (a) and (c)).
type Manager struct {
	loop          *eventloop.Loop
	client        *http.Client
	bsf           *bsfCache
	boostDuration time.Duration

	sessions map[sessionKey]*Session
}

// New constructs a Manager from the network-assistance and 5G-Core
// endpoint configuration.
func New(loop *eventloop.Loop, cfg config.NetworkAssistanceConfig, bsfEndpoint string, requestTimeout time.Duration) *Manager {
	boost := time.Duration(cfg.DeliveryBoostSeconds) * time.Second
	if boost <= 0 {
		boost = defaultBoostDuration
	}
	client := &http.Client{Timeout: requestTimeout}
	return &Manager{
		loop:          loop,
		client:        client,
		bsf:           newBSFCache(bsfEndpoint, client),
		boostDuration: boost,
		sessions:      make(map[sessionKey]*Session),
	}
}

// selectBoostTemplates picks ps's boosted and default policy templates per
// SPEC_FULL.md §3's supplemented `isBoostable` field: exactly one distinct,
// always-valid template is nominated as the boost target, separate from
// the session's default (non-boostable, valid) template.
func selectBoostTemplates(ps *store.ProvisioningSession) (boosted, original *store.PolicyTemplate, err error) {
	for _, pt := range ps.PolicyTemplates {
		if pt.IsBoostable && pt.State == store.PolicyValid {
			boosted = pt
			break
		}
	}
	if boosted == nil {
		return nil, nil, problem.New(problem.KindNotFound, "no boostable policy template configured for this session")
	}
	for _, pt := range ps.PolicyTemplates {
		if pt.PolicyTemplateID != boosted.PolicyTemplateID && pt.State == store.PolicyValid && !pt.IsBoostable {
			original = pt
			break
		}
	}
	if original == nil {
		return nil, nil, problem.New(problem.KindNotFound, "no default policy template to boost from")
	}
	return boosted, original, nil
}

// RequestBoost implements the delivery-boost lifecycle: select the PS's
// boosted policy template, establish (or reuse) the PCF Session for
// ueAddress, PATCH its App-Session-Context to the boosted QoS reference,
// start the boost timer, and invoke done with the outcome. done always
// runs on the event-loop goroutine. A second concurrent boost on the same
// (PS, ueAddress) pair returns Conflict per spec.md §4.8.
func (m *Manager) RequestBoost(ps *store.ProvisioningSession, ueAddress string, done func(error)) {
	boosted, original, err := selectBoostTemplates(ps)
	if err != nil {
		done(err)
		return
	}

	key := sessionKey{PSID: ps.ID, UEAddress: ueAddress}
	if session, ok := m.sessions[key]; ok {
		if session.Boost != nil {
			done(problem.New(problem.KindConflict, "delivery boost already active for this session"))
			return
		}
		m.patchBoost(session, boosted, original, done)
		return
	}

	aspID := ps.ASPID
	m.loop.Go(func() func() {
		pcfEndpoint, bsfErr := m.bsf.resolve(context.Background(), ueAddress)
		if bsfErr != nil {
			return func() { done(problem.Wrap(problem.KindUpstream, "BSF discovery failed", bsfErr)) }
		}
		asURL, createErr := createAppSessionContext(context.Background(), m.client, pcfEndpoint, ueAddress, aspID, original.QoSReference)
		return func() {
			if createErr != nil {
				done(problem.Wrap(problem.KindUpstream, "PCF app session establishment failed", createErr))
				return
			}
			session := &Session{
				PSID:                    ps.ID,
				UEAddress:               ueAddress,
				PCFEndpoint:             pcfEndpoint,
				AppSessionContextURL:    asURL,
				CurrentPolicyTemplateID: original.PolicyTemplateID,
			}
			m.sessions[key] = session
			m.patchBoost(session, boosted, original, done)
		}
	})
}

func (m *Manager) patchBoost(session *Session, boosted, original *store.PolicyTemplate, done func(error)) {
	m.loop.Go(func() func() {
		err := patchAppSessionContext(context.Background(), m.client, session.AppSessionContextURL, boosted.QoSReference)
		return func() {
			if err != nil {
				done(problem.Wrap(problem.KindUpstream, "PCF app session update failed", err))
				return
			}
			session.CurrentPolicyTemplateID = boosted.PolicyTemplateID
			timer := m.loop.AfterFunc(m.boostDuration, func() { m.revertBoost(session) })
			session.Boost = &DeliveryBoost{
				BoostedPolicyTemplateID:  boosted.PolicyTemplateID,
				OriginalPolicyTemplateID: original.PolicyTemplateID,
				OriginalQoSReference:     original.QoSReference,
				Timer:                    timer,
			}
			done(nil)
		}
	})
}

// revertBoost fires on the boost timer's expiry (runs on the event-loop
// goroutine via Loop.AfterFunc) and patches the AppSessionContext back to
// the original QoS reference captured at boost time.
func (m *Manager) revertBoost(session *Session) {
	boost := session.Boost
	if boost == nil {
		return
	}
	logging.Info(subsystem, "delivery boost expired for %s/%s, reverting to %s", session.PSID, session.UEAddress, boost.OriginalPolicyTemplateID)

	asURL := session.AppSessionContextURL
	qos := boost.OriginalQoSReference
	originalID := boost.OriginalPolicyTemplateID
	m.loop.Go(func() func() {
		err := patchAppSessionContext(context.Background(), m.client, asURL, qos)
		return func() {
			if err != nil {
				logging.Warn(subsystem, "reverting delivery boost for %s/%s failed: %v", session.PSID, session.UEAddress, err)
			}
			session.CurrentPolicyTemplateID = originalID
			session.Boost = nil
		}
	})
}

// OnProvisioningSessionDeleting implements store.DeletionObserver: it tears
// down every PCF Session established for ps, since a deleted Provisioning
// Session can no longer be served Service Access Information.
func (m *Manager) OnProvisioningSessionDeleting(ps *store.ProvisioningSession) {
	for key, session := range m.sessions {
		if key.PSID != ps.ID {
			continue
		}
		delete(m.sessions, key)
		if session.Boost != nil && session.Boost.Timer != nil {
			session.Boost.Timer.Stop()
		}
		asURL := session.AppSessionContextURL
		psID := ps.ID
		m.loop.Go(func() func() {
			if err := deleteAppSessionContext(context.Background(), m.client, asURL); err != nil {
				logging.Warn(subsystem, "tearing down PCF session for %s failed: %v", psID, err)
			}
			return nil
		})
	}
}
