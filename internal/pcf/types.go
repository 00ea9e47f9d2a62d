package pcf

import "time"

// sessionKey identifies one PCF Session: a Provisioning Session scoped to
// the client (UE) address that requested network assistance on it.
type sessionKey struct {
	PSID      string
	UEAddress string
}

// Session is the per-(PS, client) PCF state from spec.md §3: the
// App-Session-Context URL, the currently active policy template, and an
// optional Delivery Boost record.
type Session struct {
	PSID                    string
	UEAddress               string
	PCFEndpoint             string
	AppSessionContextURL    string
	CurrentPolicyTemplateID string
	Boost                   *DeliveryBoost
}

// DeliveryBoost is the active boost record from spec.md §3:
// {boostedPolicyTemplateId, boostingTimer, originalPolicyTemplateId}.
// OriginalQoSReference is captured at boost time so reverting does not
// depend on the original policy template still existing unchanged.
type DeliveryBoost struct {
	BoostedPolicyTemplateID  string
	OriginalPolicyTemplateID string
	OriginalQoSReference     string
	Timer                    *time.Timer
}
