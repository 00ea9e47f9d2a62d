package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// serviceAccessInformation is the wire shape of the Service Access
// Information document, derived from the session's CHC and valid policy
// templates.
type serviceAccessInformation struct {
	ProvisioningSessionID string                   `json:"provisioningSessionId"`
	ContentHostingConfig  map[string]interface{}   `json:"contentHostingConfiguration,omitempty"`
	PolicyTemplateIDs     []string                 `json:"policyTemplateIds,omitempty"`
	ClientID              string                   `json:"externalApplicationId"`
}

// SAI returns the memoised Service Access Information for ps, recomputing
// and re-caching it if no entry exists or a prior mutation invalidated it.
func (ps *ProvisioningSession) SAI() *SAICacheEntry {
	if ps.saiCache != nil && ps.saiCache.Generation == ps.saiGeneration {
		return ps.saiCache
	}

	doc := serviceAccessInformation{
		ProvisioningSessionID: ps.ID,
		ClientID:              ps.ExternalAppID,
	}
	if ps.CHC != nil {
		doc.ContentHostingConfig = ps.CHC.Rewritten
	}
	for id, pt := range ps.PolicyTemplates {
		if pt.State == PolicyValid {
			doc.PolicyTemplateIDs = append(doc.PolicyTemplateIDs, id)
		}
	}

	body, _ := json.Marshal(doc)
	sum := sha256.Sum256(body)

	entry := &SAICacheEntry{
		JSON:         body,
		ETag:         `"` + hex.EncodeToString(sum[:]) + `"`,
		LastModified: ps.LastModified,
		Generation:   ps.saiGeneration,
	}
	ps.saiCache = entry
	return entry
}
