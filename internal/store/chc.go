package store

import (
	"fmt"

	"msaf/internal/problem"
)

// SetContentHostingConfiguration validates that every certificate reference
// embedded in raw resolves to a certificate of this same session, computes
// the AF-unique-id rewritten projection, and installs it. It returns a
// ValidationError (400, invalidParams:[{"param":"certificateId"}]) on a
// foreign or unknown reference, per spec.md invariant and scenario 3.
func (ps *ProvisioningSession) SetContentHostingConfiguration(raw map[string]interface{}) error {
	rewritten, err := rewriteCertificateReferences(raw, ps)
	if err != nil {
		return err
	}

	ps.CHC = &ContentHostingConfiguration{Raw: raw, Rewritten: rewritten}
	ps.Touch()
	return nil
}

// rewriteCertificateReferences walks the distributionConfigurations of a
// CHC document and replaces every "certificateId" reference with the
// matching AF-unique id, failing closed on any reference this session does
// not own.
func rewriteCertificateReferences(raw map[string]interface{}, ps *ProvisioningSession) (map[string]interface{}, error) {
	rewritten := deepCopyMap(raw)

	dcs, _ := rewritten["distributionConfigurations"].([]interface{})
	for _, item := range dcs {
		dc, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		refValue, ok := dc["certificateId"]
		if !ok {
			continue
		}
		certID, ok := refValue.(string)
		if !ok {
			return nil, problem.New(problem.KindValidation, "certificateId must be a string").
				WithParam("certificateId", "not a string")
		}

		cert, ok := ps.Certificates[certID]
		if !ok {
			return nil, problem.New(problem.KindValidation, fmt.Sprintf("unknown certificate %q", certID)).
				WithParam("certificateId", "does not belong to this provisioning session")
		}
		dc["certificateId"] = cert.AFUniqueID
	}

	return rewritten, nil
}

func deepCopyMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case map[string]interface{}:
			out[k] = deepCopyMap(val)
		case []interface{}:
			out[k] = deepCopySlice(val)
		default:
			out[k] = v
		}
	}
	return out
}

func deepCopySlice(in []interface{}) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		switch val := v.(type) {
		case map[string]interface{}:
			out[i] = deepCopyMap(val)
		case []interface{}:
			out[i] = deepCopySlice(val)
		default:
			out[i] = v
		}
	}
	return out
}
