package pcf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type appSessionContextRequest struct {
	UEAddress    string `json:"ueIpv4Addr,omitempty"`
	AspID        string `json:"aspId"`
	QoSReference string `json:"qosReference"`
}

type appSessionContextResponse struct {
	SelfURL string `json:"self"`
}

// createAppSessionContext establishes an Npcf_PolicyAuthorization
// AppSessionContext for ueAddress against the current QoS reference,
// returning the URL subsequent updates and deletion target.
func createAppSessionContext(ctx context.Context, client *http.Client, pcfEndpoint, ueAddress, aspID, qosReference string) (string, error) {
	payload, err := json.Marshal(appSessionContextRequest{UEAddress: ueAddress, AspID: aspID, QoSReference: qosReference})
	if err != nil {
		return "", err
	}
	reqURL := pcfEndpoint + "/npcf-policyauthorization/v1/app-sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("PCF app session creation returned %d", resp.StatusCode)
	}

	var body appSessionContextResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.SelfURL == "" {
		body.SelfURL = resp.Header.Get("Location")
	}
	return body.SelfURL, nil
}

// patchAppSessionContext moves an established AppSessionContext to a new
// QoS reference — the PATCH spec.md §4.8 issues for both boost and revert.
func patchAppSessionContext(ctx context.Context, client *http.Client, appSessionContextURL, qosReference string) error {
	payload, err := json.Marshal(map[string]string{"qosReference": qosReference})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, appSessionContextURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/merge-patch+json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("PCF app session update returned %d", resp.StatusCode)
	}
	return nil
}

// deleteAppSessionContext tears down an AppSessionContext on session end.
func deleteAppSessionContext(ctx context.Context, client *http.Client, appSessionContextURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, appSessionContextURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("PCF app session deletion returned %d", resp.StatusCode)
	}
	return nil
}
