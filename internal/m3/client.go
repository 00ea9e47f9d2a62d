package m3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// m3Result is the outcome of one M3 HTTP round-trip as observed by the
// event-loop continuation.
type m3Result struct {
	status int
	err    error
}

func newM3Client(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (n *ASNode) baseURL() string {
	return fmt.Sprintf("http://%s:%d/3gpp-m3/v1", n.Hostname, n.M3Port)
}

func getCertificateList(ctx context.Context, n *ASNode) ([]string, int, error) {
	return getIDList(ctx, n, n.baseURL()+"/certificates")
}

func getCHCList(ctx context.Context, n *ASNode) ([]string, int, error) {
	return getIDList(ctx, n, n.baseURL()+"/content-hosting-configurations")
}

func getIDList(ctx context.Context, n *ASNode, reqURL string) ([]string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, resp.StatusCode, nil
	}

	var ids []string
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, resp.StatusCode, err
	}
	return ids, resp.StatusCode, nil
}

func putOrPostCertificate(ctx context.Context, n *ASNode, method, afUniqueID string, pem []byte) (int, error) {
	reqURL := n.baseURL() + "/certificates/" + url.PathEscape(afUniqueID)
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(pem))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-pem-file")
	return do(n, req)
}

func putOrPostCHC(ctx context.Context, n *ASNode, method, chcID string, body map[string]interface{}) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	reqURL := n.baseURL() + "/content-hosting-configurations/" + url.PathEscape(chcID)
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	return do(n, req)
}

func deleteCertificate(ctx context.Context, n *ASNode, afUniqueID string) (int, error) {
	reqURL := n.baseURL() + "/certificates/" + url.PathEscape(afUniqueID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return 0, err
	}
	return do(n, req)
}

func deleteCHC(ctx context.Context, n *ASNode, chcID string) (int, error) {
	reqURL := n.baseURL() + "/content-hosting-configurations/" + url.PathEscape(chcID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return 0, err
	}
	return do(n, req)
}

func purgeCache(ctx context.Context, n *ASNode, preq purgeRequest) (int, error) {
	reqURL := n.baseURL() + "/content-hosting-configurations/" + url.PathEscape(preq.CHCID) + "/purge"

	var body io.Reader
	contentType := ""
	if preq.Regex != "" {
		form := url.Values{"regex": {preq.Regex}}
		body = bytes.NewBufferString(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return 0, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return do(n, req)
}

func do(n *ASNode, req *http.Request) (int, error) {
	resp, err := n.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
