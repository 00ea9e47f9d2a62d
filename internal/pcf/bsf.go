package pcf

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"msaf/pkg/logging"
)

const bsfSubsystem = "BSF"

// bsfPositiveTTL and bsfNegativeTTL bound how long a BSF discovery result
// is cached before a fresh Nbsf_Management lookup is required. spec.md
// §4.8 asks for a configured TTL and a shorter negative TTL "to avoid
// storms"; the expanded configuration surface (SPEC_FULL.md §6) does not
// carry a dedicated BSF TTL field, so these are fixed constants — see
// DESIGN.md.
const (
	bsfPositiveTTL = 5 * time.Minute
	bsfNegativeTTL = 15 * time.Second
)

type bsfCacheEntry struct {
	pcfEndpoint string
	expiry      time.Time
	negative    bool
}

// bsfCache discovers and memoises the PCF endpoint serving a given UE
// address via Nbsf_Management, collapsing concurrent lookups for the same
// address with singleflight exactly as the teacher's OAuth metadata cache
// collapses concurrent issuer-metadata fetches (internal/oauth/client.go's
// fetchMetadata).
type bsfCache struct {
	endpoint string
	client   *http.Client

	mu      sync.RWMutex
	entries map[string]*bsfCacheEntry
	group   singleflight.Group
}

func newBSFCache(endpoint string, client *http.Client) *bsfCache {
	return &bsfCache{endpoint: endpoint, client: client, entries: make(map[string]*bsfCacheEntry)}
}

// resolve returns the PCF endpoint serving ueAddress, or an error if BSF
// reports no binding. It performs a blocking HTTP call on cache miss and
// must only be invoked off the event-loop goroutine (see Manager.RequestBoost).
func (c *bsfCache) resolve(ctx context.Context, ueAddress string) (string, error) {
	if entry, ok := c.lookup(ueAddress); ok {
		return entryResult(entry)
	}

	result, err, _ := c.group.Do(ueAddress, func() (interface{}, error) {
		if entry, ok := c.lookup(ueAddress); ok {
			return entry, nil
		}
		return c.discover(ctx, ueAddress)
	})
	if err != nil {
		return "", err
	}
	return entryResult(result.(*bsfCacheEntry))
}

func entryResult(entry *bsfCacheEntry) (string, error) {
	if entry.negative {
		return "", fmt.Errorf("no PCF binding cached")
	}
	return entry.pcfEndpoint, nil
}

func (c *bsfCache) lookup(ueAddress string) (*bsfCacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[ueAddress]
	if !ok || !time.Now().Before(entry.expiry) {
		return nil, false
	}
	return entry, true
}

func (c *bsfCache) discover(ctx context.Context, ueAddress string) (*bsfCacheEntry, error) {
	reqURL := fmt.Sprintf("%s/nbsf-management/v1/pcfBindings?ueAddr=%s", c.endpoint, ueAddress)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.store(ueAddress, &bsfCacheEntry{negative: true, expiry: time.Now().Add(bsfNegativeTTL)})
		return nil, fmt.Errorf("bsf discovery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.store(ueAddress, &bsfCacheEntry{negative: true, expiry: time.Now().Add(bsfNegativeTTL)})
		return nil, fmt.Errorf("bsf discovery returned %d", resp.StatusCode)
	}

	var body struct {
		PCFEndpoint string `json:"pcfFqdn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	entry := &bsfCacheEntry{pcfEndpoint: body.PCFEndpoint, expiry: time.Now().Add(bsfPositiveTTL)}
	c.store(ueAddress, entry)
	logging.Debug(bsfSubsystem, "resolved %s to PCF %s", ueAddress, body.PCFEndpoint)
	return entry, nil
}

func (c *bsfCache) store(ueAddress string, entry *bsfCacheEntry) {
	c.mu.Lock()
	c.entries[ueAddress] = entry
	c.mu.Unlock()
}
