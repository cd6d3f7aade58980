package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/yueqiao/voicedesk/internal/domain"
)

// LocalProvider is a ConnectionProvider that mints tokens in-process for a
// fixed identity. Used when the client has LiveKit credentials of its own.
type LocalProvider struct {
	minter   *Minter
	identity domain.Identity

	mu      sync.Mutex
	current *domain.ConnectionDetails
}

func NewLocalProvider(minter *Minter, identity domain.Identity) *LocalProvider {
	return &LocalProvider{minter: minter, identity: identity}
}

func (p *LocalProvider) Details(ctx context.Context) (domain.ConnectionDetails, error) {
	p.mu.Lock()
	current := p.current
	p.mu.Unlock()
	if current != nil {
		return *current, nil
	}

	if err := p.Refresh(ctx); err != nil {
		return domain.ConnectionDetails{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.current, nil
}

func (p *LocalProvider) Refresh(ctx context.Context) error {
	details, err := p.minter.Mint(ctx, p.identity)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.current = &details
	p.mu.Unlock()
	return nil
}

// HTTPProvider is a ConnectionProvider that fetches details from the
// voicedesk server's connection-details endpoint.
type HTTPProvider struct {
	baseURL  string
	identity domain.Identity
	client   *http.Client

	mu      sync.Mutex
	current *domain.ConnectionDetails
}

func NewHTTPProvider(baseURL string, identity domain.Identity) *HTTPProvider {
	return &HTTPProvider{
		baseURL:  strings.TrimRight(baseURL, "/"),
		identity: identity,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) Details(ctx context.Context) (domain.ConnectionDetails, error) {
	p.mu.Lock()
	current := p.current
	p.mu.Unlock()
	if current != nil {
		return *current, nil
	}

	if err := p.Refresh(ctx); err != nil {
		return domain.ConnectionDetails{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.current, nil
}

func (p *HTTPProvider) Refresh(ctx context.Context) error {
	q := url.Values{}
	q.Set("name", p.identity.Name)
	q.Set("identity", p.identity.Identity)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/api/connection-details?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building connection-details request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching connection details: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Error != "" {
			return fmt.Errorf("connection-details endpoint: %s", payload.Error)
		}
		return fmt.Errorf("connection-details endpoint: unexpected status %d", resp.StatusCode)
	}

	var details domain.ConnectionDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return fmt.Errorf("decoding connection details: %w", err)
	}

	p.mu.Lock()
	p.current = &details
	p.mu.Unlock()
	return nil
}
