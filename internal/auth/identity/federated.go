package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bmteam/authgate/internal/auth/domain"
)

// FederatedProvider delegates account storage and credential checks to an
// external directory service over HTTP. The directory owns the password
// hashes; we never see them.
type FederatedProvider struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewFederatedProvider(baseURL, apiKey string) *FederatedProvider {
	return &FederatedProvider{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type directoryUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u directoryUser) toDomain() domain.User {
	return domain.User{
		ID:        u.ID,
		Email:     domain.FoldEmail(u.Email),
		Name:      u.Name,
		Role:      domain.Role(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (p *FederatedProvider) Create(ctx context.Context, acc NewAccount) (domain.User, error) {
	payload := map[string]string{
		"email":    domain.FoldEmail(acc.Email),
		"name":     acc.Name,
		"password": acc.Password,
		"role":     acc.Role.String(),
	}

	var out directoryUser
	status, err := p.do(ctx, http.MethodPost, "/v1/accounts", payload, &out)
	if err != nil {
		return domain.User{}, err
	}
	switch status {
	case http.StatusCreated, http.StatusOK:
		return out.toDomain(), nil
	case http.StatusConflict:
		return domain.User{}, ErrConflict
	default:
		return domain.User{}, fmt.Errorf("identity: directory create returned %d", status)
	}
}

func (p *FederatedProvider) Authenticate(ctx context.Context, identifier, password string) (domain.User, error) {
	if strings.Contains(identifier, "@") {
		identifier = domain.FoldEmail(identifier)
	}
	payload := map[string]string{
		"identifier": identifier,
		"password":   password,
	}

	var out directoryUser
	status, err := p.do(ctx, http.MethodPost, "/v1/accounts/authenticate", payload, &out)
	if err != nil {
		return domain.User{}, err
	}
	switch status {
	case http.StatusOK:
		return out.toDomain(), nil
	case http.StatusUnauthorized, http.StatusNotFound:
		return domain.User{}, ErrBadCredentials
	default:
		return domain.User{}, fmt.Errorf("identity: directory authenticate returned %d", status)
	}
}

func (p *FederatedProvider) Lookup(ctx context.Context, id string) (domain.User, error) {
	var out directoryUser
	status, err := p.do(ctx, http.MethodGet, "/v1/accounts/"+id, nil, &out)
	if err != nil {
		return domain.User{}, err
	}
	switch status {
	case http.StatusOK:
		return out.toDomain(), nil
	case http.StatusNotFound:
		return domain.User{}, ErrNotFound
	default:
		return domain.User{}, fmt.Errorf("identity: directory lookup returned %d", status)
	}
}

func (p *FederatedProvider) do(ctx context.Context, method, path string, payload any, out any) (int, error) {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	newReq := func() (*http.Request, error) {
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, body)
		if err != nil {
			return nil, fmt.Errorf("identity: build directory request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if p.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.APIKey)
		}
		return req, nil
	}

	req, err := newReq()
	if err != nil {
		return 0, err
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		// A transport failure on an idempotent read gets one retry. Writes
		// are never retried: a duplicated create or consume is worse than
		// a surfaced error.
		if method != http.MethodGet {
			return 0, fmt.Errorf("identity: directory request: %w", err)
		}
		req, rerr := newReq()
		if rerr != nil {
			return 0, rerr
		}
		resp, rerr = p.HTTPClient.Do(req)
		if rerr != nil {
			return 0, fmt.Errorf("identity: directory request: %w", rerr)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 && out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("identity: decode directory response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
