package process

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Margin subtracted from an OAuth token lifetime so a token is refreshed
// before the upstream actually rejects it
const tokenExpiryMargin = 60 * time.Second

// TokenSource supplies bearer tokens for process requests
type TokenSource interface {
	Token() (string, error)
}

// StaticTokenSource returns a fixed token, used when the operator pastes a
// token into settings directly
type StaticTokenSource string

func (s StaticTokenSource) Token() (string, error) {
	if s == "" {
		return "", fmt.Errorf("no token configured")
	}
	return string(s), nil
}

// EndpointTokenSource fetches tokens from a companion auth service that
// responds with {"token": "..."}
type EndpointTokenSource struct {
	URL        string
	httpClient *http.Client
}

// NewEndpointTokenSource creates a token source with system proxy support
func NewEndpointTokenSource(tokenURL string) *EndpointTokenSource {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	return &EndpointTokenSource{
		URL: tokenURL,
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
	}
}

func (s *EndpointTokenSource) Token() (string, error) {
	req, err := http.NewRequest("GET", s.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if result.Token == "" {
		return "", fmt.Errorf("token response was empty")
	}

	return result.Token, nil
}

// ClientCredentialsTokenSource performs the OAuth2 client_credentials flow
// against the deployment's token URL and caches the token until shortly
// before it expires
type ClientCredentialsTokenSource struct {
	TokenURL     string
	ClientID     string
	ClientSecret string

	httpClient *http.Client
	mu         sync.Mutex
	token      string
	expiry     time.Time
}

// NewClientCredentialsTokenSource creates an OAuth token source with system
// proxy support
func NewClientCredentialsTokenSource(tokenURL, clientID, clientSecret string) *ClientCredentialsTokenSource {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	return &ClientCredentialsTokenSource{
		TokenURL:     tokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
	}
}

func (s *ClientCredentialsTokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expiry) {
		return s.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {s.ClientID},
		"client_secret": {s.ClientSecret},
	}

	req, err := http.NewRequest("POST", s.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed with status: %d", resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("token response was empty")
	}

	s.token = result.AccessToken
	s.expiry = time.Now().Add(time.Duration(result.ExpiresIn)*time.Second - tokenExpiryMargin)

	return s.token, nil
}
