package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gigmile/lending-service/internal/config"
	"github.com/gigmile/lending-service/internal/domain"
	"go.uber.org/zap"
)

const clientTokenHeader = "client-token"

type registrationRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
}

type registrationResponse struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

// Client calls the external scoring service. The client token is obtained by
// registering on first use and renewed once when a call is rejected with 401.
type Client struct {
	cfg        config.ScoringConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.Mutex
	token string
}

func NewClient(cfg config.ScoringConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *Client) InitiateScoring(ctx context.Context, customerNumber string) (string, error) {
	resp, err := c.get(ctx, c.cfg.InitiatePath+"/"+customerNumber)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read scoring response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to initiate scoring: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	token := strings.Trim(strings.TrimSpace(string(body)), `"`)
	if token == "" {
		return "", fmt.Errorf("failed to initiate scoring: empty token")
	}

	c.logger.Info("scoring initiated", zap.String("customer_number", customerNumber))
	return token, nil
}

func (c *Client) GetScore(ctx context.Context, token string) (*domain.CreditScore, error) {
	resp, err := c.get(ctx, c.cfg.QueryPath+"/"+token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusNoContent:
		return nil, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get score: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var score domain.CreditScore
	if err := json.NewDecoder(resp.Body).Decode(&score); err != nil {
		return nil, fmt.Errorf("failed to decode score: %w", err)
	}
	return &score, nil
}

// get sends an authenticated GET, re-registering and retrying once on 401.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		token, err := c.clientToken(ctx)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set(clientTokenHeader, token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("scoring request failed: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			resp.Body.Close()
			c.logger.Warn("scoring client token rejected, registering again")
			c.invalidate(token)
			continue
		}
		return resp, nil
	}
}

func (c *Client) clientToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	token, err := c.register(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

// invalidate drops the cached token unless another caller already replaced it.
func (c *Client) invalidate(stale string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == stale {
		c.token = ""
	}
}

func (c *Client) register(ctx context.Context) (string, error) {
	payload, err := json.Marshal(registrationRequest{
		Name:     c.cfg.ClientName,
		Username: c.cfg.Username,
		Password: c.cfg.Password,
		URL:      c.cfg.ClientURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+c.cfg.ClientCreatePath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to register scoring client: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to register scoring client: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out registrationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode registration: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("failed to register scoring client: empty token")
	}

	c.logger.Info("scoring client registered", zap.String("name", out.Name))
	return out.Token, nil
}
