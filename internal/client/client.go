package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/allisson/dbgrant/internal/errors"
)

// ErrNoCredentials is returned when neither the local config nor any
// remote can produce credentials for a request.
var ErrNoCredentials = apperrors.Wrap(apperrors.ErrNotFound, "no credentials available locally or from any remote")

const defaultRequestTimeout = 30 * time.Second

// Client reads and writes the local config and fills credential gaps by
// asking remote brokers.
type Client struct {
	configPath string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client persisting to configPath.
func NewClient(configPath string, logger *slog.Logger) *Client {
	return &Client{
		configPath: configPath,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger,
	}
}

// SetRemote stores a fetch token for a broker endpoint, replacing the
// token if the endpoint is already known. A trailing slash is stripped so
// the same endpoint never appears twice.
func (c *Client) SetRemote(endpoint, token string) error {
	endpoint = strings.TrimSuffix(endpoint, "/")

	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	for i := range cfg.Remotes {
		if cfg.Remotes[i].Endpoint == endpoint {
			cfg.Remotes[i].Token = token
			return SaveConfig(c.configPath, cfg)
		}
	}
	cfg.Remotes = append(cfg.Remotes, Remote{Endpoint: endpoint, Token: token})
	return SaveConfig(c.configPath, cfg)
}

// SetAlias stores a nickname for a host or database name. which is "host"
// or "db".
func (c *Client) SetAlias(alias, actual, which string) error {
	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	switch which {
	case "host":
		cfg.HostAliases[alias] = actual
	case "db":
		cfg.DBAliases[alias] = actual
	default:
		return apperrors.Wrap(apperrors.ErrInvalidInput, "alias kind must be 'host' or 'db'")
	}
	return SaveConfig(c.configPath, cfg)
}

// SetAuth caches credentials, replacing any entry for the same
// (host, db, role).
func (c *Client) SetAuth(auth Auth) error {
	if err := auth.Validate(); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	for i := range cfg.Auth {
		if cfg.Auth[i].Host == auth.Host && cfg.Auth[i].DB == auth.DB && cfg.Auth[i].Role == auth.Role {
			cfg.Auth[i].Username = auth.Username
			cfg.Auth[i].Password = auth.Password
			return SaveConfig(c.configPath, cfg)
		}
	}
	cfg.Auth = append(cfg.Auth, auth)
	return SaveConfig(c.configPath, cfg)
}

// GetAuth returns credentials for role on host db. Aliases and the ro/rw
// role shorthands are resolved first. On a local miss every remote is
// asked in order; the first success is cached and returned.
func (c *Client) GetAuth(ctx context.Context, host, db, role string) (*Auth, error) {
	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}

	if actual, ok := cfg.HostAliases[host]; ok {
		host = actual
	}
	if actual, ok := cfg.DBAliases[db]; ok {
		db = actual
	}
	role, err = resolveRole(role)
	if err != nil {
		return nil, err
	}

	for i := range cfg.Auth {
		if cfg.Auth[i].Host == host && cfg.Auth[i].DB == db && cfg.Auth[i].Role == role {
			return &cfg.Auth[i], nil
		}
	}

	c.logger.Info("no local credentials, asking remotes",
		slog.String("host", host),
		slog.String("db", db),
		slog.String("role", role),
	)

	for _, remote := range cfg.Remotes {
		auth, err := c.requestGrant(ctx, remote, host, db, role)
		if err != nil {
			c.logger.Warn("remote refused grant",
				slog.String("endpoint", remote.Endpoint),
				slog.Any("error", err),
			)
			continue
		}
		if err := c.SetAuth(*auth); err != nil {
			return nil, err
		}
		return auth, nil
	}
	return nil, ErrNoCredentials
}

// RequestLink asks a broker to mail a one-time link to email and returns
// the broker's status message.
func (c *Client) RequestLink(ctx context.Context, endpoint, email string) (string, error) {
	endpoint = strings.TrimSuffix(endpoint, "/")
	reqURL := fmt.Sprintf("%s/gettoken/%s", endpoint, url.PathEscape(email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("build request: %v", err))
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request link from %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response from %s: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Wrap(apperrors.ErrForbidden, fmt.Sprintf("broker answered %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var message struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &message); err != nil {
		return "", fmt.Errorf("parse response from %s: %w", endpoint, err)
	}
	return message.Message, nil
}

// SetRule asks remote brokers to write a rule for email, trying each in
// order until one accepts. The broker enforces the calling admin's ruler
// scope; a refusal here means no remote accepted.
func (c *Client) SetRule(ctx context.Context, email, host, db, role, which string) error {
	role, err := resolveRole(role)
	if err != nil {
		return err
	}

	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	if len(cfg.Remotes) == 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "no remotes configured, run settoken first")
	}

	form := url.Values{}
	form.Set("email", email)
	form.Set("host", host)
	form.Set("db", db)
	form.Set("role", role)
	form.Set("which", which)

	var lastErr error
	for _, remote := range cfg.Remotes {
		reqURL := fmt.Sprintf("%s/setrule/%s", remote.Endpoint, url.PathEscape(remote.Token))
		if err := c.postForm(ctx, reqURL, form); err != nil {
			c.logger.Warn("remote refused rule",
				slog.String("endpoint", remote.Endpoint),
				slog.Any("error", err),
			)
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// postForm posts a form and treats any non-200 answer as forbidden.
func (c *Client) postForm(ctx context.Context, reqURL string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post form: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.Wrap(apperrors.ErrForbidden, fmt.Sprintf("broker answered %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	return nil
}

// requestGrant posts a grant request to one remote and parses the
// credentials on success.
func (c *Client) requestGrant(ctx context.Context, remote Remote, host, db, role string) (*Auth, error) {
	reqURL := fmt.Sprintf("%s/grant/%s", remote.Endpoint, url.PathEscape(remote.Token))
	form := url.Values{}
	form.Set("host", host)
	form.Set("db", db)
	form.Set("role", role)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request grant: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, fmt.Sprintf("broker answered %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var credentials struct {
		Host     string `json:"host"`
		DB       string `json:"db"`
		Role     string `json:"role"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(body, &credentials); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return &Auth{
		Host:     host,
		DB:       db,
		Role:     role,
		Username: credentials.Username,
		Password: credentials.Password,
	}, nil
}

// resolveRole expands the ro/rw shorthands and rejects unknown roles.
func resolveRole(role string) (string, error) {
	switch role {
	case "ro", "read":
		return "read", nil
	case "rw", "readWrite":
		return "readWrite", nil
	default:
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "role must be one of 'read', 'readWrite', 'ro', 'rw'")
	}
}
