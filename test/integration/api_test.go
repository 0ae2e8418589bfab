// Package integration provides end-to-end tests for the broker API against
// a real PostgreSQL database.
package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/dbgrant/internal/app"
	"github.com/allisson/dbgrant/internal/config"
	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
	ruleUsecase "github.com/allisson/dbgrant/internal/rule/usecase"
	"github.com/allisson/dbgrant/internal/testutil"
)

type brokerTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
}

func setupBroker(t *testing.T) *brokerTestContext {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupPostgresDB(t)

	cfg := &config.Config{
		LogLevel:             "error",
		PublicURL:            "http://broker.test",
		DBDriver:             "postgres",
		DBConnectionString:   testutil.GetPostgresTestDSN(),
		DBMaxOpenConnections: 5,
		DBMaxIdleConnections: 2,
		DBConnMaxLifetime:    time.Minute,
		LinkTokenTTL:         3 * time.Minute,
		FetchTokenTTL:        24 * time.Hour,
		MailerKind:           "null",
		MailerDryRun:         true,
		AdminHostsJSON:       `{}`,
		AdminPingTimeout:     2 * time.Second,
		AdminCommandTimeout:  5 * time.Second,
	}
	container := app.NewContainer(cfg)

	httpServer, err := container.HTTPServer()
	require.NoError(t, err)
	server := httptest.NewServer(httpServer.GetHandler())

	t.Cleanup(func() {
		server.Close()
		require.NoError(t, container.Shutdown(context.Background()))
		testutil.CleanupPostgresDB(t, db)
		testutil.TeardownDB(t, db)
	})

	return &brokerTestContext{container: container, db: db, server: server}
}

func (tc *brokerTestContext) get(t *testing.T, path string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(tc.server.URL + path)
	require.NoError(t, err)
	return readJSON(t, resp)
}

func (tc *brokerTestContext) postForm(t *testing.T, path string, form url.Values) (int, map[string]any) {
	t.Helper()
	resp, err := http.PostForm(tc.server.URL+path, form)
	require.NoError(t, err)
	return readJSON(t, resp)
}

func readJSON(t *testing.T, resp *http.Response) (int, map[string]any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	payload := map[string]any{}
	require.NoError(t, json.Unmarshal(body, &payload), "body: %s", body)
	return resp.StatusCode, payload
}

// fetchTokenFor walks the full link flow for an email: request a link in
// dry-run mode, pull the link token out of the rendered message, resolve it.
func (tc *brokerTestContext) fetchTokenFor(t *testing.T, email string) string {
	t.Helper()

	status, payload := tc.get(t, "/gettoken/"+email)
	require.Equal(t, http.StatusOK, status)
	message, _ := payload["message"].(string)
	require.Contains(t, message, "/verifytoken/")

	linkToken := message[strings.LastIndex(message, "/")+1:]
	status, payload = tc.get(t, "/verifytoken/"+linkToken)
	require.Equal(t, http.StatusOK, status)

	fetchToken, _ := payload["fetch_token"].(string)
	require.NotEmpty(t, fetchToken)
	return fetchToken
}

func TestBrokerAPI(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupBroker(t)
	ctx := context.Background()

	ruleUseCase, err := tc.container.RuleUseCase()
	require.NoError(t, err)

	t.Run("gettoken refuses unknown emails", func(t *testing.T) {
		status, payload := tc.get(t, "/gettoken/stranger@example.org")
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "cannot_grant", payload["error"])
	})

	t.Run("gettoken rejects malformed emails", func(t *testing.T) {
		status, _ := tc.get(t, "/gettoken/not-an-email")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	require.NoError(t, ruleUseCase.SetRuleAsOperator(ctx, ruleUsecase.SetRuleInput{
		Email: "alice@example.org",
		Host:  "db1.example.com",
		DB:    "app_db",
		Role:  ruleDomain.RoleRead,
		Which: ruleDomain.KindAllow,
	}))

	t.Run("link is single use", func(t *testing.T) {
		status, payload := tc.get(t, "/gettoken/alice@example.org")
		require.Equal(t, http.StatusOK, status)
		message, _ := payload["message"].(string)
		linkToken := message[strings.LastIndex(message, "/")+1:]

		status, _ = tc.get(t, "/verifytoken/"+linkToken)
		require.Equal(t, http.StatusOK, status)

		status, payload = tc.get(t, "/verifytoken/"+linkToken)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "cannot_grant", payload["error"])
	})

	t.Run("grant refuses without a matching rule or admin host", func(t *testing.T) {
		fetchToken := tc.fetchTokenFor(t, "alice@example.org")

		// No allow rule covers readWrite, and no admin host is configured
		// either way; the refusal is the same generic body.
		status, payload := tc.postForm(t, "/grant/"+fetchToken, url.Values{
			"host": {"db1.example.com"},
			"db":   {"app_db"},
			"role": {"readWrite"},
		})
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "cannot_grant", payload["error"])
	})

	t.Run("grant rejects unknown roles", func(t *testing.T) {
		fetchToken := tc.fetchTokenFor(t, "alice@example.org")

		status, _ := tc.postForm(t, "/grant/"+fetchToken, url.Values{
			"host": {"db1.example.com"},
			"db":   {"app_db"},
			"role": {"owner"},
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("setrule writes rules inside the ruler scope", func(t *testing.T) {
		require.NoError(t, ruleUseCase.CreateRuler(ctx, ruleUsecase.CreateRulerInput{
			Email:  "alice@example.org",
			Hosts:  "db1.example.com",
			DBs:    "app_",
			Emails: "@example.org",
			Which:  "allow",
		}))
		fetchToken := tc.fetchTokenFor(t, "alice@example.org")

		status, _ := tc.postForm(t, "/setrule/"+fetchToken, url.Values{
			"email": {"bob@example.org"},
			"host":  {"db1.example.com"},
			"db":    {"app_db"},
			"role":  {"read"},
			"which": {"allow"},
		})
		require.Equal(t, http.StatusOK, status)

		// The fresh allow rule makes bob's address eligible for links.
		status, _ = tc.get(t, "/gettoken/bob@example.org")
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("setrule refuses outside the ruler scope", func(t *testing.T) {
		fetchToken := tc.fetchTokenFor(t, "alice@example.org")

		status, payload := tc.postForm(t, "/setrule/"+fetchToken, url.Values{
			"email": {"bob@example.org"},
			"host":  {"db2.example.com"},
			"db":    {"app_db"},
			"role":  {"read"},
			"which": {"allow"},
		})
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "cannot_grant", payload["error"])
	})
}
