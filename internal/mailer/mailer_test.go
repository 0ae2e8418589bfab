package mailer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/dbgrant/internal/config"
	apperrors "github.com/allisson/dbgrant/internal/errors"
)

func TestNew(t *testing.T) {
	t.Run("null kind", func(t *testing.T) {
		m, err := New(&config.Config{MailerKind: KindNull})
		require.NoError(t, err)
		assert.IsType(t, &NullMailer{}, m)
	})

	t.Run("mailgun kind", func(t *testing.T) {
		m, err := New(&config.Config{
			MailerKind:     KindMailgun,
			MailgunAPIKey:  "key",
			MailgunBaseURL: "https://api.mailgun.net/v3/example.com",
			MailerFrom:     "dbgrant@example.com",
		})
		require.NoError(t, err)
		assert.IsType(t, &MailgunMailer{}, m)
	})

	t.Run("mailgun kind without credentials is a config error", func(t *testing.T) {
		_, err := New(&config.Config{MailerKind: KindMailgun})
		assert.True(t, apperrors.Is(err, apperrors.ErrConfig))
	})

	t.Run("smtp kind without host is a config error", func(t *testing.T) {
		_, err := New(&config.Config{MailerKind: KindSMTP})
		assert.True(t, apperrors.Is(err, apperrors.ErrConfig))
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := New(&config.Config{MailerKind: "carrier-pigeon"})
		assert.Error(t, err)
	})
}

func TestNullMailer_Send(t *testing.T) {
	m := NewNullMailer()

	err := m.Send(context.Background(), "a@x.org", "subject", "body text")
	require.NoError(t, err)

	to, text := m.LastMessage()
	assert.Equal(t, "a@x.org", to)
	assert.Equal(t, "body text", text)
}

func TestMailgunMailer_Send(t *testing.T) {
	t.Run("posts form fields with api auth", func(t *testing.T) {
		var gotForm map[string]string
		var gotUser, gotPass string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/messages", r.URL.Path)
			gotUser, gotPass, _ = r.BasicAuth()
			require.NoError(t, r.ParseForm())
			gotForm = map[string]string{
				"from":    r.PostFormValue("from"),
				"to":      r.PostFormValue("to"),
				"subject": r.PostFormValue("subject"),
				"text":    r.PostFormValue("text"),
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		m, err := NewMailgunMailer("secret-key", server.URL, "dbgrant@example.com")
		require.NoError(t, err)

		err = m.Send(context.Background(), "a@x.org", "your token", "open this link")
		require.NoError(t, err)

		assert.Equal(t, "api", gotUser)
		assert.Equal(t, "secret-key", gotPass)
		assert.Equal(t, "dbgrant@example.com", gotForm["from"])
		assert.Equal(t, "a@x.org", gotForm["to"])
		assert.Equal(t, "your token", gotForm["subject"])
		assert.Equal(t, "open this link", gotForm["text"])
	})

	t.Run("non-2xx response is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		m, err := NewMailgunMailer("bad-key", server.URL, "dbgrant@example.com")
		require.NoError(t, err)

		err = m.Send(context.Background(), "a@x.org", "s", "t")
		assert.Error(t, err)
	})
}
