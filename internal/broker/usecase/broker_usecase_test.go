package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/allisson/dbgrant/internal/config"
	apperrors "github.com/allisson/dbgrant/internal/errors"
	grantDomain "github.com/allisson/dbgrant/internal/grant/domain"
	"github.com/allisson/dbgrant/internal/metrics"
	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
	ruleUsecase "github.com/allisson/dbgrant/internal/rule/usecase"
	tokenDomain "github.com/allisson/dbgrant/internal/token/domain"
	tokenUsecase "github.com/allisson/dbgrant/internal/token/usecase"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockTokenUseCase struct {
	mock.Mock
}

func (m *mockTokenUseCase) Generate(ctx context.Context, email string) (*tokenUsecase.GenerateOutput, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tokenUsecase.GenerateOutput), args.Error(1)
}

func (m *mockTokenUseCase) ResolveLink(ctx context.Context, linkToken string) (*tokenUsecase.ResolveOutput, error) {
	args := m.Called(ctx, linkToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tokenUsecase.ResolveOutput), args.Error(1)
}

func (m *mockTokenUseCase) EmailForFetch(ctx context.Context, fetchToken string, allowExpired bool) (string, error) {
	args := m.Called(ctx, fetchToken, allowExpired)
	return args.String(0), args.Error(1)
}

func (m *mockTokenUseCase) SweepExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockRuleUseCase struct {
	mock.Mock
}

func (m *mockRuleUseCase) CanGrant(ctx context.Context, email, host, db string, role ruleDomain.Role) (bool, error) {
	args := m.Called(ctx, email, host, db, role)
	return args.Bool(0), args.Error(1)
}

func (m *mockRuleUseCase) SetRule(ctx context.Context, rulerEmail string, input ruleUsecase.SetRuleInput) error {
	args := m.Called(ctx, rulerEmail, input)
	return args.Error(0)
}

func (m *mockRuleUseCase) SetRuleAsOperator(ctx context.Context, input ruleUsecase.SetRuleInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *mockRuleUseCase) CreateRuler(ctx context.Context, input ruleUsecase.CreateRulerInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

type mockGrantUseCase struct {
	mock.Mock
}

func (m *mockGrantUseCase) Provision(ctx context.Context, email, host, db string, role ruleDomain.Role) (*grantDomain.Credentials, error) {
	args := m.Called(ctx, email, host, db, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*grantDomain.Credentials), args.Error(1)
}

func (m *mockGrantUseCase) Revoke(ctx context.Context, email, host, db, role string) (int64, error) {
	args := m.Called(ctx, email, host, db, role)
	return args.Get(0).(int64), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject, text string) error {
	args := m.Called(ctx, to, subject, text)
	return args.Error(0)
}

func newTestConfig() *config.Config {
	return &config.Config{
		PublicURL: "https://grants.example.org",
	}
}

func newBroker(
	cfg *config.Config,
	tokens *mockTokenUseCase,
	rules *mockRuleUseCase,
	grants *mockGrantUseCase,
	mail *mockMailer,
) BrokerUseCase {
	return NewBrokerUseCase(
		cfg,
		tokens,
		rules,
		grants,
		mail,
		metrics.NoopBusinessMetrics(),
		slog.New(slog.DiscardHandler),
	)
}

func TestBrokerUseCase_RequestLink(t *testing.T) {
	ctx := context.Background()

	t.Run("sends mail with one-time link", func(t *testing.T) {
		tokens := &mockTokenUseCase{}
		mail := &mockMailer{}
		broker := newBroker(newTestConfig(), tokens, &mockRuleUseCase{}, &mockGrantUseCase{}, mail)

		tokens.On("Generate", ctx, "a@x.org").Return(&tokenUsecase.GenerateOutput{
			LinkToken: "linktok",
		}, nil)
		mail.On("Send", ctx, "a@x.org", mock.Anything,
			"Retrieve your dbgrant fetch token by opening this one-time link: "+
				"https://grants.example.org/verifytoken/linktok").Return(nil)

		output, err := broker.RequestLink(ctx, "a@x.org")
		require.NoError(t, err)
		assert.Contains(t, output.Message, "Sent link to a@x.org")
		mail.AssertExpectations(t)
	})

	t.Run("unknown email is forbidden and sends nothing", func(t *testing.T) {
		tokens := &mockTokenUseCase{}
		mail := &mockMailer{}
		broker := newBroker(newTestConfig(), tokens, &mockRuleUseCase{}, &mockGrantUseCase{}, mail)

		tokens.On("Generate", ctx, "stranger@x.org").Return(nil, nil)

		_, err := broker.RequestLink(ctx, "stranger@x.org")
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("dry run returns rendered message instead of sending", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.MailerDryRun = true
		tokens := &mockTokenUseCase{}
		mail := &mockMailer{}
		broker := newBroker(cfg, tokens, &mockRuleUseCase{}, &mockGrantUseCase{}, mail)

		tokens.On("Generate", ctx, "a@x.org").Return(&tokenUsecase.GenerateOutput{
			LinkToken: "linktok",
		}, nil)

		output, err := broker.RequestLink(ctx, "a@x.org")
		require.NoError(t, err)
		assert.Contains(t, output.Message, "/verifytoken/linktok")
		mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("mail failure surfaces as error", func(t *testing.T) {
		tokens := &mockTokenUseCase{}
		mail := &mockMailer{}
		broker := newBroker(newTestConfig(), tokens, &mockRuleUseCase{}, &mockGrantUseCase{}, mail)

		tokens.On("Generate", ctx, "a@x.org").Return(&tokenUsecase.GenerateOutput{
			LinkToken: "linktok",
		}, nil)
		mail.On("Send", ctx, "a@x.org", mock.Anything, mock.Anything).
			Return(apperrors.New("smtp down"))

		_, err := broker.RequestLink(ctx, "a@x.org")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestBrokerUseCase_ResolveLink(t *testing.T) {
	ctx := context.Background()

	t.Run("reveals fetch token", func(t *testing.T) {
		tokens := &mockTokenUseCase{}
		broker := newBroker(newTestConfig(), tokens, &mockRuleUseCase{}, &mockGrantUseCase{}, &mockMailer{})

		expiresAt := time.Now().UTC().Add(720 * time.Hour)
		tokens.On("ResolveLink", ctx, "linktok").Return(&tokenUsecase.ResolveOutput{
			FetchToken: "fetchtok",
			ExpiresAt:  expiresAt,
		}, nil)

		output, err := broker.ResolveLink(ctx, "linktok")
		require.NoError(t, err)
		assert.Equal(t, "fetchtok", output.FetchToken)
		assert.Equal(t, expiresAt, output.ExpiresAt)
	})

	t.Run("spent link yields ErrTokenNotFound", func(t *testing.T) {
		tokens := &mockTokenUseCase{}
		broker := newBroker(newTestConfig(), tokens, &mockRuleUseCase{}, &mockGrantUseCase{}, &mockMailer{})

		tokens.On("ResolveLink", ctx, "spent").Return(nil, tokenDomain.ErrTokenNotFound)

		_, err := broker.ResolveLink(ctx, "spent")
		assert.ErrorIs(t, err, tokenDomain.ErrTokenNotFound)
	})
}

func TestBrokerUseCase_Grant(t *testing.T) {
	ctx := context.Background()

	t.Run("provisions for the token owner", func(t *testing.T) {
		tokens := &mockTokenUseCase{}
		grants := &mockGrantUseCase{}
		broker := newBroker(newTestConfig(), tokens, &mockRuleUseCase{}, grants, &mockMailer{})

		tokens.On("EmailForFetch", ctx, "fetchtok", false).Return("a@x.org", nil)
		grants.On("Provision", ctx, "a@x.org", "db1.example.com", "app_db", ruleDomain.RoleRead).
			Return(&grantDomain.Credentials{Username: "a_x_org_read", Password: "pw"}, nil)

		credentials, err := broker.Grant(ctx, "fetchtok", "db1.example.com", "app_db", ruleDomain.RoleRead)
		require.NoError(t, err)
		assert.Equal(t, "a_x_org_read", credentials.Username)
	})

	t.Run("expired fetch token is unauthorized", func(t *testing.T) {
		tokens := &mockTokenUseCase{}
		grants := &mockGrantUseCase{}
		broker := newBroker(newTestConfig(), tokens, &mockRuleUseCase{}, grants, &mockMailer{})

		tokens.On("EmailForFetch", ctx, "old", false).Return("", tokenDomain.ErrTokenNotFound)

		_, err := broker.Grant(ctx, "old", "db1.example.com", "app_db", ruleDomain.RoleRead)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		grants.AssertNotCalled(t, "Provision", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBrokerUseCase_SetRule(t *testing.T) {
	ctx := context.Background()

	t.Run("writes rule as the token owner", func(t *testing.T) {
		tokens := &mockTokenUseCase{}
		rules := &mockRuleUseCase{}
		broker := newBroker(newTestConfig(), tokens, rules, &mockGrantUseCase{}, &mockMailer{})

		tokens.On("EmailForFetch", ctx, "fetchtok", false).Return("admin@x.org", nil)
		rules.On("SetRule", ctx, "admin@x.org", ruleUsecase.SetRuleInput{
			Email: "a@x.org",
			Host:  "db1.example.com",
			DB:    "app_db",
			Role:  ruleDomain.RoleRead,
			Which: ruleDomain.KindAllow,
		}).Return(nil)

		err := broker.SetRule(ctx, "fetchtok", "a@x.org", "db1.example.com", "app_db",
			ruleDomain.RoleRead, ruleDomain.KindAllow)
		require.NoError(t, err)
		rules.AssertExpectations(t)
	})

	t.Run("scope refusal passes through as forbidden", func(t *testing.T) {
		tokens := &mockTokenUseCase{}
		rules := &mockRuleUseCase{}
		broker := newBroker(newTestConfig(), tokens, rules, &mockGrantUseCase{}, &mockMailer{})

		tokens.On("EmailForFetch", ctx, "fetchtok", false).Return("admin@x.org", nil)
		rules.On("SetRule", ctx, "admin@x.org", mock.Anything).
			Return(apperrors.Wrap(apperrors.ErrForbidden, "rule outside ruler scope"))

		err := broker.SetRule(ctx, "fetchtok", "a@other.org", "db1.example.com", "app_db",
			ruleDomain.RoleRead, ruleDomain.KindAllow)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}
