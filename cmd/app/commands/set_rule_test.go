package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
	ruleUsecase "github.com/allisson/dbgrant/internal/rule/usecase"
)

func TestRunSetRule(t *testing.T) {
	ctx := context.Background()
	logger := testLogger()

	t.Run("writes the rule", func(t *testing.T) {
		mockUseCase := &mockRuleUseCase{}
		mockUseCase.On("SetRuleAsOperator", ctx, ruleUsecase.SetRuleInput{
			Email: "a@x.org",
			Host:  "db1.example.com",
			DB:    "app_db",
			Role:  ruleDomain.RoleRead,
			Which: ruleDomain.KindAllow,
		}).Return(nil)

		var out bytes.Buffer
		err := RunSetRule(ctx, mockUseCase, logger, &out, "a@x.org", "db1.example.com", "app_db", "read", "allow")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Rule set: allow read for a@x.org on db1.example.com/app_db")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid role", func(t *testing.T) {
		mockUseCase := &mockRuleUseCase{}

		var out bytes.Buffer
		err := RunSetRule(ctx, mockUseCase, logger, &out, "a@x.org", "db1.example.com", "app_db", "owner", "allow")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid role")
		mockUseCase.AssertNotCalled(t, "SetRuleAsOperator", mock.Anything, mock.Anything)
	})

	t.Run("invalid kind", func(t *testing.T) {
		mockUseCase := &mockRuleUseCase{}

		var out bytes.Buffer
		err := RunSetRule(ctx, mockUseCase, logger, &out, "a@x.org", "db1.example.com", "app_db", "read", "maybe")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid rule kind")
		mockUseCase.AssertNotCalled(t, "SetRuleAsOperator", mock.Anything, mock.Anything)
	})
}
