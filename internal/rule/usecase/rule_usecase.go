package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/dbgrant/internal/errors"
	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
	ruleService "github.com/allisson/dbgrant/internal/rule/service"
)

// ruleUseCase implements RuleUseCase.
type ruleUseCase struct {
	ruleRepo   RuleRepository
	rulerRepo  RulerRepository
	adminHosts AdminHostChecker
	logger     *slog.Logger
}

// CanGrant evaluates grant eligibility.
//
// The allow check widens upward: an allow for readWrite also satisfies a
// request for read. The deny check widens downward: a deny of read also
// blocks a request for readWrite, since readWrite subsumes read. A matching
// deny always wins over a matching allow. Finally, the server must hold
// admin credentials for the host, otherwise nothing could be provisioned.
func (r *ruleUseCase) CanGrant(ctx context.Context, email, host, db string, role ruleDomain.Role) (bool, error) {
	allowRoles, err := ruleService.AllowRoles(role)
	if err != nil {
		return false, err
	}
	denyRoles, err := ruleService.DenyRoles(role)
	if err != nil {
		return false, err
	}

	allowed, err := r.ruleRepo.Exists(ctx, email, host, db, allowRoles, ruleDomain.KindAllow)
	if err != nil {
		return false, err
	}
	if !allowed {
		return false, nil
	}

	denied, err := r.ruleRepo.Exists(ctx, email, host, db, denyRoles, ruleDomain.KindDeny)
	if err != nil {
		return false, err
	}
	if denied {
		return false, nil
	}

	if !r.adminHosts.HasHost(host) {
		r.logger.Warn("rule matched but no admin credentials configured for host",
			slog.String("host", host),
		)
		return false, nil
	}

	return true, nil
}

// SetRule writes a rule on behalf of rulerEmail. The ruler document is
// looked up and every dimension of the rule is checked against its scope
// independently; any miss refuses the whole write with ErrForbidden.
func (r *ruleUseCase) SetRule(ctx context.Context, rulerEmail string, input SetRuleInput) error {
	if !input.Role.Valid() {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "unknown role")
	}
	if !input.Which.Valid() {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "unknown rule kind")
	}

	ruler, err := r.rulerRepo.GetByEmail(ctx, rulerEmail)
	if err != nil {
		if apperrors.Is(err, ruleDomain.ErrRulerNotFound) {
			return apperrors.Wrap(apperrors.ErrForbidden, "no rule-setting authority")
		}
		return err
	}

	if !ruler.AllowsHost(input.Host) ||
		!ruler.AllowsDB(input.DB) ||
		!ruler.AllowsEmail(input.Email) ||
		!ruler.AllowsKind(input.Which) {
		r.logger.Info("rule write outside ruler scope",
			slog.String("ruler", rulerEmail),
			slog.String("host", input.Host),
			slog.String("db", input.DB),
		)
		return apperrors.Wrap(apperrors.ErrForbidden, "rule outside ruler scope")
	}

	return r.upsertRule(ctx, input)
}

// SetRuleAsOperator writes a rule without a ruler check. The operator CLI
// runs with direct database access, so ruler scoping would only restate
// trust it already has.
func (r *ruleUseCase) SetRuleAsOperator(ctx context.Context, input SetRuleInput) error {
	if !input.Role.Valid() {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "unknown role")
	}
	if !input.Which.Valid() {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "unknown rule kind")
	}
	return r.upsertRule(ctx, input)
}

func (r *ruleUseCase) upsertRule(ctx context.Context, input SetRuleInput) error {
	rule := &ruleDomain.Rule{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     input.Email,
		Host:      input.Host,
		Role:      input.Role,
		DB:        input.DB,
		Which:     input.Which,
		CreatedAt: time.Now().UTC(),
	}
	return r.ruleRepo.Upsert(ctx, rule)
}

// CreateRuler stores a new ruler document.
func (r *ruleUseCase) CreateRuler(ctx context.Context, input CreateRulerInput) error {
	ruler := &ruleDomain.Ruler{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     input.Email,
		Hosts:     input.Hosts,
		DBs:       input.DBs,
		Emails:    input.Emails,
		Which:     input.Which,
		CreatedAt: time.Now().UTC(),
	}
	return r.rulerRepo.Create(ctx, ruler)
}

// NewRuleUseCase creates a new RuleUseCase with the provided dependencies.
func NewRuleUseCase(
	ruleRepo RuleRepository,
	rulerRepo RulerRepository,
	adminHosts AdminHostChecker,
	logger *slog.Logger,
) RuleUseCase {
	return &ruleUseCase{
		ruleRepo:   ruleRepo,
		rulerRepo:  rulerRepo,
		adminHosts: adminHosts,
		logger:     logger,
	}
}
