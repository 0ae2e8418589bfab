// Package http provides the public HTTP surface of the broker: link token
// requests, link verification, credential grants, and rule administration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/dbgrant/internal/broker/http/dto"
	brokerUsecase "github.com/allisson/dbgrant/internal/broker/usecase"
	apperrors "github.com/allisson/dbgrant/internal/errors"
	"github.com/allisson/dbgrant/internal/httputil"
	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
	tokenDomain "github.com/allisson/dbgrant/internal/token/domain"
	customValidation "github.com/allisson/dbgrant/internal/validation"
)

// BrokerHandler handles the public broker endpoints.
type BrokerHandler struct {
	broker brokerUsecase.BrokerUseCase
	logger *slog.Logger
}

// NewBrokerHandler creates a new broker handler with required dependencies.
func NewBrokerHandler(broker brokerUsecase.BrokerUseCase, logger *slog.Logger) *BrokerHandler {
	return &BrokerHandler{broker: broker, logger: logger}
}

// GetTokenHandler mails a one-time link to the email.
// GET /gettoken/:email
// Returns 200 with a status message, 403 if the email is not allowed.
func (h *BrokerHandler) GetTokenHandler(c *gin.Context) {
	email := c.Param("email")
	if err := customValidation.ValidateEmailParam(email); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	output, err := h.broker.RequestLink(c.Request.Context(), email)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: output.Message})
}

// VerifyTokenHandler consumes a link token and reveals the fetch token.
// GET /verifytoken/:token
// Returns 200 with the fetch token, 403 for unknown, expired, or spent links.
func (h *BrokerHandler) VerifyTokenHandler(c *gin.Context) {
	linkToken := c.Param("token")

	output, err := h.broker.ResolveLink(c.Request.Context(), linkToken)
	if err != nil {
		// A bad link and a spent link answer identically.
		if apperrors.Is(err, tokenDomain.ErrTokenNotFound) {
			err = apperrors.Wrap(apperrors.ErrForbidden, "link tokens expire, request again")
		}
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.FetchTokenResponse{
		FetchToken: output.FetchToken,
		ExpiresAt:  output.ExpiresAt,
	})
}

// GrantHandler provisions credentials for the fetch token's owner.
// POST /grant/:token with form fields host, db, role.
// Returns 200 with credentials, 400 for malformed input, 403 when refused.
func (h *BrokerHandler) GrantHandler(c *gin.Context) {
	fetchToken := c.Param("token")

	var req dto.GrantRequest
	if err := c.ShouldBind(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	credentials, err := h.broker.Grant(
		c.Request.Context(),
		fetchToken,
		req.Host,
		req.DB,
		ruleDomain.Role(req.Role),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCredentialsToResponse(credentials))
}

// SetRuleHandler writes an allow/deny rule on behalf of the token's owner.
// POST /setrule/:token with form fields email, host, db, role, which.
// Returns 200 on success, 400 for malformed input, 403 when out of scope.
func (h *BrokerHandler) SetRuleHandler(c *gin.Context) {
	fetchToken := c.Param("token")

	var req dto.SetRuleRequest
	if err := c.ShouldBind(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	err := h.broker.SetRule(
		c.Request.Context(),
		fetchToken,
		req.Email,
		req.Host,
		req.DB,
		ruleDomain.Role(req.Role),
		ruleDomain.Kind(req.Which),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Rule set."})
}
