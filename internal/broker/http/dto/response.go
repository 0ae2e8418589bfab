package dto

import (
	"time"

	grantDomain "github.com/allisson/dbgrant/internal/grant/domain"
)

// MessageResponse carries a human-readable status line.
type MessageResponse struct {
	Message string `json:"message"`
}

// FetchTokenResponse reveals a fetch token with its expiry.
type FetchTokenResponse struct {
	FetchToken string    `json:"fetch_token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// CredentialsResponse carries freshly provisioned credentials. This is the
// only response that ever contains a password.
type CredentialsResponse struct {
	Host     string `json:"host"`
	DB       string `json:"db"`
	Role     string `json:"role"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// MapCredentialsToResponse maps provisioned credentials to the response shape.
func MapCredentialsToResponse(credentials *grantDomain.Credentials) *CredentialsResponse {
	return &CredentialsResponse{
		Host:     credentials.Host,
		DB:       credentials.DB,
		Role:     string(credentials.Role),
		Username: credentials.Username,
		Password: credentials.Password,
	}
}
