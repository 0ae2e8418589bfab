package client

import (
	"fmt"
	"net/url"

	apperrors "github.com/allisson/dbgrant/internal/errors"
)

// BuildDSN renders cached credentials as a connection string for the given
// driver ("postgres" or "mysql"). Username and password are escaped for
// the postgres URL form; the mysql form needs none.
func BuildDSN(driver string, auth *Auth) (string, error) {
	switch driver {
	case "postgres":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(auth.Username, auth.Password),
			Host:   auth.Host,
			Path:   "/" + auth.DB,
		}
		return u.String(), nil
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s)/%s", auth.Username, auth.Password, auth.Host, auth.DB), nil
	default:
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("unknown driver: %s", driver))
	}
}
