package service

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/allisson/dbgrant/internal/config"
	apperrors "github.com/allisson/dbgrant/internal/errors"
)

// AdminConn is an administrative connection to one provisioning host.
type AdminConn struct {
	DB     *sql.DB
	Driver string
}

// AdminPool lazily opens and caches administrative connections to the
// configured provisioning hosts. Connections are probed with a bounded ping
// before first use; a handle that later fails auth can be dropped with
// Invalidate so the next call re-reads configuration.
type AdminPool struct {
	hosts       map[string]config.AdminHost
	pingTimeout time.Duration
	logger      *slog.Logger

	mu    sync.Mutex
	conns map[string]*AdminConn
}

// HasHost reports whether admin credentials are configured for the host.
func (a *AdminPool) HasHost(host string) bool {
	_, ok := a.hosts[host]
	return ok
}

// Conn returns the admin connection for the host, opening it on first use.
// Bad credentials surface as ErrConfig so operators see a configuration
// problem rather than a transient failure; an unreachable host stays a
// plain error and may succeed on retry.
func (a *AdminPool) Conn(ctx context.Context, host string) (*AdminConn, error) {
	admin, ok := a.hosts[host]
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrConfig, "no admin credentials for host "+host)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if conn, ok := a.conns[host]; ok {
		return conn, nil
	}

	db, err := sql.Open(admin.Driver, admin.DSN)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrConfig, "bad admin DSN for host "+host+": "+err.Error())
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, a.pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		if isAuthError(err) {
			return nil, apperrors.Wrap(apperrors.ErrConfig, "admin auth rejected by host "+host+": "+err.Error())
		}
		return nil, apperrors.Wrap(err, "admin connection to host "+host+" failed")
	}

	conn := &AdminConn{DB: db, Driver: admin.Driver}
	a.conns[host] = conn

	a.logger.Info("admin connection established",
		slog.String("host", host),
		slog.String("driver", admin.Driver),
	)
	return conn, nil
}

// Invalidate drops the cached connection for a host. Called after an auth
// failure mid-flight so the next Conn re-dials.
func (a *AdminPool) Invalidate(host string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if conn, ok := a.conns[host]; ok {
		_ = conn.DB.Close()
		delete(a.conns, host)
	}
}

// Close releases every cached connection.
func (a *AdminPool) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for host, conn := range a.conns {
		_ = conn.DB.Close()
		delete(a.conns, host)
	}
}

// isAuthError reports whether the driver error means rejected credentials.
func isAuthError(err error) bool {
	var pqErr *pq.Error
	if apperrors.As(err, &pqErr) {
		// 28000 invalid_authorization_specification, 28P01 invalid_password
		return pqErr.Code == "28000" || pqErr.Code == "28P01"
	}
	var myErr *mysql.MySQLError
	if apperrors.As(err, &myErr) {
		// 1044 access denied for db, 1045 access denied for user
		return myErr.Number == 1044 || myErr.Number == 1045
	}
	return false
}

// NewAdminPool creates an AdminPool over the configured provisioning hosts.
func NewAdminPool(hosts map[string]config.AdminHost, pingTimeout time.Duration, logger *slog.Logger) *AdminPool {
	return &AdminPool{
		hosts:       hosts,
		pingTimeout: pingTimeout,
		logger:      logger,
		conns:       map[string]*AdminConn{},
	}
}
