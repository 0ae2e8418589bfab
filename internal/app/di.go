// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	brokerHTTP "github.com/allisson/dbgrant/internal/broker/http"
	brokerUsecase "github.com/allisson/dbgrant/internal/broker/usecase"
	"github.com/allisson/dbgrant/internal/config"
	"github.com/allisson/dbgrant/internal/database"
	grantRepository "github.com/allisson/dbgrant/internal/grant/repository"
	grantService "github.com/allisson/dbgrant/internal/grant/service"
	grantUsecase "github.com/allisson/dbgrant/internal/grant/usecase"
	"github.com/allisson/dbgrant/internal/http"
	"github.com/allisson/dbgrant/internal/mailer"
	"github.com/allisson/dbgrant/internal/metrics"
	ruleRepository "github.com/allisson/dbgrant/internal/rule/repository"
	ruleUsecase "github.com/allisson/dbgrant/internal/rule/usecase"
	tokenRepository "github.com/allisson/dbgrant/internal/token/repository"
	tokenService "github.com/allisson/dbgrant/internal/token/service"
	tokenUsecase "github.com/allisson/dbgrant/internal/token/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	mail            mailer.Mailer
	adminPool       *grantService.AdminPool
	userAdmin       grantService.UserAdmin

	// Repositories
	tokenRepo *tokenRepository.PostgreSQLTokenRepository
	ruleRepo  *ruleRepository.PostgreSQLRuleRepository
	rulerRepo *ruleRepository.PostgreSQLRulerRepository
	grantRepo *grantRepository.PostgreSQLGrantRepository

	// Use Cases
	tokenUseCase  tokenUsecase.TokenUseCase
	ruleUseCase   ruleUsecase.RuleUseCase
	grantUseCase  grantUsecase.GrantUseCase
	brokerUseCase brokerUsecase.BrokerUseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                 sync.Mutex
	loggerInit         sync.Once
	dbInit             sync.Once
	txManagerInit      sync.Once
	metricsInit        sync.Once
	mailerInit         sync.Once
	adminPoolInit      sync.Once
	userAdminInit      sync.Once
	tokenRepoInit      sync.Once
	ruleRepoInit       sync.Once
	rulerRepoInit      sync.Once
	grantRepoInit      sync.Once
	tokenUseCaseInit   sync.Once
	ruleUseCaseInit    sync.Once
	grantUseCaseInit   sync.Once
	brokerUseCaseInit  sync.Once
	httpServerInit     sync.Once
	metricsServerInit  sync.Once
	initErrors         map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the broker's own store connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(database.Config{
			Driver:             c.config.DBDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to connect to database: %w", err)
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the otel/prometheus metrics provider, or nil when
// metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	if err := c.initMetrics(); err != nil {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. With metrics
// disabled it records nothing.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	if err := c.initMetrics(); err != nil {
		return nil, err
	}
	return c.businessMetrics, nil
}

func (c *Container) initMetrics() error {
	c.metricsInit.Do(func() {
		if !c.config.MetricsEnabled {
			c.businessMetrics = metrics.NoopBusinessMetrics()
			return
		}

		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metrics"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}

		businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}

		c.metricsProvider = provider
		c.businessMetrics = businessMetrics
	})
	if storedErr, exists := c.initErrors["metrics"]; exists {
		return storedErr
	}
	return nil
}

// Mailer returns the configured mailer.
func (c *Container) Mailer() (mailer.Mailer, error) {
	c.mailerInit.Do(func() {
		mail, err := mailer.New(c.config)
		if err != nil {
			c.initErrors["mailer"] = fmt.Errorf("failed to create mailer: %w", err)
			return
		}
		c.mail = mail
	})
	if storedErr, exists := c.initErrors["mailer"]; exists {
		return nil, storedErr
	}
	return c.mail, nil
}

// AdminPool returns the admin connection pool over the provisioning hosts.
func (c *Container) AdminPool() (*grantService.AdminPool, error) {
	c.adminPoolInit.Do(func() {
		hosts, err := c.config.AdminHosts()
		if err != nil {
			c.initErrors["adminPool"] = fmt.Errorf("failed to parse admin hosts: %w", err)
			return
		}
		c.adminPool = grantService.NewAdminPool(hosts, c.config.AdminPingTimeout, c.Logger())
	})
	if storedErr, exists := c.initErrors["adminPool"]; exists {
		return nil, storedErr
	}
	return c.adminPool, nil
}

// UserAdmin returns the dialect-aware user administration service.
func (c *Container) UserAdmin() (grantService.UserAdmin, error) {
	c.userAdminInit.Do(func() {
		pool, err := c.AdminPool()
		if err != nil {
			c.initErrors["userAdmin"] = fmt.Errorf("failed to get admin pool for user admin: %w", err)
			return
		}
		c.userAdmin = grantService.NewUserAdmin(pool, c.config.AdminCommandTimeout)
	})
	if storedErr, exists := c.initErrors["userAdmin"]; exists {
		return nil, storedErr
	}
	return c.userAdmin, nil
}

// TokenRepository returns the token repository instance.
func (c *Container) TokenRepository() (*tokenRepository.PostgreSQLTokenRepository, error) {
	c.tokenRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["tokenRepo"] = fmt.Errorf("failed to get database for token repository: %w", err)
			return
		}
		c.tokenRepo = tokenRepository.NewPostgreSQLTokenRepository(db)
	})
	if storedErr, exists := c.initErrors["tokenRepo"]; exists {
		return nil, storedErr
	}
	return c.tokenRepo, nil
}

// RuleRepository returns the rule repository instance.
func (c *Container) RuleRepository() (*ruleRepository.PostgreSQLRuleRepository, error) {
	c.ruleRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["ruleRepo"] = fmt.Errorf("failed to get database for rule repository: %w", err)
			return
		}
		c.ruleRepo = ruleRepository.NewPostgreSQLRuleRepository(db)
	})
	if storedErr, exists := c.initErrors["ruleRepo"]; exists {
		return nil, storedErr
	}
	return c.ruleRepo, nil
}

// RulerRepository returns the ruler repository instance.
func (c *Container) RulerRepository() (*ruleRepository.PostgreSQLRulerRepository, error) {
	c.rulerRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["rulerRepo"] = fmt.Errorf("failed to get database for ruler repository: %w", err)
			return
		}
		c.rulerRepo = ruleRepository.NewPostgreSQLRulerRepository(db)
	})
	if storedErr, exists := c.initErrors["rulerRepo"]; exists {
		return nil, storedErr
	}
	return c.rulerRepo, nil
}

// GrantRepository returns the grant repository instance.
func (c *Container) GrantRepository() (*grantRepository.PostgreSQLGrantRepository, error) {
	c.grantRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["grantRepo"] = fmt.Errorf("failed to get database for grant repository: %w", err)
			return
		}
		c.grantRepo = grantRepository.NewPostgreSQLGrantRepository(db)
	})
	if storedErr, exists := c.initErrors["grantRepo"]; exists {
		return nil, storedErr
	}
	return c.grantRepo, nil
}

// TokenUseCase returns the token use case instance.
func (c *Container) TokenUseCase() (tokenUsecase.TokenUseCase, error) {
	c.tokenUseCaseInit.Do(func() {
		tokenRepo, err := c.TokenRepository()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
			return
		}
		ruleRepo, err := c.RuleRepository()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
			return
		}
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
			return
		}
		c.tokenUseCase = tokenUsecase.NewTokenUseCase(
			c.config,
			tokenRepo,
			ruleRepo,
			tokenService.NewTokenGenerator(),
			txManager,
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["tokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.tokenUseCase, nil
}

// RuleUseCase returns the rule use case instance.
func (c *Container) RuleUseCase() (ruleUsecase.RuleUseCase, error) {
	c.ruleUseCaseInit.Do(func() {
		ruleRepo, err := c.RuleRepository()
		if err != nil {
			c.initErrors["ruleUseCase"] = err
			return
		}
		rulerRepo, err := c.RulerRepository()
		if err != nil {
			c.initErrors["ruleUseCase"] = err
			return
		}
		adminPool, err := c.AdminPool()
		if err != nil {
			c.initErrors["ruleUseCase"] = err
			return
		}
		c.ruleUseCase = ruleUsecase.NewRuleUseCase(ruleRepo, rulerRepo, adminPool, c.Logger())
	})
	if storedErr, exists := c.initErrors["ruleUseCase"]; exists {
		return nil, storedErr
	}
	return c.ruleUseCase, nil
}

// GrantUseCase returns the grant use case instance.
func (c *Container) GrantUseCase() (grantUsecase.GrantUseCase, error) {
	c.grantUseCaseInit.Do(func() {
		grantRepo, err := c.GrantRepository()
		if err != nil {
			c.initErrors["grantUseCase"] = err
			return
		}
		checker, err := c.RuleUseCase()
		if err != nil {
			c.initErrors["grantUseCase"] = err
			return
		}
		userAdmin, err := c.UserAdmin()
		if err != nil {
			c.initErrors["grantUseCase"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["grantUseCase"] = err
			return
		}
		c.grantUseCase = grantUsecase.NewGrantUseCase(
			grantRepo,
			checker,
			userAdmin,
			grantService.NewPassphraseGenerator(),
			businessMetrics,
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["grantUseCase"]; exists {
		return nil, storedErr
	}
	return c.grantUseCase, nil
}

// BrokerUseCase returns the broker orchestration use case instance.
func (c *Container) BrokerUseCase() (brokerUsecase.BrokerUseCase, error) {
	c.brokerUseCaseInit.Do(func() {
		tokenUseCase, err := c.TokenUseCase()
		if err != nil {
			c.initErrors["brokerUseCase"] = err
			return
		}
		ruleUseCase, err := c.RuleUseCase()
		if err != nil {
			c.initErrors["brokerUseCase"] = err
			return
		}
		grantUseCase, err := c.GrantUseCase()
		if err != nil {
			c.initErrors["brokerUseCase"] = err
			return
		}
		mail, err := c.Mailer()
		if err != nil {
			c.initErrors["brokerUseCase"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["brokerUseCase"] = err
			return
		}
		c.brokerUseCase = brokerUsecase.NewBrokerUseCase(
			c.config,
			tokenUseCase,
			ruleUseCase,
			grantUseCase,
			mail,
			businessMetrics,
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["brokerUseCase"]; exists {
		return nil, storedErr
	}
	return c.brokerUseCase, nil
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		broker, err := c.BrokerUseCase()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		handler := brokerHTTP.NewBrokerHandler(broker, c.Logger())
		c.httpServer = http.NewServer(c.config, handler, c.Logger())
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance, or nil when metrics
// are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.adminPool != nil {
		c.adminPool.Close()
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
