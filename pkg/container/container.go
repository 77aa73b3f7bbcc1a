package container

import (
	"context"
	"fmt"
	"time"

	"textbook-backend/internal/config"
	infracache "textbook-backend/internal/infrastructure/cache"
	"textbook-backend/internal/infrastructure/database"
	"textbook-backend/pkg/cache"
	pkgdb "textbook-backend/pkg/database"
	"textbook-backend/pkg/jwt"
	"textbook-backend/pkg/logger"
	"textbook-backend/pkg/sequence"

	invHandler "textbook-backend/internal/domains/inventory/handler"
	invRepo "textbook-backend/internal/domains/inventory/repository"
	invService "textbook-backend/internal/domains/inventory/service"
	orderHandler "textbook-backend/internal/domains/order/handler"
	orderRepo "textbook-backend/internal/domains/order/repository"
	orderService "textbook-backend/internal/domains/order/service"
	pubHandler "textbook-backend/internal/domains/publisher/handler"
	pubRepo "textbook-backend/internal/domains/publisher/repository"
	pubService "textbook-backend/internal/domains/publisher/service"
	statsHandler "textbook-backend/internal/domains/statistics/handler"
	statsRepo "textbook-backend/internal/domains/statistics/repository"
	statsService "textbook-backend/internal/domains/statistics/service"
	stockinHandler "textbook-backend/internal/domains/stockin/handler"
	stockinRepo "textbook-backend/internal/domains/stockin/repository"
	stockinService "textbook-backend/internal/domains/stockin/service"
	tbHandler "textbook-backend/internal/domains/textbook/handler"
	tbRepo "textbook-backend/internal/domains/textbook/repository"
	tbService "textbook-backend/internal/domains/textbook/service"
	typeHandler "textbook-backend/internal/domains/textbooktype/handler"
	typeRepo "textbook-backend/internal/domains/textbooktype/repository"
	typeService "textbook-backend/internal/domains/textbooktype/service"
	userHandler "textbook-backend/internal/domains/user/handler"
	userRepo "textbook-backend/internal/domains/user/repository"
	userService "textbook-backend/internal/domains/user/service"
)

// Container holds the full dependency graph. Initialization order is
// config, infrastructure, repositories, services, handlers.
type Container struct {
	Config     *config.Config
	DB         *database.PostgresDB
	Redis      *infracache.RedisClient
	Cache      cache.Cache
	JWTManager *jwt.Manager
	Sequence   sequence.Generator

	UserRepo         userRepo.UserRepository
	PublisherRepo    pubRepo.PublisherRepository
	TextbookTypeRepo typeRepo.TextbookTypeRepository
	TextbookRepo     tbRepo.TextbookRepository
	InventoryRepo    invRepo.InventoryRepository
	OrderRepo        orderRepo.OrderRepository
	StockInRepo      stockinRepo.StockInRepository
	StatisticsRepo   statsRepo.StatisticsRepository

	UserService         userService.UserService
	PublisherService    pubService.PublisherService
	TextbookTypeService typeService.TextbookTypeService
	TextbookService     tbService.TextbookService
	InventoryService    invService.InventoryService
	OrderService        orderService.OrderService
	StockInService      stockinService.StockInService
	StatisticsService   statsService.StatisticsService

	UserHandler         *userHandler.UserHandler
	PublisherHandler    *pubHandler.PublisherHandler
	TextbookTypeHandler *typeHandler.TextbookTypeHandler
	TextbookHandler     *tbHandler.TextbookHandler
	InventoryHandler    *invHandler.InventoryHandler
	OrderHandler        *orderHandler.OrderHandler
	StockInHandler      *stockinHandler.StockInHandler
	StatisticsHandler   *statsHandler.StatisticsHandler
}

func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Init(cfg.App.Environment)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}
	c.DB = database.NewPostgresDB(dbConfig)
	if err := c.DB.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	c.Redis = infracache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Cache = c.Redis

	c.JWTManager = jwt.NewManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Hour,
	)
	c.Sequence = sequence.NewPostgresGenerator(c.DB.Pool)

	// Repositories
	c.UserRepo = userRepo.NewPostgresRepository(c.DB.Pool, c.Cache)
	c.PublisherRepo = pubRepo.NewPostgresRepository(c.DB.Pool)
	c.TextbookTypeRepo = typeRepo.NewPostgresRepository(c.DB.Pool)
	c.TextbookRepo = tbRepo.NewPostgresRepository(c.DB.Pool)
	c.InventoryRepo = invRepo.NewPostgresRepository(c.DB.Pool)
	c.OrderRepo = orderRepo.NewPostgresRepository(c.DB.Pool)
	c.StockInRepo = stockinRepo.NewPostgresRepository(c.DB.Pool)
	c.StatisticsRepo = statsRepo.NewPostgresRepository(c.DB.Pool)

	// Services
	c.UserService = userService.NewUserService(c.UserRepo, c.JWTManager)
	c.PublisherService = pubService.NewPublisherService(c.PublisherRepo)
	c.TextbookTypeService = typeService.NewTextbookTypeService(c.TextbookTypeRepo)
	c.TextbookService = tbService.NewTextbookService(c.TextbookRepo)
	c.InventoryService = invService.NewInventoryService(c.InventoryRepo)
	txRunner := pkgdb.NewPoolRunner(c.DB.Pool)
	c.OrderService = orderService.NewOrderService(
		txRunner, c.OrderRepo, c.InventoryRepo, c.Sequence, c.resolveRole)
	c.StockInService = stockinService.NewStockInService(
		txRunner, c.StockInRepo, c.OrderRepo, c.InventoryRepo, c.Sequence)
	c.StatisticsService = statsService.NewStatisticsService(c.StatisticsRepo)

	// Handlers
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.PublisherHandler = pubHandler.NewPublisherHandler(c.PublisherService)
	c.TextbookTypeHandler = typeHandler.NewTextbookTypeHandler(c.TextbookTypeService)
	c.TextbookHandler = tbHandler.NewTextbookHandler(c.TextbookService)
	c.InventoryHandler = invHandler.NewInventoryHandler(c.InventoryService)
	c.OrderHandler = orderHandler.NewOrderHandler(c.OrderService)
	c.StockInHandler = stockinHandler.NewStockInHandler(c.StockInService)
	c.StatisticsHandler = statsHandler.NewStatisticsHandler(c.StatisticsService)

	logger.Info("container initialized", map[string]interface{}{
		"environment": cfg.App.Environment,
	})

	return c, nil
}

// resolveRole adapts the user repository into the order service's
// RoleResolver. Lookups hit the Redis cache first.
func (c *Container) resolveRole(ctx context.Context, username string) (string, error) {
	u, err := c.UserRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// HealthCheck verifies the infrastructure dependencies.
func (c *Container) HealthCheck(ctx context.Context) error {
	if err := c.DB.HealthCheck(ctx); err != nil {
		return err
	}
	return c.Redis.Ping(ctx)
}

// Cleanup releases infrastructure resources on shutdown.
func (c *Container) Cleanup() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("failed to close redis", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logger.Error("failed to close database", err)
		}
	}
}
