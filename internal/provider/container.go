package provider

import (
	"github.com/wushipay/wushipay/internal/cache"
	"github.com/wushipay/wushipay/internal/config"
	"github.com/wushipay/wushipay/internal/logger"
	"github.com/wushipay/wushipay/internal/models"
	"github.com/wushipay/wushipay/internal/queue"
	"github.com/wushipay/wushipay/internal/repository"
	"github.com/wushipay/wushipay/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo         repository.UserRepository
	TransactionRepo  repository.TransactionRepository
	RateRepo         repository.RateRepository
	GroupRepo        repository.GroupRepository
	VerificationRepo repository.VerificationRepository
	ReferralRepo     repository.ReferralRepository
	RankingRepo      repository.RankingRepository

	// Services
	UserService         *service.UserService
	CalculatorService   *service.CalculatorService
	TransactionService  *service.TransactionService
	GroupService        *service.GroupService
	VerificationService *service.VerificationService
	ReferralService     *service.ReferralService
	RankingService      *service.RankingService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.TransactionRepo = repository.NewTransactionRepository(db)
	c.RateRepo = repository.NewRateRepository(db)
	c.GroupRepo = repository.NewGroupRepository(db)
	c.VerificationRepo = repository.NewVerificationRepository(db)
	c.ReferralRepo = repository.NewReferralRepository(db)
	c.RankingRepo = repository.NewRankingRepository(db)
}

func (c *Container) initServices() {
	c.UserService = service.NewUserService(c.UserRepo)
	c.CalculatorService = service.NewCalculatorService(c.RateRepo)
	c.ReferralService = service.NewReferralService(c.ReferralRepo, c.Config.Referral)
	c.TransactionService = service.NewTransactionService(
		c.TransactionRepo, c.UserRepo, c.CalculatorService, c.ReferralService, c.Config.Transaction,
	)
	c.VerificationService = service.NewVerificationService(c.VerificationRepo, c.GroupRepo)
	c.GroupService = service.NewGroupService(c.GroupRepo, c.VerificationService)
	c.RankingService = service.NewRankingService(c.RankingRepo, c.ReferralRepo, c.Config.Referral)
}
