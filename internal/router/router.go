package router

import (
	"time"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/novus0x/nexolocal/internal/config"
	"github.com/novus0x/nexolocal/internal/handler"
	"github.com/novus0x/nexolocal/internal/infra"
	"github.com/novus0x/nexolocal/internal/middleware"
	"github.com/novus0x/nexolocal/internal/permission"
	"github.com/novus0x/nexolocal/internal/repository"
	"github.com/novus0x/nexolocal/internal/service"
	"github.com/novus0x/nexolocal/internal/worker"
)

// New wires all dependencies and returns a configured Gin engine plus the
// receipt worker for the pool.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, *worker.ReceiptWorker) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	mailer := infra.NewMailer(cfg)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	productRepo := repository.NewProductRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	cashRepo := repository.NewCashRepository(db)
	financeRepo := repository.NewFinanceRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	perm := permission.NewChecker(userRepo)

	authSvc := service.NewAuthService(userRepo, cfg)
	cashSvc := service.NewCashService(cashRepo, financeRepo, perm)
	inventorySvc := service.NewInventoryService(productRepo, cashRepo, financeRepo, perm)
	productSvc := service.NewProductService(productRepo, cashRepo, financeRepo, perm)

	// Worker dispatcher, injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	saleSvc := service.NewSaleService(saleRepo, productRepo, cashRepo, financeRepo, inventorySvc, perm, rdb, dispatcher)

	receiptWorker := worker.NewReceiptWorker(saleRepo, companyRepo, mailer, cfg.PDFStoragePath)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	cashH := handler.NewCashHandler(cashSvc)
	saleH := handler.NewSaleHandler(saleSvc)
	productH := handler.NewProductHandler(productSvc, inventorySvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
	}

	// Protected routes: capability checks happen per-operation inside the
	// services, so the router only enforces authentication.
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	company := r.Group("/v1/companies/:company_id", jwtMW)
	{
		cash := company.Group("/cash")
		{
			cash.POST("/open", cashH.Open)
			cash.POST("/close", cashH.Close)
			cash.POST("/movements", cashH.RecordMovement)
			cash.GET("/current", cashH.Current)
			cash.GET("/sessions", cashH.ListSessions)
			cash.GET("/sessions/:id", cashH.Report)
			cash.GET("/flow", cashH.CashFlow)
		}

		sales := company.Group("/sales")
		{
			sales.POST("", saleH.Create)
			sales.GET("", saleH.List)
			sales.POST("/lookup", saleH.Lookup)
			sales.POST("/search", saleH.Search)
			sales.GET("/:id", saleH.Get)
		}

		products := company.Group("/products")
		{
			products.POST("", productH.Create)
			products.GET("", productH.List)
			products.GET("/:id", productH.Get)
			products.POST("/:id/batches", productH.AddBatch)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, receiptWorker
}
