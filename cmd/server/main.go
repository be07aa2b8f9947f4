package main

import (
	"fmt"
	"log"

	"github.com/qs3c/bookstore_go_server/config"
	"github.com/qs3c/bookstore_go_server/internal/api"
	"github.com/qs3c/bookstore_go_server/internal/api/handler"
	"github.com/qs3c/bookstore_go_server/internal/database"
	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/pkg/gateway"
	"github.com/qs3c/bookstore_go_server/internal/pkg/oss"
	"github.com/qs3c/bookstore_go_server/internal/pkg/queue"
	"github.com/qs3c/bookstore_go_server/internal/repository"
	"github.com/qs3c/bookstore_go_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Book{},
		&model.Cart{},
		&model.Order{},
		&model.Payment{},
		&model.Card{},
		&model.Plan{},
		&model.Subscription{},
		&model.Discount{},
		&model.TaxRate{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化 OSS（可选，未配置时封面上传不可用）
	var ossClient *oss.Client
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err = oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Printf("Warning: Failed to init OSS client: %v", err)
		} else {
			log.Println("OSS client initialized")
		}
	}

	// 初始化邮件队列与支付网关
	mailQueue := queue.NewQueue(rdb, cfg.Queue.MailQueue)
	gw := gateway.NewStripeGateway(&cfg.Stripe)

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	bookRepo := repository.NewBookRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	cardRepo := repository.NewCardRepository(db)
	planRepo := repository.NewPlanRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	taxRateRepo := repository.NewTaxRateRepository(db)

	// 初始化 Service
	authService := service.NewAuthService(userRepo, mailQueue, cfg)
	userService := service.NewUserService(userRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	bookService := service.NewBookService(bookRepo, categoryRepo, rdb, ossClient, cfg)
	cartService := service.NewCartService(cartRepo, bookRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, userRepo, paymentRepo, gw, mailQueue)
	paymentService := service.NewPaymentService(userRepo, paymentRepo, cardRepo, gw, cfg)
	discountService := service.NewDiscountService(discountRepo, gw)
	billingService := service.NewBillingService(planRepo, taxRateRepo, paymentService, gw, mailQueue, cfg)
	subscriptionService := service.NewSubscriptionService(
		planRepo, subRepo, taxRateRepo, paymentService, discountService, gw, cfg)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	bookHandler := handler.NewBookHandler(bookService)
	cartHandler := handler.NewCartHandler(cartService)
	orderHandler := handler.NewOrderHandler(orderService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	billingHandler := handler.NewBillingHandler(billingService)
	discountHandler := handler.NewDiscountHandler(discountService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	webhookHandler := handler.NewWebhookHandler(gw, subscriptionService)

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		userHandler,
		categoryHandler,
		bookHandler,
		cartHandler,
		orderHandler,
		paymentHandler,
		billingHandler,
		discountHandler,
		subscriptionHandler,
		webhookHandler,
		userRepo,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
