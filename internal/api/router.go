package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/bookstore_go_server/config"
	"github.com/qs3c/bookstore_go_server/internal/api/handler"
	"github.com/qs3c/bookstore_go_server/internal/api/middleware"
	"github.com/qs3c/bookstore_go_server/internal/repository"
)

type Router struct {
	authHandler         *handler.AuthHandler
	userHandler         *handler.UserHandler
	categoryHandler     *handler.CategoryHandler
	bookHandler         *handler.BookHandler
	cartHandler         *handler.CartHandler
	orderHandler        *handler.OrderHandler
	paymentHandler      *handler.PaymentHandler
	billingHandler      *handler.BillingHandler
	discountHandler     *handler.DiscountHandler
	subscriptionHandler *handler.SubscriptionHandler
	webhookHandler      *handler.WebhookHandler
	userRepo            *repository.UserRepository
	cfg                 *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	categoryHandler *handler.CategoryHandler,
	bookHandler *handler.BookHandler,
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
	billingHandler *handler.BillingHandler,
	discountHandler *handler.DiscountHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	webhookHandler *handler.WebhookHandler,
	userRepo *repository.UserRepository,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:         authHandler,
		userHandler:         userHandler,
		categoryHandler:     categoryHandler,
		bookHandler:         bookHandler,
		cartHandler:         cartHandler,
		orderHandler:        orderHandler,
		paymentHandler:      paymentHandler,
		billingHandler:      billingHandler,
		discountHandler:     discountHandler,
		subscriptionHandler: subscriptionHandler,
		webhookHandler:      webhookHandler,
		userRepo:            userRepo,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// 网关回调，验签在 handler 内完成
		api.POST("/webhook/stripe", r.webhookHandler.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/forgot-password", r.authHandler.ForgotPassword)
			auth.POST("/reset-password", r.authHandler.ResetPassword)
		}

		// 公开接口 - 书目浏览
		api.GET("/categories", r.categoryHandler.List)
		api.GET("/categories/:id", r.categoryHandler.Get)
		api.GET("/books", r.bookHandler.List)
		api.GET("/books/:id", r.bookHandler.Get)
		api.GET("/plans", r.subscriptionHandler.ListPlans)
		api.GET("/plans/:id", r.subscriptionHandler.GetPlan)
		api.GET("/tax-rates", r.billingHandler.ListTaxRates)
		api.GET("/tax-rates/:id", r.billingHandler.GetTaxRate)

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			// 用户
			user := authenticated.Group("/user")
			{
				user.GET("/profile", r.userHandler.GetProfile)
				user.PUT("/profile", r.userHandler.UpdateProfile)
			}

			// 购物车
			cart := authenticated.Group("/cart")
			{
				cart.POST("", r.cartHandler.Add)
				cart.GET("", r.cartHandler.List)
				cart.PUT("", r.cartHandler.UpdateQuantity)
				cart.DELETE("/:id", r.cartHandler.Remove)
				cart.DELETE("", r.cartHandler.Clear)
			}

			// 订单
			orders := authenticated.Group("/orders")
			{
				orders.POST("", r.orderHandler.Place)
				orders.GET("", r.orderHandler.List)
				orders.GET("/:id", r.orderHandler.Get)
			}

			// 支付档案与虚拟卡
			payment := authenticated.Group("/payment")
			{
				payment.POST("/methods", r.paymentHandler.CreatePaymentMethod)
				payment.GET("/profile", r.paymentHandler.GetProfile)
				payment.POST("/cards", r.paymentHandler.CreateCard)
				payment.GET("/cards", r.paymentHandler.ListCards)
			}

			// 订阅
			subscription := authenticated.Group("/subscription")
			{
				subscription.POST("", r.subscriptionHandler.Subscribe)
				subscription.GET("", r.subscriptionHandler.GetCurrent)
				subscription.DELETE("", r.subscriptionHandler.CancelNow)
				subscription.POST("/cancel", r.subscriptionHandler.CancelAtPeriodEnd)
				subscription.POST("/pause", r.subscriptionHandler.Pause)
				subscription.POST("/resume", r.subscriptionHandler.Resume)
			}

			// 账单会话
			billing := authenticated.Group("/billing")
			{
				billing.POST("/checkout", r.billingHandler.Checkout)
				billing.POST("/portal", r.billingHandler.Portal)
				billing.POST("/payment-link", r.billingHandler.SendPaymentLink)
			}

			// 管理接口
			admin := authenticated.Group("/admin")
			admin.Use(middleware.RequireAdmin(r.userRepo))
			{
				admin.POST("/categories", r.categoryHandler.Create)
				admin.PUT("/categories/:id", r.categoryHandler.Update)
				admin.DELETE("/categories/:id", r.categoryHandler.Delete)

				admin.POST("/books", r.bookHandler.Create)
				admin.PUT("/books/:id", r.bookHandler.Update)
				admin.DELETE("/books/:id", r.bookHandler.Delete)
				admin.POST("/books/:id/cover", r.bookHandler.UploadCover)

				admin.POST("/plans", r.subscriptionHandler.CreatePlan)

				admin.POST("/discounts", r.discountHandler.Create)
				admin.GET("/discounts", r.discountHandler.List)
				admin.DELETE("/discounts/:id", r.discountHandler.Deactivate)

				admin.POST("/tax-rates", r.billingHandler.CreateTaxRate)

				admin.POST("/test-clocks", r.billingHandler.CreateTestClock)
				admin.POST("/test-clocks/advance", r.billingHandler.AdvanceTestClock)
			}
		}
	}

	return engine
}
