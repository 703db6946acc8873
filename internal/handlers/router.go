package handlers

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mukeshkumar44/e-commerce-backend/internal/middleware"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/auth"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/cart"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/catalog"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/order"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/payment"
	"github.com/mukeshkumar44/e-commerce-backend/internal/storage"
)

type Deps struct {
	Logger       *slog.Logger
	Auth         *auth.Service
	Carts        *cart.Service
	Orders       *order.Service
	Payments     *payment.Service
	Products     *catalog.ProductService
	Categories   *catalog.CategoryService
	Images       storage.Images
	LoginLimiter *middleware.RateLimiter
	Ready        ReadinessCheck
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Tracing(deps.Logger))

	if local, ok := deps.Images.(*storage.Local); ok && strings.HasPrefix(local.BaseURL(), "/") {
		r.Static(local.BaseURL(), local.Root())
	}

	r.GET("/healthz", Healthz())
	r.GET("/readyz", Readyz(deps.Ready))

	tokens := deps.Auth.Tokens()
	requireUser := middleware.UserAuth(tokens)
	requireAdmin := middleware.AdminAuth(tokens)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", Register(deps.Auth))
		login := []gin.HandlerFunc{Login(deps.Auth)}
		if deps.LoginLimiter != nil {
			login = append([]gin.HandlerFunc{deps.LoginLimiter.Middleware()}, login...)
		}
		authGroup.POST("/login", login...)
		authGroup.POST("/refresh", Refresh(deps.Auth))
		authGroup.POST("/logout", Logout(deps.Auth))
		authGroup.GET("/me", requireUser, GetMe(deps.Auth))
	}

	api.GET("/products", GetProducts(deps.Products))
	api.GET("/products/:id", GetProduct(deps.Products))

	categories := api.Group("/categories")
	{
		categories.GET("", GetCategories(deps.Categories))
		categories.GET("/tree", GetCategoryTree(deps.Categories))
		categories.GET("/:id", GetCategory(deps.Categories))
		categories.POST("", requireAdmin, CreateCategory(deps.Categories))
		categories.PUT("/:id", requireAdmin, UpdateCategory(deps.Categories))
		categories.DELETE("/:id", requireAdmin, DeleteCategory(deps.Categories))
	}

	cartGroup := api.Group("/cart", requireUser)
	{
		cartGroup.GET("", GetCart(deps.Carts))
		cartGroup.DELETE("", ClearCart(deps.Carts))
		cartGroup.POST("/items", AddCartItem(deps.Carts))
		cartGroup.PUT("/items/:itemId", UpdateCartItem(deps.Carts))
		cartGroup.DELETE("/items/:itemId", RemoveCartItem(deps.Carts))
	}

	orders := api.Group("/orders", requireUser)
	{
		orders.POST("", CreateOrder(deps.Orders))
		orders.GET("/mine", ListMyOrders(deps.Orders))
		orders.POST("/verify-payment", VerifyPayment(deps.Payments))
		orders.GET("/:id", GetOrder(deps.Orders))
		orders.PUT("/:id/cancel", CancelOrder(deps.Orders))
		orders.POST("/:id/payment-intent", CreatePaymentIntent(deps.Payments))
	}

	admin := api.Group("/admin", requireAdmin)
	{
		admin.GET("/orders", ListOrders(deps.Orders))
		admin.PUT("/orders/:id/status", UpdateOrderStatus(deps.Orders))
		admin.PUT("/orders/:id/pay", MarkOrderPaid(deps.Orders))
		admin.PUT("/orders/:id/tracking", AddOrderTracking(deps.Orders))
		admin.POST("/orders/:id/restock", ReconcileOrderStock(deps.Orders))

		admin.GET("/products", GetAllProducts(deps.Products))
		admin.GET("/products/stats", GetProductStats(deps.Products))
		admin.PUT("/products/stock", BulkUpdateStock(deps.Products))
		admin.POST("/products", CreateProduct(deps.Products, deps.Images))
		admin.GET("/products/:id", GetProductAdmin(deps.Products))
		admin.PUT("/products/:id", UpdateProduct(deps.Products, deps.Images))
		admin.PATCH("/products/:id/status", SetProductStatus(deps.Products))
		admin.DELETE("/products/:id", DeleteProduct(deps.Products))
	}

	return r
}
