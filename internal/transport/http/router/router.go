package router

import (
	"net/http"
	"time"

	"bagshop/internal/service"
	"bagshop/internal/transport/http/handlers"
	"bagshop/internal/transport/http/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Deps struct {
	Customers handlers.CustomerAPI
	Auth      middleware.Authenticator
	Catalog   handlers.CatalogAPI
	Carts     handlers.CartAPI
	Checkout  handlers.CheckoutAPI
	Orders    service.OrderService

	AllowOrigins []string
	Session      middleware.SessionConfig
}

func Router(d Deps, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	origins := d.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.SessionHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.SessionHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authH := handlers.NewAuthHandler(d.Customers, log)
	catalogH := handlers.NewCatalogHandler(d.Catalog, log)
	cartH := handlers.NewCartHandler(d.Carts, log)
	orderH := handlers.NewOrderHandler(d.Checkout, d.Orders, log)

	authRequired := middleware.AuthRequired(d.Auth, log)

	api := r.Group("/api/v1")
	{
		api.POST("/auth/register", authH.Register)
		api.POST("/auth/login", authH.Login)
		api.GET("/auth/me", authRequired, authH.Me)

		api.GET("/products", catalogH.ListProducts)
		api.GET("/products/:id", catalogH.GetProduct)
		api.GET("/categories", catalogH.ListCategories)
		api.GET("/categories/:slug", catalogH.GetCategoryBySlug)
	}

	// корзина гостевая: привязана к сессии, не к покупателю
	sess := api.Group("", middleware.Session(d.Session))
	{
		sess.GET("/cart", cartH.Get)
		sess.POST("/cart/items", cartH.AddItem)
		sess.PUT("/cart/items/:productId", cartH.UpdateItem)
		sess.DELETE("/cart/items/:productId", cartH.RemoveItem)
		sess.DELETE("/cart", cartH.Clear)

		sess.POST("/checkout", authRequired, orderH.Checkout)
	}

	customer := api.Group("", authRequired)
	{
		customer.GET("/orders", orderH.ListMine)
		customer.GET("/orders/:id", orderH.GetMine)
	}

	admin := api.Group("/admin", authRequired, middleware.AdminRequired())
	{
		admin.GET("/products", catalogH.AdminListProducts)
		admin.GET("/products/:id", catalogH.AdminGetProduct)
		admin.POST("/products", catalogH.CreateProduct)
		admin.PUT("/products/:id", catalogH.UpdateProduct)
		admin.DELETE("/products/:id", catalogH.DeleteProduct)
		admin.PUT("/products/:id/stock", catalogH.UpdateStock)

		admin.GET("/categories/:id", catalogH.AdminGetCategory)
		admin.POST("/categories", catalogH.CreateCategory)
		admin.PUT("/categories/:id", catalogH.UpdateCategory)
		admin.DELETE("/categories/:id", catalogH.DeleteCategory)

		admin.GET("/orders", orderH.AdminList)
		admin.GET("/orders/:id", orderH.AdminGet)
		admin.PUT("/orders/:id/status", orderH.AdminUpdateStatus)
	}

	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
