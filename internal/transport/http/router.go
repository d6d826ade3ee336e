package httptransport

import (
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nikotrade/backend/internal/config"
	"nikotrade/backend/internal/middleware"
	"nikotrade/backend/internal/monitoring"
	"nikotrade/backend/internal/ratelimit"
	"nikotrade/backend/internal/service"
	"nikotrade/backend/internal/session"
	"nikotrade/backend/internal/websocket"
)

// Fixed windows per client IP. Email-keyed windows live in the service.
var (
	contactIPRule     = ratelimit.Rule{Limit: 10, Window: 10 * time.Minute}
	requestLinkIPRule = ratelimit.Rule{Limit: 8, Window: 10 * time.Minute}
	sessionIPRule     = ratelimit.Rule{Limit: 25, Window: 10 * time.Minute}
	listIPRule        = ratelimit.Rule{Limit: 60, Window: 10 * time.Minute}
)

// RouterDependencies carries everything the router needs.
type RouterDependencies struct {
	Config         *config.Config
	InquiryService *service.InquiryService
	ProductService *service.ProductService
	SessionManager *session.Manager
	Limiter        ratelimit.Limiter
	HealthChecker  *monitoring.HealthChecker
	WebSocketHub   *websocket.Hub
	Logger         *zap.Logger
}

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryHandler(deps.Logger))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(monitoring.HTTPMetrics())

	// Contact form payloads top out well under 1MB.
	router.Use(middleware.BodySizeLimit(1 * 1024 * 1024))

	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	inquiryHandler := NewInquiryHandler(
		deps.InquiryService,
		deps.SessionManager,
		deps.Config.IsProduction(),
		deps.Logger,
	)
	productHandler := NewProductHandler(deps.ProductService)

	v1 := router.Group("/v1")
	{
		// Inquiry responses must never be cached anywhere.
		inquiries := v1.Group("", middleware.NoStore())
		{
			inquiries.POST("/contact",
				middleware.OriginGuard(),
				middleware.RateLimitByIP(deps.Limiter, "contact", contactIPRule, deps.Logger),
				inquiryHandler.SubmitContact,
			)
			inquiries.POST("/inquiries/request-link",
				middleware.OriginGuard(),
				middleware.RateLimitByIP(deps.Limiter, "request-link", requestLinkIPRule, deps.Logger),
				inquiryHandler.RequestLink,
			)
			inquiries.GET("/inquiries/session",
				middleware.RateLimitByIP(deps.Limiter, "session", sessionIPRule, deps.Logger),
				inquiryHandler.ExchangeToken,
			)
			inquiries.GET("/inquiries/mine",
				middleware.RateLimitByIP(deps.Limiter, "mine", listIPRule, deps.Logger),
				inquiryHandler.ListMine,
			)
			inquiries.POST("/inquiries/logout",
				middleware.OriginGuard(),
				inquiryHandler.Logout,
			)
		}

		v1.GET("/products", productHandler.ListProducts)
		v1.GET("/products/:slug", productHandler.GetProduct)

		if deps.WebSocketHub != nil {
			v1.GET("/ws", deps.WebSocketHub.HandleConnection)
		}
	}

	if deps.HealthChecker != nil {
		router.GET("/health/live", gin.WrapF(deps.HealthChecker.LiveEndpoint))
		router.GET("/health/ready", gin.WrapF(deps.HealthChecker.ReadyEndpoint))
	}
	router.GET("/metrics", monitoring.Handler())

	return router
}
