// PawMart is a pet supplies storefront with a coupon-driven pricing engine
// and an admin back-office.
//
//	@title			PawMart API
//	@version		1.0
//	@description	Pet supplies storefront and back-office API.
//	@BasePath		/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/pawmart/pawmart-api/docs"
	"github.com/pawmart/pawmart-api/internal/api/handlers"
	"github.com/pawmart/pawmart-api/internal/api/middleware"
	"github.com/pawmart/pawmart-api/internal/cache"
	"github.com/pawmart/pawmart-api/internal/config"
	"github.com/pawmart/pawmart-api/internal/health"
	"github.com/pawmart/pawmart-api/internal/metrics"
	"github.com/pawmart/pawmart-api/internal/pricing"
	repository "github.com/pawmart/pawmart-api/internal/repositories"
	redisrepo "github.com/pawmart/pawmart-api/internal/repositories/redis"
	service "github.com/pawmart/pawmart-api/internal/services"
	"github.com/pawmart/pawmart-api/internal/telemetry"
	"github.com/pawmart/pawmart-api/pkg/sendgrid"
	"github.com/pawmart/pawmart-api/pkg/stripe"
)

const serviceVersion = "1.0.0"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.MustLoad()

	ctx := context.Background()

	if cfg.Telemetry.Enabled {
		shutdownTracing, err := telemetry.InitTracing(ctx, &cfg.Telemetry, "pawmart-api", serviceVersion)
		if err != nil {
			slog.Error("Error initializing tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}

		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				slog.Error("Error shutting down tracing", slog.String("error", err.Error()))
			}
		}()
	}

	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("Error closing database connection", slog.String("error", err.Error()))
		}
	}()

	redisClient, err := redisrepo.NewClient(&cfg.Redis)
	if err != nil {
		slog.Error("Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Error("Error closing redis connection", slog.String("error", err.Error()))
		}
	}()

	rateLimiter := redisrepo.NewRateLimiter(redisClient, &cfg.RateConfig)
	storeCache := cache.NewRedisCache(redisClient, &cfg.Cache)

	jwtKey := []byte(cfg.Security.JWTKey)
	stripeClient := stripe.NewStripeClient(cfg.Stripe.APIKey, cfg.Stripe.WebhookSecret)
	emailClient := sendgrid.NewEmailClient(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	calculator := pricing.NewCalculator(cfg.Pricing.FreeDeliveryThreshold, cfg.Pricing.DeliveryFee)

	userService := service.NewUserService(repos.User, rateLimiter, jwtKey)
	productService := service.NewProductService(repos.Product, storeCache)
	offerService := service.NewOfferService(repos.Offer, repos.OfferUsage, storeCache, &cfg.Cache)
	cartService := service.NewCartService(repos.Cart, repos.Product, offerService, calculator)
	notificationService := service.NewNotificationService(emailClient)
	orderService := service.NewOrderService(repos.Order, repos.Cart, repos.Product, repos.Offer, repos.OfferUsage, repos.User, notificationService)
	paymentService := service.NewPaymentService(stripeClient, repos.Order, cfg.Pricing.Currency)
	reviewService := service.NewReviewService(repos.Review, repos.Product)

	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	offerHandler := handlers.NewOfferHandler(offerService, cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	authMiddleware := middleware.NewAuthMiddleware(jwtKey)

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("version", serviceVersion))

	auth := authMiddleware.Authenticate
	admin := func(next http.Handler) http.HandlerFunc {
		return authMiddleware.Authenticate(authMiddleware.RequireAdmin(next))
	}

	routerMux := http.NewServeMux()

	// Public
	routerMux.HandleFunc("POST /api/v1/auth/register", userHandler.Register())
	routerMux.HandleFunc("POST /api/v1/auth/login", userHandler.Login())
	routerMux.HandleFunc("GET /api/v1/products", productHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/products/{id}", productHandler.GetProduct())
	routerMux.HandleFunc("GET /api/v1/products/{id}/reviews", reviewHandler.ListReviews())

	// Authenticated storefront
	routerMux.HandleFunc("GET /api/v1/users/me", auth(userHandler.Profile()))
	routerMux.HandleFunc("GET /api/v1/cart", auth(cartHandler.GetCart()))
	routerMux.HandleFunc("POST /api/v1/cart/items", auth(cartHandler.AddItem()))
	routerMux.HandleFunc("PUT /api/v1/cart/items", auth(cartHandler.UpdateQuantity()))
	routerMux.HandleFunc("DELETE /api/v1/cart/items/{productId}", auth(cartHandler.RemoveItem()))
	routerMux.HandleFunc("POST /api/v1/cart/coupon", auth(cartHandler.ApplyCoupon()))
	routerMux.HandleFunc("DELETE /api/v1/cart/coupon", auth(cartHandler.RemoveCoupon()))
	routerMux.HandleFunc("POST /api/v1/cart/free-items", auth(cartHandler.AddFreeItems()))
	routerMux.HandleFunc("POST /api/v1/offers/evaluate", auth(offerHandler.EvaluateCoupon()))
	routerMux.HandleFunc("POST /api/v1/orders", auth(orderHandler.CreateOrder()))
	routerMux.HandleFunc("GET /api/v1/orders", auth(orderHandler.ListOrders()))
	routerMux.HandleFunc("GET /api/v1/orders/{id}", auth(orderHandler.GetOrder()))
	routerMux.HandleFunc("POST /api/v1/payments", auth(paymentHandler.CreatePayment()))
	routerMux.HandleFunc("POST /api/v1/products/{id}/reviews", auth(reviewHandler.CreateReview()))
	routerMux.HandleFunc("DELETE /api/v1/reviews/{id}", auth(reviewHandler.DeleteReview()))

	// Back-office
	routerMux.HandleFunc("POST /api/v1/admin/products", admin(productHandler.CreateProduct()))
	routerMux.HandleFunc("PUT /api/v1/admin/products/{id}", admin(productHandler.UpdateProduct()))
	routerMux.HandleFunc("PUT /api/v1/admin/products/{id}/stock", admin(productHandler.UpdateStock()))
	routerMux.HandleFunc("DELETE /api/v1/admin/products/{id}", admin(productHandler.DeleteProduct()))
	routerMux.HandleFunc("GET /api/v1/admin/offers", admin(offerHandler.ListOffers()))
	routerMux.HandleFunc("POST /api/v1/admin/offers", admin(offerHandler.CreateOffer()))
	routerMux.HandleFunc("GET /api/v1/admin/offers/{id}", admin(offerHandler.GetOffer()))
	routerMux.HandleFunc("PUT /api/v1/admin/offers/{id}", admin(offerHandler.UpdateOffer()))
	routerMux.HandleFunc("DELETE /api/v1/admin/offers/{id}", admin(offerHandler.DeleteOffer()))
	routerMux.HandleFunc("PATCH /api/v1/admin/orders/{id}/status", admin(orderHandler.UpdateOrderStatus()))

	// Integrations and operability
	routerMux.HandleFunc("POST /api/v1/payments/webhook", paymentHandler.HandleWebhook())
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "pawmart-api")

	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("Server is starting", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("Failed to start server", slog.String("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("Server shut down gracefully")
	}
}
