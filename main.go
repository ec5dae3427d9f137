package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yashrajoria/storefront-service/cache"
	"github.com/yashrajoria/storefront-service/catalog"
	"github.com/yashrajoria/storefront-service/common/auth"
	apperrors "github.com/yashrajoria/storefront-service/common/errors"
	"github.com/yashrajoria/storefront-service/common/logger"
	"github.com/yashrajoria/storefront-service/controllers"
	"github.com/yashrajoria/storefront-service/database"
	"github.com/yashrajoria/storefront-service/events"
	"github.com/yashrajoria/storefront-service/invoice"
	"github.com/yashrajoria/storefront-service/metrics"
	"github.com/yashrajoria/storefront-service/middleware"
	"github.com/yashrajoria/storefront-service/models"
	"github.com/yashrajoria/storefront-service/payment"
	aws_pkg "github.com/yashrajoria/storefront-service/pkg/aws"
	"github.com/yashrajoria/storefront-service/repository"
	"github.com/yashrajoria/storefront-service/routes"
	"github.com/yashrajoria/storefront-service/services"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	awsCfg, err := aws_pkg.LoadAWSConfig(ctx, cfg.AWSRegion)
	if err != nil {
		log.Printf("AWS config unavailable, AWS integrations disabled: %v", err)
	}
	awsReady := err == nil

	// --- Logging ---
	var cwWriter io.Writer
	if awsReady && cfg.CloudWatchLogGroup != "" {
		cw, err := aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.CloudWatchLogGroup, cfg.ServiceName)
		if err != nil {
			log.Printf("CloudWatch Logs unavailable: %v", err)
		} else {
			cwWriter = cw
		}
	}
	zapLogger := logger.InitializeWithWriter(cfg.Env, cwWriter)
	defer zapLogger.Sync() //nolint:errcheck

	// --- Storage ---
	db, err := database.ConnectPostgres(cfg.postgres(), zapLogger,
		&models.User{}, &models.CartItem{}, &models.Order{}, &models.OrderLine{})
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	store := repository.NewGormStore(db)

	var mongoConn *database.Mongo
	var productCatalog catalog.Catalog
	switch cfg.CatalogBackend {
	case "http":
		productCatalog = catalog.NewHTTPCatalog(cfg.ProductServiceURL, cfg.CatalogTimeout)
	default:
		mongoConn, err = database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		productCatalog = catalog.NewMongoCatalog(mongoConn.DB)
	}

	var redisClient *redis.Client
	var locker cache.Locker = cache.NoopLocker{}
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Warn("Redis unavailable, catalog cache and verification locks disabled", zap.Error(err))
		} else {
			locker = cache.NewRedisLocker(redisClient)
		}
	}
	browseCatalog, liveCatalog := newCatalogs(productCatalog, redisClient, cfg.CatalogCacheTTL, zapLogger)

	// --- Metrics ---
	provider, err := metrics.NewProvider(cfg.ServiceName, cfg.Version, true)
	if err != nil {
		zapLogger.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	cwMetrics := aws_pkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, awsReady && cfg.CloudWatchMetrics)
	recorder, err := metrics.NewRecorder(provider.Meter(cfg.ServiceName), cwMetrics)
	if err != nil {
		zapLogger.Fatal("Failed to register metrics", zap.Error(err))
	}

	// --- Payments, invoices and events ---
	verifier := payment.NewVerifier(newGateway(cfg), cfg.VerifyTimeout, zapLogger)
	archiver := newArchiver(cfg, awsCfg, awsReady, zapLogger)
	publisher := newPublisher(cfg, awsCfg, awsReady, zapLogger)

	cartSvc := services.NewCartService(store, liveCatalog, recorder, zapLogger)
	checkoutSvc := services.NewCheckoutService(cartSvc, liveCatalog, zapLogger)
	orderSvc := services.NewOrderService(store, recorder, zapLogger)
	paymentSvc := services.NewPaymentService(verifier, orderSvc, checkoutSvc, locker, publisher, recorder, zapLogger)
	invoiceSvc := services.NewInvoiceService(invoice.NewRenderer(cfg.InvoiceCompress), archiver, cfg.ArchiveTimeout, recorder, zapLogger)

	// --- HTTP ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	controllers.RegisterValidators()

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 10*time.Minute)

	var tokenParser *auth.TokenParser
	if cfg.JWTSecret != "" {
		tokenParser = auth.NewTokenParser(cfg.JWTSecret)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.RequestLogger(zapLogger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimitMiddleware(limiter))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.MetricsMiddleware(cwMetrics, cfg.ServiceName))
	r.Use(apperrors.ErrorMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": cfg.ServiceName})
	})
	r.GET("/metrics", gin.WrapH(provider.Handler()))

	routes.RegisterProductRoutes(r, controllers.NewProductController(browseCatalog, cfg.PageSize))
	routes.RegisterShopRoutes(r, middleware.AuthMiddleware(tokenParser, cfg.TrustGatewayHeaders),
		controllers.NewCartController(cartSvc, checkoutSvc),
		controllers.NewOrderController(orderSvc, paymentSvc, invoiceSvc),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Storefront service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	// In-flight invoice uploads finish before their clients go away.
	invoiceSvc.Wait()
	limiter.Stop()

	if err := publisher.Close(); err != nil {
		zapLogger.Warn("Failed to close event publisher", zap.Error(err))
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("Failed to shut down metrics provider", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if mongoConn != nil {
		if err := mongoConn.Close(); err != nil {
			zapLogger.Warn("Failed to close MongoDB", zap.Error(err))
		}
	}
	if err := database.ClosePostgres(db); err != nil {
		zapLogger.Warn("Failed to close PostgreSQL", zap.Error(err))
	}
	zapLogger.Info("Server shutdown complete")
}

// newCatalogs returns the catalog behind product browsing and the one used
// by cart and checkout. Only browsing reads through the Redis cache, so a
// price change or deletion reaches checkout immediately.
func newCatalogs(source catalog.Catalog, redisClient *redis.Client, ttl time.Duration, zl *zap.Logger) (browse, live catalog.Catalog) {
	if redisClient == nil {
		return source, source
	}
	return catalog.NewCachedCatalog(source, cache.NewRedisCache(redisClient, ttl), zl), source
}

func newGateway(cfg *Config) payment.Gateway {
	client := &http.Client{Timeout: cfg.VerifyTimeout}
	if cfg.PaymentGateway == "stripe" {
		return payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeBaseURL, client)
	}
	return payment.NewPaystackGateway(cfg.PaystackBaseURL, cfg.PaystackSecret, client)
}

func newArchiver(cfg *Config, awsCfg sdkaws.Config, awsReady bool, zl *zap.Logger) invoice.Archiver {
	switch cfg.InvoiceArchive {
	case "s3":
		if !awsReady {
			zl.Warn("INVOICE_ARCHIVE=s3 but AWS is unavailable, invoices will not be archived")
			return invoice.NoopArchiver{}
		}
		usePathStyle := os.Getenv("AWS_S3_ENDPOINT") != "" || os.Getenv("AWS_ENDPOINT") != ""
		uploader := aws_pkg.NewS3Uploader(aws_pkg.NewS3Client(awsCfg, usePathStyle))
		return invoice.NewS3Archiver(uploader, cfg.InvoiceBucket, cfg.InvoicePrefix)
	case "file":
		return invoice.NewFileArchiver(cfg.InvoiceDir)
	default:
		return invoice.NoopArchiver{}
	}
}

func newPublisher(cfg *Config, awsCfg sdkaws.Config, awsReady bool, zl *zap.Logger) events.Publisher {
	switch cfg.EventsBackend {
	case "sns":
		if !awsReady {
			zl.Warn("EVENTS_BACKEND=sns but AWS is unavailable, order events disabled")
			return events.NoopPublisher{}
		}
		return events.NewSNSPublisher(aws_pkg.NewSNSClient(awsCfg), cfg.SNSOrderTopicArn)
	case "kafka":
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
	default:
		return events.NoopPublisher{}
	}
}
