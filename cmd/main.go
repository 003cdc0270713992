package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/franciscosanchezn/gin-foodgram-api/docs" // Import generated docs
	"github.com/franciscosanchezn/gin-foodgram-api/internal/auth"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/config"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/controllers"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/database"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/middleware"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/storage"
)

// @title Foodgram API
// @version 1.0
// @description Recipe sharing: recipes, favorites, shopping lists and subscriptions
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Token" or "Bearer" followed by a space and the auth token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration := loadConfig()

	ctx := context.Background()

	db := setupDatabase(ctx, configuration)

	oauthService := auth.NewOAuthService(db, auth.Options{
		JWTSecret:    configuration.JWTSecret,
		ClientID:     configuration.OAuthClientID,
		ClientSecret: configuration.OAuthClientSecret,
		TokenTTL:     time.Duration(configuration.TokenTTLHours) * time.Hour,
	})
	checkPanicErr(oauthService.EnsureClient(ctx))

	store, err := storage.New(ctx, configuration)
	checkPanicErr(err)

	router := setupRouter(configuration, db, oauthService, store)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%v:%d", configuration.Host, configuration.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", srv.Addr)
		errChan <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Infof("Received signal: %v", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Info("Server stopped")
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and the level the
// package loggers use
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(config.LevelFromEnv())
	if config.GetEnvWithDefault("APP_ENV", "development") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase connects, migrates and seeds the default tags
func setupDatabase(ctx context.Context, conf *config.Config) *gorm.DB {
	db, err := database.InitDatabase(ctx, database.NewDatabaseConfig(conf))
	checkPanicErr(err)
	checkPanicErr(database.Migrate(db))
	checkPanicErr(database.SeedTags(db))
	return db
}

// setupRateLimiter returns the recipe creation limiter, or nil when no redis
// is configured
func setupRateLimiter(conf *config.Config) gin.HandlerFunc {
	if conf.RedisURL == "" {
		log.Info("REDIS_URL not set, recipe creation is not rate limited")
		return nil
	}
	opts, err := redis.ParseURL(conf.RedisURL)
	checkPanicErr(err)
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// the limiter lets requests through while redis is down
		log.WithError(err).Warn("Redis is not reachable")
	}
	return middleware.NewRecipeCreationRateLimiter(client, conf.RecipeCreateLimit).Middleware()
}

// setupRouter initializes the Gin router and sets up the routes
func setupRouter(conf *config.Config, db *gorm.DB, oauthService *auth.OAuthService, store storage.ImageStore) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     conf.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	favorites := services.NewFavoriteService(db)
	cart := services.NewCartService(db)
	follows := services.NewFollowService(db)
	recipeService := services.NewRecipeService(db, store, favorites, cart, follows, conf.MaxCookingTime)
	userService := services.NewUserService(db, store, follows)

	handlers := controllers.Handlers{
		Recipes:       controllers.NewRecipeController(recipeService, services.NewShoppingListService(db)),
		Favorites:     controllers.NewRecipeRelationController(favorites, recipeService),
		Cart:          controllers.NewRecipeRelationController(cart, recipeService),
		Subscriptions: controllers.NewSubscriptionController(follows, userService),
		Users:         controllers.NewUserController(userService),
		Catalog:       controllers.NewCatalogController(services.NewCatalogService(db)),
		Auth:          controllers.NewAuthController(userService, oauthService),
		Clients:       controllers.NewClientController(services.NewClientService(db)),
		OAuthToken:    oauthService.HandleToken,
	}
	authenticator := middleware.NewAuthenticator(conf.JWTSecret, oauthService)
	controllers.RegisterRoutes(router.Group("/api"), handlers, authenticator, setupRateLimiter(conf))

	// Uploaded media is served by the API only when it is kept on local disk
	if conf.StorageDriver == "local" && strings.HasPrefix(conf.MediaURL, "/") {
		router.Static(strings.TrimSuffix(conf.MediaURL, "/"), conf.MediaRoot)
	}

	router.GET("/health", healthCheckHandler(db))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return router
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service and its database are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "gin-foodgram-api",
		})
	}
}
