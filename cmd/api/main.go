package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storyloom/storyloom-backend/internal/config"
	"github.com/storyloom/storyloom-backend/internal/handler"
	"github.com/storyloom/storyloom-backend/internal/middleware"
	"github.com/storyloom/storyloom-backend/internal/migration"
	"github.com/storyloom/storyloom-backend/internal/queue"
	"github.com/storyloom/storyloom-backend/internal/repository"
	"github.com/storyloom/storyloom-backend/internal/routes"
	"github.com/storyloom/storyloom-backend/internal/scraper"
	"github.com/storyloom/storyloom-backend/internal/service"
	"github.com/storyloom/storyloom-backend/pkg/jwt"
	pkglogger "github.com/storyloom/storyloom-backend/pkg/logger"
	pkgredis "github.com/storyloom/storyloom-backend/pkg/redis"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	zlog := pkglogger.GetLogger()
	zlog.Info().Str("env", env).Strs("dotenv", dotenvFiles).Msg("starting api")

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize,
	)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Repositories
	boardRepo := repository.NewBoardRepository(db)
	postRepo := repository.NewPostRepository(db)
	replyRepo := repository.NewReplyRepository(db)
	userRepo := repository.NewUserRepository(db)
	characterRepo := repository.NewCharacterRepository(db)
	iconRepo := repository.NewIconRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	fetcher := scraper.NewHTTPFetcher(scraper.FetchOptions{
		Throttle:    cfg.Importer.Throttle.Std(),
		RetryDelay:  cfg.Importer.RetryDelay.Std(),
		Timeout:     cfg.Importer.FetchTimeout.Std(),
		MaxAttempts: cfg.Importer.MaxRetries,
		UserAgent:   cfg.Importer.UserAgent,
	})
	rebuilder := queue.NewRebuildNotifier(redisClient, cfg.Importer.QueueKey+":rebuild")
	importService := service.NewImportService(
		db, fetcher, boardRepo, postRepo, replyRepo,
		userRepo, characterRepo, iconRepo, rebuilder, cfg.Importer,
	)
	notificationService := service.NewNotificationService(notificationRepo)

	jobQueue := queue.NewImportQueue(redisClient, cfg.Importer.QueueKey)
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TokenExpiry.Std())

	// Handlers
	handler.RegisterOriginURLValidator(cfg.Importer.OriginHost)
	importHandler := handler.NewImportHandler(importService, jobQueue)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	// Router
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORS,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	}))

	routes.Setup(router, importHandler, notificationHandler, jwtManager)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	zlog.Info().Str("addr", addr).Msg("listening")
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}
