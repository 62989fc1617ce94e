package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storyloom/storyloom-backend/internal/config"
	"github.com/storyloom/storyloom-backend/internal/migration"
	"github.com/storyloom/storyloom-backend/internal/queue"
	"github.com/storyloom/storyloom-backend/internal/repository"
	"github.com/storyloom/storyloom-backend/internal/scraper"
	"github.com/storyloom/storyloom-backend/internal/service"
	pkglogger "github.com/storyloom/storyloom-backend/pkg/logger"
	pkgredis "github.com/storyloom/storyloom-backend/pkg/redis"
)

const dequeueWait = 5 * time.Second

func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	zlog := pkglogger.GetLogger()

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
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

	boardRepo := repository.NewBoardRepository(db)
	postRepo := repository.NewPostRepository(db)
	replyRepo := repository.NewReplyRepository(db)
	userRepo := repository.NewUserRepository(db)
	characterRepo := repository.NewCharacterRepository(db)
	iconRepo := repository.NewIconRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Info().Str("queue", cfg.Importer.QueueKey).Msg("worker started")

	for {
		job, err := jobQueue.Dequeue(ctx, dequeueWait)
		if errors.Is(err, queue.ErrEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				zlog.Info().Msg("worker stopping")
				return
			}
			zlog.Error().Err(err).Msg("dequeue failed")
			time.Sleep(time.Second)
			continue
		}

		jlog := pkglogger.WithImportJob(job.ID, job.Request.URL)
		jlog.Info().Int64("board_id", job.Request.BoardID).Msg("import started")

		post, err := importService.Import(ctx, &job.Request)
		if err != nil {
			jlog.Error().Err(err).Msg("import failed")
			if nerr := notificationService.NotifyImportFailure(job.Request.UserID, job.Request.URL, err); nerr != nil {
				jlog.Error().Err(nerr).Msg("failure notification not delivered")
			}
			continue
		}

		jlog.Info().Int64("post_id", post.ID).Str("subject", post.Subject).Msg("import finished")
		if nerr := notificationService.NotifyImportSuccess(job.Request.UserID, post); nerr != nil {
			jlog.Error().Err(nerr).Msg("success notification not delivered")
		}
	}
}
