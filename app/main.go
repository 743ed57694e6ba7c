package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/MishraShardendu22/blog-backend/internal/blogservice"
	"github.com/MishraShardendu22/blog-backend/internal/common"
	"github.com/MishraShardendu22/blog-backend/internal/mailservice"
	"github.com/MishraShardendu22/blog-backend/internal/userservice"
)

type application struct {
	config      *Config
	logger      *slog.Logger
	userService *userservice.UserService
	blogService *blogservice.BlogService
	mailService *mailservice.MailService
	broker      *common.MessageBroker
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := common.NewDB(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, 10, 5, 15*time.Minute)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	cache := newCache(cfg, logger)

	URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.MQUser, cfg.MQPassword, cfg.MQHost, cfg.MQPort)
	broker, err := common.NewMessageBroker(URI)
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	err = common.SetupUserExchange(broker)
	if err != nil {
		logger.Error("failed to setup the user exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	otpExpiry := time.Duration(cfg.OTPExpiryMinutes) * time.Minute

	app := &application{
		config:      cfg,
		logger:      logger,
		userService: userservice.NewUserService(db, broker, cfg.OwnerEmail, otpExpiry),
		blogService: blogservice.NewBlogService(db, cache),
		broker:      broker,
		mailService: mailservice.NewMailService(broker, cfg.MailHost, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailPort, otpExpiry, logger),
	}
	defer app.mailService.Close()

	go app.mailService.SendOTPEmail()

	cleaner := userservice.NewCleaner(db, logger)
	stopCleaner := cleaner.Start(time.Duration(cfg.CleanupIntervalMinutes) * time.Minute)
	defer stopCleaner()

	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newCache prefers Redis when an address is configured but degrades to the
// in-process cache rather than refusing to start.
func newCache(cfg *Config, logger *slog.Logger) common.Cache {
	if cfg.RedisAddr == "" {
		return common.NewMemoryCache(5 * time.Minute)
	}

	rc := common.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rc.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, falling back to in-memory cache", slog.String("error", err.Error()))
		rc.Close()
		return common.NewMemoryCache(5 * time.Minute)
	}

	return rc
}
