package server

import (
	"context"
	"net/http"
	"time"

	"github.com/Silver7Surfer/adminbackend/internal/config"
	eventhandler "github.com/Silver7Surfer/adminbackend/internal/event_handler"
	"github.com/Silver7Surfer/adminbackend/internal/handler"
	"github.com/Silver7Surfer/adminbackend/internal/metrics"
	"github.com/Silver7Surfer/adminbackend/internal/middleware"
	"github.com/Silver7Surfer/adminbackend/internal/repository"
	"github.com/Silver7Surfer/adminbackend/internal/router"
	"github.com/Silver7Surfer/adminbackend/internal/service/email"
	"github.com/Silver7Surfer/adminbackend/internal/sub"
	"github.com/Silver7Surfer/adminbackend/internal/usecase/accounts"
	"github.com/Silver7Surfer/adminbackend/internal/usecase/games"
	"github.com/Silver7Surfer/adminbackend/internal/usecase/scope"
	"github.com/Silver7Surfer/adminbackend/internal/usecase/withdrawals"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Server owns the wired application: HTTP surface, websocket hub and
// the redis change-event subscriber.
type Server struct {
	httpServer *http.Server
	subscriber *sub.ChangeEventSubscriber
	pool       *pgxpool.Pool
	rdb        *redis.Client
	logger     *zap.Logger
}

func New(cfg config.AppConfig, pool *pgxpool.Pool, logger *zap.Logger) *Server {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	userRepo := repository.NewUserRepository(pool)
	walletRepo := repository.NewWalletRepository(pool)
	profileRepo := repository.NewGameProfileRepository(pool)

	resolver := scope.NewResolver(userRepo)
	publisher := sub.NewPublisher(rdb, logger)
	mailer := email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)

	gamesSvc := games.NewService(profileRepo, walletRepo, userRepo, resolver, publisher, mailer, m, logger)
	withdrawalsSvc := withdrawals.NewService(walletRepo, userRepo, resolver, publisher, m, logger)
	accountsSvc := accounts.NewService(userRepo, walletRepo, resolver, publisher, logger)

	auth := middleware.NewAuth(cfg.JWTSecret)
	hub := handler.NewHub(m, logger)
	broadcaster := eventhandler.NewBroadcaster(hub, gamesSvc, withdrawalsSvc, m, logger)
	subscriber := sub.NewChangeEventSubscriber(rdb, broadcaster, logger)

	adminHandler := handler.NewAdminHandler(accountsSvc, gamesSvc, withdrawalsSvc, logger)
	wsHandler := handler.NewWSHandler(hub, auth, broadcaster, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(adminHandler, wsHandler, auth, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		subscriber: subscriber,
		pool:       pool,
		rdb:        rdb,
		logger:     logger,
	}
}

// Start launches the change-event subscriber and blocks serving HTTP
// until the listener fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.subscriber.Start(ctx)
	s.logger.Info("admin backend listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if cerr := s.rdb.Close(); err == nil {
		err = cerr
	}
	s.pool.Close()
	return err
}
