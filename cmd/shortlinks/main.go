package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Totarae/ShortLinks/internal/auth"
	"github.com/Totarae/ShortLinks/internal/cache"
	"github.com/Totarae/ShortLinks/internal/config"
	"github.com/Totarae/ShortLinks/internal/database"
	"github.com/Totarae/ShortLinks/internal/handlers"
	"github.com/Totarae/ShortLinks/internal/repositories"
	"github.com/Totarae/ShortLinks/internal/router"
	"github.com/Totarae/ShortLinks/internal/service"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Инициализация конфигурации
	cfg := config.NewConfig()

	db, err := database.NewDB(cfg.DatabaseDSN, logger)
	if err != nil {
		logger.Fatal("Ошибка подключения к БД: ", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(cfg.DatabaseDSN, cfg.PgMigrationsPath, logger); err != nil {
		logger.Fatal("Ошибка применения миграций: ", zap.Error(err))
	}

	// Кэш опционален: без Redis сервис ходит напрямую в БД
	var linkCache *cache.LinkCache
	if cfg.RedisDSN != "" {
		linkCache, err = cache.New(cfg.RedisDSN)
		if err != nil {
			logger.Warn("Redis недоступен, кэш отключён", zap.Error(err))
			linkCache = nil
		}
	}

	repo := repositories.NewLinkRepository(db)
	svc := service.NewLinkService(repo, linkCache, logger, cfg.BaseURL, cfg.DefaultPerPage)
	admin := auth.New(cfg.AdminToken)
	handler := handlers.NewHandler(svc, logger)

	r := router.NewRouter(handler, admin, logger)

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Сервер запущен на ", zap.String("address", cfg.ServerAddress))

		var err error
		if cfg.EnableHTTPS {
			err = srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка при запуске сервера: ", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка при остановке сервера: ", zap.Error(err))
	}
	logger.Info("Сервер остановлен")
}
