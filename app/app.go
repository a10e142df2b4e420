package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/libroteca/library-service/config"
	"github.com/libroteca/library-service/internal/handler"
	"github.com/libroteca/library-service/internal/repository"
	"github.com/libroteca/library-service/internal/server"
	"github.com/libroteca/library-service/internal/service"
	"github.com/libroteca/library-service/migrations"
	"github.com/libroteca/library-service/pkg/logger"
	"github.com/libroteca/library-service/pkg/postgres"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "libroteca")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo %v", err)
	}

	authSvc := service.NewAuthService(repo, cfg.JWT, log)
	reservationSvc := service.NewReservationService(repo, log)
	catalogSvc := service.NewCatalogService(repo, repo, log)
	h := handler.New(authSvc, catalogSvc, reservationSvc, log)

	srv := server.NewServer(cfg.Server, h.NewRouter(cfg.JWT))
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
	return nil
}
