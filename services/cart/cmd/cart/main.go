package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	pkgdb "github.com/skatech/invcart/pkg/db"
	"github.com/skatech/invcart/pkg/logging"
	loggingmw "github.com/skatech/invcart/pkg/middleware/logging"
	"github.com/skatech/invcart/pkg/mykafka"
	"github.com/skatech/invcart/pkg/stockclient"

	cartcfg "github.com/skatech/invcart/services/cart/internal/config"
	"github.com/skatech/invcart/services/cart/internal/httpserver"
	"github.com/skatech/invcart/services/cart/internal/repo"
	"github.com/skatech/invcart/services/cart/internal/service"
)

func main() {
	if err := godotenv.Load("services/cart/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := cartcfg.Load()

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	logger := logging.New(os.Getenv("LOG_LEVEL")).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = mykafka.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
	}

	svc := &service.CartService{
		Repo:     &repo.GormRepo{DB: db},
		Stock:    stockclient.NewClient(cfg.CatalogURL),
		Producer: producer,
		TTL:      cfg.CartTTL,
	}

	handler := &httpserver.CartHTTP{Svc: svc}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{CartHandler: handler})

	sweepCtx, stopSweeper := context.WithCancel(logging.IntoContext(context.Background(), logger))
	sweeper := &service.Sweeper{
		Svc:      svc,
		Interval: cfg.SweepInterval,
		Disabled: cfg.SweepDisabled,
	}
	go sweeper.Run(sweepCtx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("cart listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	stopSweeper()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("cart stopped")
}
