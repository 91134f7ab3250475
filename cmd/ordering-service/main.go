package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bellafarina/ordering-service/internal/cart"
	"github.com/bellafarina/ordering-service/internal/catalog"
	"github.com/bellafarina/ordering-service/internal/config"
	"github.com/bellafarina/ordering-service/internal/db"
	"github.com/bellafarina/ordering-service/internal/events"
	httpserver "github.com/bellafarina/ordering-service/internal/http"
	"github.com/bellafarina/ordering-service/internal/order"
	"github.com/bellafarina/ordering-service/internal/payment"
	"github.com/bellafarina/ordering-service/internal/pos"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[ordering-service] ", log.LstdFlags|log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			logger.Fatalf("run migrations: %v", err)
		}
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	cartRepo := cart.NewRepository(pool)
	orderRepo := order.NewRepository(pool)

	// --- external clients ---
	p24Base := payment.ProductionBaseURL
	if cfg.P24Sandbox {
		p24Base = payment.SandboxBaseURL
	}
	gateway := payment.NewClient(payment.ClientConfig{
		MerchantID: cfg.P24MerchantID,
		POSID:      cfg.P24POSID,
		CRCKey:     cfg.P24CRCKey,
		APIKey:     cfg.P24APIKey,
		BaseURL:    p24Base,
		ReturnURL:  cfg.SiteURL + "/zamowienie/potwierdzenie",
		StatusURL:  cfg.SiteURL + "/api/payments/status",
		Timeout:    cfg.P24Timeout,
	})

	posClient := pos.NewClient(pos.ClientConfig{
		BaseURL: cfg.POSBaseURL,
		APIKey:  cfg.POSAPIKey,
		StoreID: cfg.POSStoreID,
		Timeout: cfg.POSTimeout,
	})

	// --- catalog ---
	menu := catalog.New(catalog.SeedMenu())
	if cfg.POSPull {
		pullCtx, cancel := context.WithTimeout(ctx, cfg.POSTimeout)
		products, err := posClient.Products(pullCtx)
		cancel()
		if err != nil {
			logger.Printf("catalog pull failed, using seed menu: %v", err)
		} else {
			menu.Replace(products)
			logger.Printf("catalog pulled from pos: %d products", len(products))
		}
	}

	// --- AMQP ---
	rabbitConn, err := events.DialRabbit(cfg.RabbitURL)
	if err != nil {
		logger.Fatalf("dial rabbit: %v", err)
	}
	defer rabbitConn.Close()

	publisher, err := events.NewPublisher(rabbitConn)
	if err != nil {
		logger.Fatalf("create publisher: %v", err)
	}

	if err := events.StartOrderPaidConsumer(ctx, rabbitConn, orderRepo, posClient, logger); err != nil {
		logger.Fatalf("start consumer: %v", err)
	}

	reconciler := payment.NewReconciler(orderRepo, gateway, publisher, cfg.VerifyMaxAttempts, logger)

	// --- HTTP ---
	router := httpserver.NewRouter(httpserver.Deps{
		Logger:      logger,
		Catalog:     menu,
		Hours:       catalog.DefaultOpeningHours(),
		Carts:       cartRepo,
		Orders:      orderRepo,
		Gateway:     gateway,
		Reconciler:  reconciler,
		Publisher:   publisher,
		DeliveryFee: cfg.DeliveryFee,
		Currency:    cfg.Currency,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("ordering-service listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errCh:
		logger.Fatalf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown error: %v", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Printf("publisher close error: %v", err)
	}
}
