package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nazeru/pizza-billing-go/internal/billing/server"
	"github.com/nazeru/pizza-billing-go/internal/billing/store"
	"github.com/nazeru/pizza-billing-go/pkg/contracts"
	"github.com/nazeru/pizza-billing-go/pkg/kafka"
	"github.com/nazeru/pizza-billing-go/pkg/logging"
	"github.com/nazeru/pizza-billing-go/pkg/metrics"
	"github.com/nazeru/pizza-billing-go/pkg/outbox"
)

type cfg struct {
	Port          string
	DatabaseURL   string
	KafkaBrokers  string
	KafkaTopic    string
	MenuFile      string
	RelayInterval time.Duration
}

func readCfg() cfg {
	relayMS := getenv("OUTBOX_RELAY_INTERVAL_MS", "1000")
	interval, err := time.ParseDuration(relayMS + "ms")
	if err != nil {
		interval = time.Second
	}
	return cfg{
		Port:          getenv("PORT", "8080"),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		KafkaBrokers:  getenv("KAFKA_BROKERS", ""),
		KafkaTopic:    getenv("KAFKA_TOPIC", kafka.DefaultTopic),
		MenuFile:      getenv("MENU_FILE", ""),
		RelayInterval: interval,
	}
}

func main() {
	cfg := readCfg()
	logger := logging.New("billing_service")
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kafkaClient := kafka.NewClient(cfg.KafkaBrokers)

	st, pg, err := buildStore(ctx, cfg, kafkaClient, logger)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}
	defer st.Close()

	menu, err := store.LoadMenu(cfg.MenuFile)
	if err != nil {
		logger.Fatal("menu load failed", zap.Error(err))
	}
	seeded, err := store.Seed(ctx, st, menu)
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	if seeded > 0 {
		logger.Info("seeded menu", zap.Int("items", seeded))
	}

	if pg != nil && kafkaClient.Enabled() {
		writer := kafkaClient.NewWriter(cfg.KafkaTopic)
		defer writer.Close()
		go outbox.Relay(ctx, pg.Pool(), cfg.RelayInterval, func(ctx context.Context, rec outbox.Record) error {
			return kafka.PublishJSON(ctx, writer, rec.Key, rec.Payload)
		}, logger)
	}

	srvMetrics := metrics.NewServerMetrics("billing_service")
	api := server.New(st, srvMetrics, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("billing-service listening", zap.String("port", cfg.Port), zap.Bool("postgres", pg != nil), zap.Bool("kafka", kafkaClient.Enabled()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server error", zap.Error(err))
	}
}

// buildStore picks Postgres when DATABASE_URL is set, otherwise the memory
// store. Without Postgres there is no outbox, so the memory store publishes
// events straight to kafka when brokers are configured.
func buildStore(ctx context.Context, cfg cfg, kafkaClient *kafka.Client, logger *zap.Logger) (store.Store, *store.Postgres, error) {
	if cfg.DatabaseURL != "" {
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pg, err := store.NewPostgres(initCtx, cfg.DatabaseURL, cfg.KafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg, nil
	}

	logger.Warn("DATABASE_URL not set, using in-memory store")
	mem := store.NewMemory()
	if kafkaClient.Enabled() {
		writer := kafkaClient.NewWriter(cfg.KafkaTopic)
		mem.WithEvents(func(eventType string, payload map[string]any) {
			ev := contracts.Event{
				EventID:   uuid.NewString(),
				CreatedAt: time.Now().UTC(),
				Type:      eventType,
				Payload:   payload,
			}
			pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := kafka.PublishEvent(pubCtx, writer, ev); err != nil {
				logger.Warn("event publish failed", zap.String("type", eventType), zap.Error(err))
			}
		})
	}
	return mem, nil, nil
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
