package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nazeru/pizza-billing-go/pkg/contracts"
	"github.com/nazeru/pizza-billing-go/pkg/kafka"
	"github.com/nazeru/pizza-billing-go/pkg/logging"
	"github.com/nazeru/pizza-billing-go/pkg/metrics"
)

type cfg struct {
	Port         string
	KafkaBrokers string
	Topic        string
	GroupID      string
}

func readCfg() (cfg, error) {
	brokers := getenv("KAFKA_BROKERS", "")
	if brokers == "" {
		return cfg{}, errors.New("KAFKA_BROKERS is required")
	}
	return cfg{
		Port:         getenv("PORT", "8081"),
		KafkaBrokers: brokers,
		Topic:        getenv("KAFKA_TOPIC", kafka.DefaultTopic),
		GroupID:      getenv("KAFKA_GROUP_ID", "receipt-service"),
	}, nil
}

// receipt is one entry of the feed the POS floor display polls.
type receipt struct {
	EventID    string    `json:"event_id"`
	InvoiceID  string    `json:"invoice_id"`
	GrandTotal string    `json:"grand_total"`
	Lines      int       `json:"lines"`
	ReceivedAt time.Time `json:"received_at"`
}

// feed keeps the most recent receipts in memory, newest first.
type feed struct {
	mu       sync.Mutex
	receipts []receipt
	max      int
}

func (f *feed) add(r receipt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts = append([]receipt{r}, f.receipts...)
	if len(f.receipts) > f.max {
		f.receipts = f.receipts[:f.max]
	}
}

func (f *feed) list() []receipt {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]receipt, len(f.receipts))
	copy(out, f.receipts)
	return out
}

func main() {
	cfg, err := readCfg()
	logger := logging.New("receipt_service")
	defer func() { _ = logger.Sync() }()
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvMetrics := metrics.NewServerMetrics("receipt_service")
	receipts := &feed{max: 200}

	kafkaClient := kafka.NewClient(cfg.KafkaBrokers)
	go consumeEvents(ctx, kafkaClient, cfg, receipts, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	mux.HandleFunc("/receipts", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		writeJSON(w, http.StatusOK, receipts.list())
		srvMetrics.Requests.WithLabelValues("receipts", "200").Inc()
		srvMetrics.LatencyMS.WithLabelValues("receipts").Observe(float64(time.Since(start).Milliseconds()))
	})
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("receipt-service listening", zap.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server error", zap.Error(err))
	}
}

func consumeEvents(ctx context.Context, client *kafka.Client, cfg cfg, receipts *feed, logger *zap.Logger) {
	reader := client.NewReader(cfg.Topic, cfg.GroupID)
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("kafka read error", zap.Error(err))
			time.Sleep(2 * time.Second)
			continue
		}

		var ev contracts.Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			logger.Warn("bad event payload", zap.Error(err))
			continue
		}
		if ev.Type != contracts.EventInvoiceCreated {
			continue
		}

		rec := receipt{
			EventID:    ev.EventID,
			InvoiceID:  ev.InvoiceID,
			ReceivedAt: time.Now().UTC(),
		}
		if gt, ok := ev.Payload["grand_total"].(string); ok {
			rec.GrandTotal = gt
		}
		if n, ok := ev.Payload["lines"].(float64); ok {
			rec.Lines = int(n)
		}
		receipts.add(rec)
		logger.Info("receipt recorded", zap.String("invoice_id", ev.InvoiceID), zap.String("grand_total", rec.GrandTotal))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
