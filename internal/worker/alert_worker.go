package worker

// alert_worker.go
// Processes low-stock alert jobs from QueueLowStock.
// Sends a notification email to the configured recipient through the mailer
// circuit breaker; exhausted retries land in the DLQ.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/infra"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// AlertWorker processes low-stock alert jobs from QueueLowStock.
type AlertWorker struct {
	mailer    *infra.Mailer
	cb        *infra.CircuitBreaker
	rdb       *redis.Client
	recipient string
	storeName string
}

// NewAlertWorker wires the SMTP mailer behind its circuit breaker.
func NewAlertWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, rdb *redis.Client, recipient, storeName string) *AlertWorker {
	return &AlertWorker{mailer: mailer, cb: cb, rdb: rdb, recipient: recipient, storeName: storeName}
}

// Process emails one low-stock alert. Retries with backoff; when the mailer
// keeps failing (or the breaker is open) the job moves to the DLQ.
func (w *AlertWorker) Process(ctx context.Context, raw json.RawMessage) {
	var alert service.LowStockAlert
	if err := json.Unmarshal(raw, &alert); err != nil {
		log.Error().Err(err).Msg("alert_worker: invalid payload")
		return
	}
	if w.recipient == "" {
		log.Warn().Msg("alert_worker: no alert recipient configured — skipping")
		return
	}

	subject := fmt.Sprintf("%s — low stock: %s", w.storeName, alert.ProductName)
	body := fmt.Sprintf(
		"Product %s (%s) is down to %d units (minimum level: %d).\nRestock soon to avoid lost sales.",
		alert.ProductName, alert.ProductID, alert.Quantity, alert.MinimumLevel,
	)

	err := withRetry(ctx, 3, func(attempt int) error {
		sendErr := w.cb.Execute(func() error {
			return w.mailer.Send(w.recipient, subject, body, "")
		})
		if sendErr != nil {
			log.Warn().
				Err(sendErr).
				Int("attempt", attempt+1).
				Str("product", alert.ProductName).
				Msg("alert_worker: send attempt failed, retrying")
		}
		return sendErr
	})
	if err != nil {
		SendToDLQ(ctx, w.rdb, QueueLowStock, "lowstock", raw, err.Error(), 3)
		return
	}

	log.Info().
		Str("product", alert.ProductName).
		Int("quantity", alert.Quantity).
		Msg("alert_worker: low-stock alert sent")
}
