package worker

// receipt_worker.go
// Processes receipt rendering jobs from QueueReceipt.
// Loads the finalized sale and writes the PDF ticket to local storage.

import (
	"context"
	"encoding/json"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/infra"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ReceiptWorker renders PDF receipts for finalized sales.
type ReceiptWorker struct {
	sales       repository.SaleRepository
	rdb         *redis.Client
	storagePath string
	storeName   string
}

func NewReceiptWorker(sales repository.SaleRepository, rdb *redis.Client, storagePath, storeName string) *ReceiptWorker {
	return &ReceiptWorker{sales: sales, rdb: rdb, storagePath: storagePath, storeName: storeName}
}

// Process renders one receipt:
//  1. Parse ReceiptJobPayload from the job envelope
//  2. Fetch the sale (with items and products) from DB
//  3. Write the PDF ticket to storagePath
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return
	}

	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: invalid sale_id")
		return
	}

	sale, err := w.sales.FindByID(ctx, saleID)
	if err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: sale not found")
		return
	}

	pdfPath, err := infra.GenerateReceiptPDF(sale, w.storagePath, w.storeName)
	if err != nil {
		log.Warn().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: PDF generation failed")
		SendToDLQ(ctx, w.rdb, QueueReceipt, "receipt", raw, err.Error(), 1)
		return
	}

	log.Info().
		Str("pdf", pdfPath).
		Int("ticket", sale.TicketNumber).
		Msg("receipt_worker: receipt generated")
}
