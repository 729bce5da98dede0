package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipt: renders the sale's PDF receipt
// and mails it to the customer. Failures bubble up to the pool for retry.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/novus0x/nexolocal/internal/infra"
	"github.com/novus0x/nexolocal/internal/repository"
)

type ReceiptWorker struct {
	sales     repository.SaleRepository
	companies repository.CompanyRepository
	mailer    *infra.Mailer
	pdfPath   string
}

func NewReceiptWorker(sales repository.SaleRepository, companies repository.CompanyRepository, mailer *infra.Mailer, pdfPath string) *ReceiptWorker {
	return &ReceiptWorker{sales: sales, companies: companies, mailer: mailer, pdfPath: pdfPath}
}

// Process renders and sends one receipt.
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return nil // malformed payloads are not retryable
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("receipt_worker: empty to_email, skipping")
		return nil
	}

	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: invalid sale_id")
		return nil
	}

	sale, err := w.sales.FindByIDAny(ctx, saleID)
	if err != nil {
		return fmt.Errorf("receipt_worker: load sale: %w", err)
	}

	companyName := "NexoLocal"
	if company, err := w.companies.FindByID(ctx, sale.CompanyID); err == nil {
		companyName = company.Name
	}

	pdfFile, err := infra.GenerateReceiptPDF(sale, companyName, w.pdfPath)
	if err != nil {
		return fmt.Errorf("receipt_worker: generate pdf: %w", err)
	}

	subject := "Your receipt " + sale.InvoiceNumber
	body := fmt.Sprintf("Thank you for your purchase at %s.\nInvoice %s, total $%s.",
		companyName, sale.InvoiceNumber, sale.Total.StringFixed(2))
	if err := w.mailer.SendReceipt(payload.ToEmail, subject, body, pdfFile); err != nil {
		return fmt.Errorf("receipt_worker: send email: %w", err)
	}

	log.Info().Str("to", payload.ToEmail).Str("invoice", sale.InvoiceNumber).Msg("receipt_worker: receipt sent")
	return nil
}
