package app

import (
	"time"

	"smartsewing/internal/infrastructure/numerator"
	"smartsewing/internal/infrastructure/storage/postgres"
	"smartsewing/internal/infrastructure/storage/postgres/catalog_repo"
	"smartsewing/internal/infrastructure/storage/postgres/document_repo"
	"smartsewing/internal/infrastructure/storage/postgres/register_repo"
)

// PostgresBackend builds a Backend over one database.
// Sequences use the pool directly so numbers survive a rolled-back transaction.
func PostgresBackend(txm *postgres.TxManager, idempotencyTTL time.Duration) Backend {
	return Backend{
		TxManager:   txm,
		Sequences:   numerator.NewPostgresSequences(txm.Pool()),
		Outbox:      postgres.NewOutboxPublisher(txm),
		Idempotency: postgres.NewIdempotencyStore(txm, idempotencyTTL),

		Products:   catalog_repo.NewProductRepo(txm),
		Locations:  catalog_repo.NewLocationRepo(txm),
		Accounts:   catalog_repo.NewAccountRepo(txm),
		Categories: catalog_repo.NewCategoryRepo(txm),
		Entries:    register_repo.NewEntryRepo(txm),
		Stock:      register_repo.NewStockRepo(txm),

		SalesInvoices:    document_repo.NewSalesInvoiceRepo(txm),
		RentalContracts:  document_repo.NewRentalContractRepo(txm),
		RentalBills:      document_repo.NewRentalBillRepo(txm),
		StockAdjustments: document_repo.NewStockAdjustmentRepo(txm),
		StockTransfers:   document_repo.NewStockTransferRepo(txm),
		WriteOffs:        document_repo.NewWriteOffRepo(txm),
		PurchaseBills:    document_repo.NewPurchaseBillRepo(txm),
	}
}
