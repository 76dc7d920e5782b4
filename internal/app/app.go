// Package app wires repositories, engines and document services into one container.
package app

import (
	"context"

	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/tx"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/audit"
	"smartsewing/internal/domain/catalogs/location"
	"smartsewing/internal/domain/catalogs/product"
	"smartsewing/internal/domain/documents"
	"smartsewing/internal/domain/documents/purchase_bill"
	"smartsewing/internal/domain/documents/rental_bill"
	"smartsewing/internal/domain/documents/rental_contract"
	"smartsewing/internal/domain/documents/sales_invoice"
	"smartsewing/internal/domain/documents/stock_adjustment"
	"smartsewing/internal/domain/documents/stock_transfer"
	"smartsewing/internal/domain/documents/write_off"
	"smartsewing/internal/domain/events"
	"smartsewing/internal/domain/finance"
	"smartsewing/internal/domain/registers/stock"
	"smartsewing/internal/infrastructure/idempotency"
	"smartsewing/internal/infrastructure/numerator"
	"smartsewing/internal/infrastructure/storage/memory"
)

// Backend is everything a storage driver provides.
type Backend struct {
	TxManager   tx.Manager
	Sequences   numerator.SequenceStore
	Outbox      events.Publisher
	Idempotency idempotency.Store

	Products   product.Repository
	Locations  location.Repository
	Accounts   finance.AccountRepository
	Categories finance.CategoryRepository
	Entries    finance.EntryRepository
	Stock      stock.Repository

	SalesInvoices    sales_invoice.Repository
	RentalContracts  rental_contract.Repository
	RentalBills      rental_bill.Repository
	StockAdjustments stock_adjustment.Repository
	StockTransfers   stock_transfer.Repository
	WriteOffs        write_off.Repository
	PurchaseBills    purchase_bill.Repository
}

// MemoryBackend exposes an in-process store as a Backend.
func MemoryBackend(s *memory.Store) Backend {
	return Backend{
		TxManager:        s,
		Sequences:        s.Sequences,
		Outbox:           s.Outbox,
		Idempotency:      s.Idempotency,
		Products:         s.Products,
		Locations:        s.Locations,
		Accounts:         s.Accounts,
		Categories:       s.Categories,
		Entries:          s.Entries,
		Stock:            s.Stock,
		SalesInvoices:    s.SalesInvoices,
		RentalContracts:  s.RentalContracts,
		RentalBills:      s.RentalBills,
		StockAdjustments: s.StockAdjustments,
		StockTransfers:   s.StockTransfers,
		WriteOffs:        s.WriteOffs,
		PurchaseBills:    s.PurchaseBills,
	}
}

// Container holds the services the transports call.
type Container struct {
	TxManager   tx.Manager
	Numerator   *numerator.Service
	Idempotency idempotency.Store
	Resolver    *documents.ReferenceResolver

	Stock     *stock.Service
	Ledger    *finance.Service
	Products  *product.Service
	Locations *location.Service

	SalesInvoices    *sales_invoice.Service
	RentalContracts  *rental_contract.Service
	RentalBills      *rental_bill.Service
	StockAdjustments *stock_adjustment.Service
	StockTransfers   *stock_transfer.Service
	WriteOffs        *write_off.Service
	PurchaseBills    *purchase_bill.Service
}

// New builds every service over b.
func New(b Backend) *Container {
	num := numerator.New(b.Sequences)
	stockEngine := stock.NewService(b.Stock, b.TxManager)
	ledger := finance.NewService(b.Accounts, b.Categories, b.Entries, b.TxManager, num)
	products := product.NewService(b.Products, b.TxManager, num, stockEngine)

	deps := documents.Deps{
		TxManager: b.TxManager,
		Numerator: num,
		Products:  products,
		Stock:     stockEngine,
		Ledger:    ledger,
		Events:    b.Outbox,
	}
	contracts := rental_contract.NewService(b.RentalContracts, deps)

	c := &Container{
		TxManager:   b.TxManager,
		Numerator:   num,
		Idempotency: b.Idempotency,
		Resolver:    documents.NewReferenceResolver(),

		Stock:     stockEngine,
		Ledger:    ledger,
		Products:  products,
		Locations: location.NewService(b.Locations, b.TxManager, num, stockEngine),

		SalesInvoices:    sales_invoice.NewService(b.SalesInvoices, deps),
		RentalContracts:  contracts,
		RentalBills:      rental_bill.NewService(b.RentalBills, contracts, deps),
		StockAdjustments: stock_adjustment.NewService(b.StockAdjustments, deps),
		StockTransfers:   stock_transfer.NewService(b.StockTransfers, deps),
		WriteOffs:        write_off.NewService(b.WriteOffs, deps),
		PurchaseBills:    purchase_bill.NewService(b.PurchaseBills, deps),
	}

	enrich(c.SalesInvoices.Hooks())
	enrich(c.RentalContracts.Hooks())
	enrich(c.RentalBills.Hooks())
	enrich(c.StockAdjustments.Hooks())
	enrich(c.StockTransfers.Hooks())
	enrich(c.WriteOffs.Hooks())
	enrich(c.PurchaseBills.Hooks())

	c.registerLookups()
	return c
}

// enrich stamps created_by/updated_by from the authenticated user.
func enrich[T any](h *domain.HookRegistry[T]) {
	h.OnBeforeCreate(func(ctx context.Context, doc T) error { return audit.EnrichCreatedBy(ctx, doc) })
	h.OnBeforeUpdate(func(ctx context.Context, doc T) error { return audit.EnrichUpdatedBy(ctx, doc) })
}

func (c *Container) registerLookups() {
	c.Resolver.Register(entity.KindSalesInvoice, func(ctx context.Context, docID id.ID) (*documents.ReferenceLabel, error) {
		doc, err := c.SalesInvoices.GetByID(ctx, docID)
		if err != nil {
			return nil, err
		}
		return &documents.ReferenceLabel{Number: doc.Number, Status: string(doc.Status)}, nil
	})
	contract := func(ctx context.Context, docID id.ID) (*documents.ReferenceLabel, error) {
		doc, err := c.RentalContracts.GetByID(ctx, docID)
		if err != nil {
			return nil, err
		}
		return &documents.ReferenceLabel{Number: doc.Number, Status: string(doc.Status)}, nil
	}
	c.Resolver.Register(entity.KindRentalContract, contract)
	c.Resolver.Register(entity.KindRentalContractReturn, contract)
	c.Resolver.Register(entity.KindRentalBill, func(ctx context.Context, docID id.ID) (*documents.ReferenceLabel, error) {
		doc, err := c.RentalBills.GetByID(ctx, docID)
		if err != nil {
			return nil, err
		}
		return &documents.ReferenceLabel{Number: doc.Number, Status: string(doc.Status)}, nil
	})
	c.Resolver.Register(entity.KindAdjustment, func(ctx context.Context, docID id.ID) (*documents.ReferenceLabel, error) {
		doc, err := c.StockAdjustments.GetByID(ctx, docID)
		if err != nil {
			return nil, err
		}
		return &documents.ReferenceLabel{Number: doc.Number}, nil
	})
	c.Resolver.Register(entity.KindTransfer, func(ctx context.Context, docID id.ID) (*documents.ReferenceLabel, error) {
		doc, err := c.StockTransfers.GetByID(ctx, docID)
		if err != nil {
			return nil, err
		}
		return &documents.ReferenceLabel{Number: doc.Number}, nil
	})
	c.Resolver.Register(entity.KindWriteOff, func(ctx context.Context, docID id.ID) (*documents.ReferenceLabel, error) {
		doc, err := c.WriteOffs.GetByID(ctx, docID)
		if err != nil {
			return nil, err
		}
		return &documents.ReferenceLabel{Number: doc.Number, Status: string(doc.Status)}, nil
	})
	c.Resolver.Register(entity.KindPurchaseBill, func(ctx context.Context, docID id.ID) (*documents.ReferenceLabel, error) {
		doc, err := c.PurchaseBills.GetByID(ctx, docID)
		if err != nil {
			return nil, err
		}
		return &documents.ReferenceLabel{Number: doc.Number, Status: string(doc.Status)}, nil
	})
}
