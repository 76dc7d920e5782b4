package stock

import (
	"context"
	"fmt"
	"time"

	"smartsewing/internal/core/apperror"
	appctx "smartsewing/internal/core/context"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/tx"
	"smartsewing/internal/domain"
	"smartsewing/pkg/logger"
)

// Service is the Stock Engine. Every mutating method runs inside
// RunInTransaction, so it joins the caller's atomic unit when there is one.
type Service struct {
	repo      Repository
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a new stock engine.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ApplyDelta moves a product's quantity by ch.Delta and appends one movement.
//
// IN requires a positive delta, OUT a negative one; ADJUST accepts either sign.
// A zero delta is rejected with NO_CHANGE and a result below zero with
// NEGATIVE_STOCK; in both cases nothing is written.
func (s *Service) ApplyDelta(ctx context.Context, ch Change) (*Result, error) {
	if err := validateChange(ch); err != nil {
		return nil, err
	}

	var res *Result
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		product, err := s.repo.GetProductForUpdate(ctx, ch.ProductID)
		if err != nil {
			return err
		}

		before := product.Quantity
		after := before + ch.Delta
		if ch.Delta > 0 && after < before {
			return apperror.NewValidation("quantity out of range").
				WithDetail("product_id", product.ID.String()).
				WithDetail("before", before).
				WithDetail("delta", ch.Delta)
		}
		if after < 0 {
			return apperror.NewNegativeStock(product.ID.String(), product.Name, before, ch.Delta)
		}

		if err := s.repo.SetProductQuantity(ctx, product.ID, after); err != nil {
			return fmt.Errorf("set quantity: %w", err)
		}

		locationID, err := s.syncLocations(ctx, product.ID, ch.Delta, ch.LocationID)
		if err != nil {
			return err
		}

		m := &Movement{
			ID:         id.New(),
			ProductID:  product.ID,
			LocationID: locationID,
			Kind:       ch.Kind,
			Quantity:   storedQuantity(ch.Kind, ch.Delta),
			Before:     before,
			After:      after,
			Reference:  ch.Reference,
			Note:       ch.Note,
			CreatedBy:  appctx.GetUserID(ctx),
			CreatedAt:  s.now(),
		}
		if err := s.repo.AppendMovement(ctx, m); err != nil {
			return fmt.Errorf("append movement: %w", err)
		}

		res = &Result{Movement: m, Before: before, After: after}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "stock changed",
		"product_id", ch.ProductID,
		"kind", ch.Kind,
		"before", res.Before,
		"after", res.After,
		"reference", ch.Reference.String(),
	)
	return res, nil
}

func validateChange(ch Change) error {
	if id.IsNil(ch.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if !ch.Kind.Valid() {
		return apperror.NewValidation("invalid movement kind").WithDetail("value", string(ch.Kind))
	}
	if err := ch.Reference.Validate(); err != nil {
		return err
	}
	if ch.Delta == 0 {
		return apperror.NewNoChange("stock change of zero is not recorded").
			WithDetail("product_id", ch.ProductID.String())
	}
	switch {
	case ch.Kind == KindIn && ch.Delta < 0:
		return apperror.NewValidation("IN movement requires a positive quantity").
			WithDetail("delta", ch.Delta)
	case ch.Kind == KindOut && ch.Delta > 0:
		return apperror.NewValidation("OUT movement requires a negative delta").
			WithDetail("delta", ch.Delta)
	}
	return nil
}

// SetAbsolute sets a product's quantity to req.Target with an ADJUST movement.
// Setting the current value is rejected with NO_CHANGE.
func (s *Service) SetAbsolute(ctx context.Context, req SetRequest) (*Result, error) {
	if req.Target < 0 {
		return nil, apperror.NewValidation("target quantity cannot be negative").
			WithDetail("field", "target").
			WithDetail("value", req.Target)
	}

	var res *Result
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		product, err := s.repo.GetProductForUpdate(ctx, req.ProductID)
		if err != nil {
			return err
		}
		delta := req.Target - product.Quantity
		if delta == 0 {
			return apperror.NewNoChange(fmt.Sprintf("stock of %q is already %d", product.Name, req.Target)).
				WithDetail("product_id", product.ID.String())
		}
		res, err = s.ApplyDelta(ctx, Change{
			ProductID:  req.ProductID,
			Delta:      delta,
			Kind:       KindAdjust,
			Reference:  req.Reference,
			Note:       req.Note,
			LocationID: req.LocationID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ValidateSufficiency fails with INSUFFICIENT_STOCK when required exceeds on-hand.
func (s *Service) ValidateSufficiency(ctx context.Context, productID id.ID, required int64) error {
	return s.ValidateSufficiencyAll(ctx, []Requirement{{ProductID: productID, Quantity: required}})
}

// ValidateSufficiencyAll checks every requirement before the caller mutates anything.
// Requirements for the same product are summed first. Product rows are locked,
// so a concurrent issuance against the same product waits or fails.
func (s *Service) ValidateSufficiencyAll(ctx context.Context, reqs []Requirement) error {
	order := make([]id.ID, 0, len(reqs))
	totals := make(map[id.ID]int64, len(reqs))
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("product_id", r.ProductID.String()).
				WithDetail("quantity", r.Quantity)
		}
		if _, seen := totals[r.ProductID]; !seen {
			order = append(order, r.ProductID)
		}
		totals[r.ProductID] += r.Quantity
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, productID := range order {
			product, err := s.repo.GetProductForUpdate(ctx, productID)
			if err != nil {
				return err
			}
			if totals[productID] > product.Quantity {
				return apperror.NewInsufficientStock(product.ID.String(), product.Name, totals[productID], product.Quantity)
			}
		}
		return nil
	})
}

// Transfer moves quantity between two locations. The product's aggregate
// quantity and the movement ledger are untouched.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) error {
	if req.Quantity <= 0 {
		return apperror.NewValidation("transfer quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", req.Quantity)
	}
	if req.FromLocationID == req.ToLocationID {
		return apperror.NewValidation("source and destination locations must differ").
			WithDetail("field", "toLocationId")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, locID := range []id.ID{req.FromLocationID, req.ToLocationID} {
			ok, err := s.repo.LocationExists(ctx, locID)
			if err != nil {
				return fmt.Errorf("check location: %w", err)
			}
			if !ok {
				return apperror.NewNotFound("location", locID.String())
			}
		}

		product, err := s.repo.GetProductForUpdate(ctx, req.ProductID)
		if err != nil {
			return err
		}
		rows, err := s.repo.GetLocationStockForUpdate(ctx, req.ProductID)
		if err != nil {
			return fmt.Errorf("load location stock: %w", err)
		}

		var fromQty, toQty int64
		for _, r := range rows {
			switch r.LocationID {
			case req.FromLocationID:
				fromQty = r.Quantity
			case req.ToLocationID:
				toQty = r.Quantity
			}
		}
		if fromQty < req.Quantity {
			return apperror.NewInsufficientStock(product.ID.String(), product.Name, req.Quantity, fromQty).
				WithDetail("location_id", req.FromLocationID.String())
		}

		if err := s.repo.UpsertLocationStock(ctx, req.FromLocationID, req.ProductID, fromQty-req.Quantity); err != nil {
			return fmt.Errorf("update source location: %w", err)
		}
		if err := s.repo.UpsertLocationStock(ctx, req.ToLocationID, req.ProductID, toQty+req.Quantity); err != nil {
			return fmt.Errorf("update destination location: %w", err)
		}
		return nil
	})
}

// syncLocations keeps the location mirror summing to the product quantity.
//
// Increments land on target (or the default location). Decrements drain target
// first, then the remaining locations in code order. Without any location the
// mirror is not maintained; a decrement the rows cannot cover fails. Returns
// the location credited or debited first, for the movement record.
func (s *Service) syncLocations(ctx context.Context, productID id.ID, delta int64, target *id.ID) (*id.ID, error) {
	if delta > 0 {
		locID, err := s.resolveTarget(ctx, target)
		if err != nil || locID == nil {
			return nil, err
		}
		rows, err := s.repo.GetLocationStockForUpdate(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("load location stock: %w", err)
		}
		current := int64(0)
		for _, r := range rows {
			if r.LocationID == *locID {
				current = r.Quantity
			}
		}
		if err := s.repo.UpsertLocationStock(ctx, *locID, productID, current+delta); err != nil {
			return nil, fmt.Errorf("update location stock: %w", err)
		}
		return locID, nil
	}

	rows, err := s.repo.GetLocationStockForUpdate(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load location stock: %w", err)
	}
	if target != nil {
		for i, r := range rows {
			if r.LocationID == *target && i > 0 {
				rows = append([]*LocationStock{r}, append(rows[:i:i], rows[i+1:]...)...)
				break
			}
		}
	}

	var first *id.ID
	remaining := -delta
	for _, r := range rows {
		if remaining == 0 {
			break
		}
		if r.Quantity <= 0 {
			continue
		}
		take := min(r.Quantity, remaining)
		if err := s.repo.UpsertLocationStock(ctx, r.LocationID, productID, r.Quantity-take); err != nil {
			return nil, fmt.Errorf("update location stock: %w", err)
		}
		if first == nil {
			locID := r.LocationID
			first = &locID
		}
		remaining -= take
	}
	if remaining > 0 {
		if len(rows) == 0 {
			def, err := s.resolveTarget(ctx, nil)
			if err != nil {
				return nil, err
			}
			if def == nil {
				return nil, nil
			}
		}
		logger.Error(ctx, "location stock out of sync", "product_id", productID, "short", remaining)
		return nil, apperror.NewInternal(fmt.Errorf("location stock of product %s is short by %d", productID, remaining))
	}
	return first, nil
}

// BackfillLocation credits locationID with the part of every product's
// quantity that no location row accounts for, e.g. stock received before any
// location existed. Returns the number of products touched.
func (s *Service) BackfillLocation(ctx context.Context, locationID id.ID) (int, error) {
	touched := 0
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		touched = 0
		ids, err := s.repo.ListUnmirroredProducts(ctx)
		if err != nil {
			return fmt.Errorf("list unmirrored products: %w", err)
		}
		for _, productID := range ids {
			product, err := s.repo.GetProductForUpdate(ctx, productID)
			if err != nil {
				return err
			}
			rows, err := s.repo.GetLocationStockForUpdate(ctx, productID)
			if err != nil {
				return fmt.Errorf("load location stock: %w", err)
			}
			var mirrored, current int64
			for _, r := range rows {
				mirrored += r.Quantity
				if r.LocationID == locationID {
					current = r.Quantity
				}
			}
			gap := product.Quantity - mirrored
			if gap <= 0 {
				if gap < 0 {
					logger.Warn(ctx, "location stock exceeds product quantity", "product_id", productID, "excess", -gap)
				}
				continue
			}
			if err := s.repo.UpsertLocationStock(ctx, locationID, productID, current+gap); err != nil {
				return fmt.Errorf("update location stock: %w", err)
			}
			touched++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if touched > 0 {
		logger.Info(ctx, "location stock backfilled", "location_id", locationID, "products", touched)
	}
	return touched, nil
}

func (s *Service) resolveTarget(ctx context.Context, target *id.ID) (*id.ID, error) {
	if target != nil {
		ok, err := s.repo.LocationExists(ctx, *target)
		if err != nil {
			return nil, fmt.Errorf("check location: %w", err)
		}
		if !ok {
			return nil, apperror.NewNotFound("location", target.String())
		}
		return target, nil
	}
	locID, err := s.repo.DefaultLocationID(ctx)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve default location: %w", err)
	}
	return &locID, nil
}

// GetProductStock returns the current on-hand quantity of a product.
func (s *Service) GetProductStock(ctx context.Context, productID id.ID) (*ProductStock, error) {
	var out *ProductStock
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetProductForUpdate(ctx, productID)
		out = p
		return err
	})
	return out, err
}

// ListMovements returns movement history, newest first.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) (domain.ListResult[*Movement], error) {
	filter.Limit, filter.Offset = domain.NormalizePage(filter.Limit, filter.Offset)
	return s.repo.ListMovements(ctx, filter)
}

// ListLocationStock returns the per-location mirror.
func (s *Service) ListLocationStock(ctx context.Context, filter LocationStockFilter) ([]*LocationStock, error) {
	return s.repo.ListLocationStock(ctx, filter)
}

// ValidateLocationSufficiency checks that one location holds every requirement
// before a multi-line transfer starts moving quantity.
func (s *Service) ValidateLocationSufficiency(ctx context.Context, locationID id.ID, reqs []Requirement) error {
	order := make([]id.ID, 0, len(reqs))
	totals := make(map[id.ID]int64, len(reqs))
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("product_id", r.ProductID.String()).
				WithDetail("quantity", r.Quantity)
		}
		if _, seen := totals[r.ProductID]; !seen {
			order = append(order, r.ProductID)
		}
		totals[r.ProductID] += r.Quantity
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.repo.LocationExists(ctx, locationID)
		if err != nil {
			return fmt.Errorf("check location: %w", err)
		}
		if !ok {
			return apperror.NewNotFound("location", locationID.String())
		}
		for _, productID := range order {
			product, err := s.repo.GetProductForUpdate(ctx, productID)
			if err != nil {
				return err
			}
			rows, err := s.repo.GetLocationStockForUpdate(ctx, productID)
			if err != nil {
				return fmt.Errorf("load location stock: %w", err)
			}
			var available int64
			for _, r := range rows {
				if r.LocationID == locationID {
					available = r.Quantity
				}
			}
			if totals[productID] > available {
				return apperror.NewInsufficientStock(product.ID.String(), product.Name, totals[productID], available).
					WithDetail("location_id", locationID.String())
			}
		}
		return nil
	})
}
