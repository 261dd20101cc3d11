package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/freshstock/freshstock-backend/internal/stock/repository"
	"github.com/freshstock/freshstock-backend/pkg/errors"
)

// CollectRequest asks for a quantity of one product to be depleted from a
// department's stock in expiry order
type CollectRequest struct {
	HotelID      string  `json:"hotel_id" validate:"required,uuid"`
	DepartmentID string  `json:"department_id" validate:"required,uuid"`
	ProductID    string  `json:"product_id" validate:"required,uuid"`
	Quantity     int     `json:"quantity" validate:"required,gt=0"`
	Reason       string  `json:"reason" validate:"required"`
	Comment      *string `json:"comment,omitempty"`
	PerformedBy  string  `json:"-"`
}

// ManifestLine records how much was taken from one batch
type ManifestLine struct {
	BatchID    string    `json:"batch_id"`
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	ExpiryDate time.Time `json:"expiry_date"`
	Depleted   bool      `json:"depleted"`
}

// CollectManifest is the outcome of a collect: which batches were drawn
// down, in order, and by how much
type CollectManifest struct {
	Lines          []ManifestLine `json:"lines"`
	TotalCollected int            `json:"total_collected"`
}

// Collect depletes the requested quantity across the department's tracked
// batches, soonest expiry first. The operation is all or nothing: if the
// available stock cannot cover the request, nothing is written off and
// InsufficientStock reports both figures. Batches drawn to zero flip to
// collected and stop appearing in stock views and scans.
func (s *StockService) Collect(ctx context.Context, req *CollectRequest) (*CollectManifest, error) {
	if req.Quantity <= 0 {
		return nil, errors.BadRequest("collect quantity must be positive")
	}
	if !repository.ValidReason(req.Reason) {
		return nil, errors.BadRequest("invalid write-off reason: " + req.Reason)
	}

	dept, err := s.departmentRepo.GetByID(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	if dept.HotelID != req.HotelID {
		return nil, errors.BadRequest("department does not belong to the hotel")
	}
	if _, err := s.productRepo.GetByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	var manifest *CollectManifest
	var writeOffs []*repository.WriteOff

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		batches, err := s.batchRepo.SelectForCollect(ctx, tx, req.HotelID, req.DepartmentID, req.ProductID)
		if err != nil {
			return err
		}

		available := 0
		for _, b := range batches {
			available += *b.Quantity
		}
		if available < req.Quantity {
			return errors.InsufficientStock(req.Quantity, available)
		}

		manifest = &CollectManifest{}
		remaining := req.Quantity

		for _, b := range batches {
			if remaining == 0 {
				break
			}

			take := *b.Quantity
			if take > remaining {
				take = remaining
			}
			// Corrections can leave an active batch at quantity 0; it has
			// nothing to give and must not produce a zero write-off
			if take == 0 {
				continue
			}

			wo := &repository.WriteOff{
				HotelID:      req.HotelID,
				DepartmentID: req.DepartmentID,
				BatchID:      b.ID,
				ProductID:    req.ProductID,
				Quantity:     take,
				Reason:       req.Reason,
				Comment:      req.Comment,
				PerformedBy:  req.PerformedBy,
			}
			if err := s.writeOffRepo.Insert(ctx, tx, wo); err != nil {
				return err
			}

			if err := s.batchRepo.DecrementQuantity(ctx, tx, b.ID, *b.Quantity, take); err != nil {
				return err
			}

			depleted := take == *b.Quantity
			if depleted {
				if err := s.batchRepo.MarkCollected(ctx, tx, b.ID, req.PerformedBy); err != nil {
					return err
				}
			}

			manifest.Lines = append(manifest.Lines, ManifestLine{
				BatchID:    b.ID,
				ProductID:  b.ProductID,
				Quantity:   take,
				ExpiryDate: b.ExpiryDate,
				Depleted:   depleted,
			})
			manifest.TotalCollected += take
			writeOffs = append(writeOffs, wo)
			remaining -= take
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("department_id", req.DepartmentID).
		Str("product_id", req.ProductID).
		Int("quantity", req.Quantity).
		Int("batches_touched", len(manifest.Lines)).
		Str("performed_by", req.PerformedBy).
		Msg("stock collected")

	for _, wo := range writeOffs {
		s.publisher.PublishWrittenOff(ctx, wo)
	}

	return manifest, nil
}

// CollectBatchRequest targets one specific batch instead of FIFO order
type CollectBatchRequest struct {
	BatchID     string  `json:"-"`
	Quantity    *int    `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	Reason      string  `json:"reason" validate:"required"`
	Comment     *string `json:"comment,omitempty"`
	PerformedBy string  `json:"-"`
}

// CollectBatch depletes one batch directly, bypassing FIFO order. Quantity
// nil collects whatever remains. Untracked batches can only be collected
// whole and produce no write-off, since no counted quantity exists to record.
func (s *StockService) CollectBatch(ctx context.Context, req *CollectBatchRequest) (*CollectManifest, error) {
	if !repository.ValidReason(req.Reason) {
		return nil, errors.BadRequest("invalid write-off reason: " + req.Reason)
	}

	batch, err := s.batchRepo.GetByID(ctx, req.BatchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != repository.BatchStatusActive {
		return nil, errors.Conflict("batch is already collected")
	}

	if !batch.Tracked() {
		if req.Quantity != nil {
			return nil, errors.BadRequest("untracked batches can only be collected whole")
		}

		err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
			return s.batchRepo.MarkCollected(ctx, tx, batch.ID, req.PerformedBy)
		})
		if err != nil {
			return nil, err
		}

		s.publisher.PublishBatchCollected(ctx, batch, req.PerformedBy)
		return &CollectManifest{
			Lines: []ManifestLine{{BatchID: batch.ID, ProductID: batch.ProductID, ExpiryDate: batch.ExpiryDate, Depleted: true}},
		}, nil
	}

	var manifest *CollectManifest
	var writeOff *repository.WriteOff

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		// Re-read under lock so the quantity guard observes current state
		locked, err := s.batchRepo.SelectForCollect(ctx, tx, batch.HotelID, batch.DepartmentID, batch.ProductID)
		if err != nil {
			return err
		}

		var target *repository.Batch
		for _, b := range locked {
			if b.ID == batch.ID {
				target = b
				break
			}
		}
		if target == nil {
			return errors.ConcurrentModification("batch")
		}

		take := *target.Quantity
		if req.Quantity != nil {
			take = *req.Quantity
		}
		if take > *target.Quantity {
			return errors.InsufficientStock(take, *target.Quantity)
		}

		// Collecting an emptied batch whole just closes it; a zero
		// quantity leaves nothing to write off
		if take > 0 {
			wo := &repository.WriteOff{
				HotelID:      target.HotelID,
				DepartmentID: target.DepartmentID,
				BatchID:      target.ID,
				ProductID:    target.ProductID,
				Quantity:     take,
				Reason:       req.Reason,
				Comment:      req.Comment,
				PerformedBy:  req.PerformedBy,
			}
			if err := s.writeOffRepo.Insert(ctx, tx, wo); err != nil {
				return err
			}

			if err := s.batchRepo.DecrementQuantity(ctx, tx, target.ID, *target.Quantity, take); err != nil {
				return err
			}
			writeOff = wo
		}

		depleted := take == *target.Quantity
		if depleted {
			if err := s.batchRepo.MarkCollected(ctx, tx, target.ID, req.PerformedBy); err != nil {
				return err
			}
		}

		manifest = &CollectManifest{
			Lines:          []ManifestLine{{BatchID: target.ID, ProductID: target.ProductID, Quantity: take, ExpiryDate: target.ExpiryDate, Depleted: depleted}},
			TotalCollected: take,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if writeOff != nil {
		s.publisher.PublishWrittenOff(ctx, writeOff)
	}
	if manifest.Lines[0].Depleted {
		s.publisher.PublishBatchCollected(ctx, batch, req.PerformedBy)
	}

	return manifest, nil
}
