package inventory

import (
	"context"
	"fmt"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/core/security"
	"dsrsales/pkg/logger"
)

// BulkAllocateResult partitions the normalized input: every IMEI lands in
// exactly one of the two lists.
type BulkAllocateResult struct {
	Allocated []*Stock `json:"allocated"`
	NotFound  []string `json:"notFound"`
}

// BulkAddResult partitions the normalized input into received and already
// known IMEIs. Units released by an undone sale are received again and
// listed in Added.
type BulkAddResult struct {
	Added      []string `json:"added"`
	Duplicates []string `json:"duplicates"`
}

// BulkAllocate assigns every allocatable unit among imeis to holderID in one
// transaction. Unknown IMEIs and units that cannot be allocated (sold) are
// reported in NotFound rather than failing the call.
func (s *Service) BulkAllocate(ctx context.Context, imeis []string, holderID id.ID) (*BulkAllocateResult, error) {
	actor, err := security.ActorID(ctx)
	if err != nil {
		return nil, err
	}

	normalized := NormalizeIdentifiers(imeis)
	if len(normalized) == 0 {
		return nil, apperror.NewEmptyInput("imeis")
	}

	var result *BulkAllocateResult
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		holderName, err := s.users.Username(ctx, holderID)
		if err != nil {
			return err
		}

		locked, err := s.stocks.GetByIMEIsForUpdate(ctx, normalized)
		if err != nil {
			return fmt.Errorf("lock stock: %w", err)
		}

		res := &BulkAllocateResult{
			Allocated: make([]*Stock, 0, len(locked)),
			NotFound:  make([]string, 0),
		}
		entries := make([]HistoryEntry, 0, len(locked))
		for _, imei := range normalized {
			st, ok := locked[imei]
			if !ok || !st.CanAllocate() {
				res.NotFound = append(res.NotFound, imei)
				continue
			}
			entry, err := s.allocateLocked(ctx, st, holderID, holderName, actor)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
			res.Allocated = append(res.Allocated, st)
		}

		if err := s.history.RecordMany(ctx, entries); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "bulk allocation completed",
		"holder_id", holderID,
		"allocated", len(result.Allocated),
		"not_found", len(result.NotFound),
	)
	return result, nil
}

// BulkAdd receives every new IMEI in imeis against productID. IMEIs of units
// still tracked are reported as duplicates.
func (s *Service) BulkAdd(ctx context.Context, productID id.ID, imeis []string) (*BulkAddResult, error) {
	actor, err := security.ActorID(ctx)
	if err != nil {
		return nil, err
	}

	normalized := NormalizeIdentifiers(imeis)
	if len(normalized) == 0 {
		return nil, apperror.NewEmptyInput("imeis")
	}

	var result *BulkAddResult
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.activeProduct(ctx, productID)
		if err != nil {
			return err
		}

		// Known IMEIs are resolved up front: a unique violation would abort
		// the whole transaction.
		locked, err := s.stocks.GetByIMEIsForUpdate(ctx, normalized)
		if err != nil {
			return fmt.Errorf("lock stock: %w", err)
		}

		res := &BulkAddResult{
			Added:      make([]string, 0, len(normalized)),
			Duplicates: make([]string, 0, len(locked)),
		}
		stocks := make([]*Stock, 0, len(normalized))
		entries := make([]HistoryEntry, 0, len(normalized))
		details := "Bulk add for " + p.ModelName
		for _, imei := range normalized {
			if st, ok := locked[imei]; ok {
				if !st.IsReleased() {
					res.Duplicates = append(res.Duplicates, imei)
					continue
				}
				entry, err := s.readmitLocked(ctx, st, p.ID, actor)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
				res.Added = append(res.Added, imei)
				continue
			}
			v := imei
			st := s.newStock(p.ID, &v, NewSerialNumber(), actor)
			stocks = append(stocks, st)
			entries = append(entries, HistoryEntry{
				StockID:     st.ID,
				Action:      ActionAdded,
				PerformedBy: &actor,
				Details:     details,
			})
			res.Added = append(res.Added, imei)
		}

		if len(stocks) > 0 {
			if err := s.stocks.CreateMany(ctx, stocks); err != nil {
				return err
			}
		}
		if len(entries) > 0 {
			if err := s.history.RecordMany(ctx, entries); err != nil {
				return err
			}
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "bulk add completed",
		"product_id", productID,
		"added", len(result.Added),
		"duplicates", len(result.Duplicates),
	)
	return result, nil
}
