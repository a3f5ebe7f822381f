package reconcile

import (
	"context"
	"fmt"

	"market-sync/core/idgen"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultInsertBatchSize = 100

// Run converges local entity state with one batch of external records.
//
// Records are classified as new, changed, unchanged or rejected; entities the
// source stopped reporting are handled by the spec's Vanished hook. All queued
// writes are applied in a single store transaction, ordered merges before
// inserts before deactivation, so a key that is both existing and re-appearing
// mid-batch is never double-created. Identifiers consumed for entities whose
// commit fails are wasted, never reused.
func Run[E any, R any](ctx context.Context, db *gorm.DB, alloc *idgen.Allocator, spec *Spec[E, R], batch []R, log *zap.Logger) (Result, error) {
	res := Result{Total: len(batch)}

	// Extract natural keys, rejecting malformed records and duplicates.
	seen := make(map[string]struct{}, len(batch))
	keys := make([]string, 0, len(batch))
	byKey := make(map[string]R, len(batch))
	for _, r := range batch {
		key, err := spec.Key(r)
		if err != nil {
			res.Rejected++
			log.Warn("record rejected", zap.String("entity", spec.Name), zap.Error(err))
			continue
		}
		if _, dup := seen[key]; dup {
			res.Rejected++
			log.Warn("duplicate natural key in batch",
				zap.String("entity", spec.Name), zap.String("key", key))
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
		byKey[key] = r
	}

	existing, err := spec.Cache.GetAllOrLoad(ctx, spec.KeyAttr, keys)
	if err != nil {
		return res, fmt.Errorf("reconcile %s: resolve batch: %w", spec.Name, err)
	}
	existingByKey := make(map[string]E, len(existing))
	for _, e := range existing {
		key, err := spec.Cache.KeyOf(spec.KeyAttr, e)
		if err != nil {
			return res, fmt.Errorf("reconcile %s: %w", spec.Name, err)
		}
		existingByKey[key] = e
	}

	var updates []E
	var missingKeys []string
	for _, key := range keys {
		r := byKey[key]
		e, ok := existingByKey[key]
		if !ok {
			missingKeys = append(missingKeys, key)
			continue
		}
		changed := ApplyFields(e, r, spec.Fields)
		if len(changed) == 0 {
			res.Unchanged++
			continue
		}
		spec.Touch(e)
		updates = append(updates, e)
		log.Debug("entity changed",
			zap.String("entity", spec.Name),
			zap.String("key", key),
			zap.Strings("fields", changed))
	}

	// Mint identifiers for all new entities in one batched call to keep
	// allocator refills to a minimum.
	ids, err := alloc.NextIDs(ctx, len(missingKeys))
	if err != nil {
		return res, fmt.Errorf("reconcile %s: allocate %d ids: %w", spec.Name, len(missingKeys), err)
	}
	var inserts []E
	for i, key := range missingKeys {
		e, err := spec.New(byKey[key], ids[i])
		if err != nil {
			// The allocated identifier is discarded; gaps are acceptable.
			res.Rejected++
			log.Warn("record rejected at construction",
				zap.String("entity", spec.Name), zap.String("key", key), zap.Error(err))
			continue
		}
		spec.Cache.Put(e)
		inserts = append(inserts, e)
	}

	batchSize := spec.InsertBatchSize
	if batchSize <= 0 {
		batchSize = defaultInsertBatchSize
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range updates {
			if err := tx.Save(e).Error; err != nil {
				return fmt.Errorf("merge: %w", err)
			}
		}
		if len(inserts) > 0 {
			if err := tx.CreateInBatches(inserts, batchSize).Error; err != nil {
				return fmt.Errorf("insert: %w", err)
			}
		}
		if spec.Vanished != nil {
			n, err := spec.Vanished(ctx, tx, seen)
			if err != nil {
				return fmt.Errorf("vanished: %w", err)
			}
			res.Vanished = n
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("reconcile %s: %w", spec.Name, err)
	}

	// Refresh the cache with post-write entities.
	for _, e := range updates {
		spec.Cache.Put(e)
	}

	res.New = len(inserts)
	res.Updated = len(updates)

	log.Info("reconciliation complete",
		zap.String("entity", spec.Name),
		zap.Int("total", res.Total),
		zap.Int("new", res.New),
		zap.Int("updated", res.Updated),
		zap.Int("unchanged", res.Unchanged),
		zap.Int("vanished", res.Vanished),
		zap.Int("rejected", res.Rejected))

	return res, nil
}
