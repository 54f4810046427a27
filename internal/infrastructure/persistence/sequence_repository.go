package persistence

import (
	"context"

	"github.com/erp/stockcore/internal/domain/sequence"
	"github.com/erp/stockcore/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceRepository implements the document sequence Repository using
// GORM. The counter row is always read under FOR UPDATE so concurrent
// allocations for the same (prefix, scope) serialize at the database.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// FindForUpdate loads the counter row for a (prefix, scope) pair with an
// exclusive lock, creating the row on first use. Unlike the stock row lock
// this one waits: sequence allocation is quick and callers want a number,
// not a conflict.
func (r *GormSequenceRepository) FindForUpdate(ctx context.Context, prefix, scopeKey string) (*sequence.DocumentSequence, error) {
	var seq sequence.DocumentSequence
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("prefix = ? AND scope_key = ?", prefix, scopeKey).
		First(&seq).Error
	if err == nil {
		return &seq, nil
	}
	if mapNotFound(err) != shared.ErrNotFound {
		return nil, mapLockError(err)
	}

	// First allocation for this scope: insert the zero row, ignoring the
	// race where another caller inserts it first, then lock it.
	fresh, err := sequence.NewDocumentSequence(prefix, scopeKey)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "prefix"}, {Name: "scope_key"}},
			DoNothing: true,
		}).
		Create(fresh).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("prefix = ? AND scope_key = ?", prefix, scopeKey).
		First(&seq).Error; err != nil {
		return nil, mapLockError(err)
	}
	return &seq, nil
}

// Save persists the advanced counter
func (r *GormSequenceRepository) Save(ctx context.Context, seq *sequence.DocumentSequence) error {
	result := r.db.WithContext(ctx).
		Model(seq).
		Where("id = ?", seq.ID).
		Updates(map[string]interface{}{
			"last_number": seq.LastNumber,
			"updated_at":  seq.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ sequence.Repository = (*GormSequenceRepository)(nil)
