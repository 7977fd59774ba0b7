package sqlite

import (
	"context"
	"errors"
	"time"

	"kryreport/internal/store/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepo(db *gorm.DB) *snapshotRepository {
	return &snapshotRepository{db: db}
}

// Save upserts the row for snap.ShopID.
func (r *snapshotRepository) Save(ctx context.Context, snap *model.SnapshotModel) error {
	if snap == nil {
		return errors.New("snapshot cannot be nil")
	}
	if snap.ShopID == "" {
		return errors.New("snapshot shop_id cannot be empty")
	}
	now := time.Now().Unix()
	if snap.CreatedAtUnix == 0 {
		snap.CreatedAtUnix = now
	}
	snap.UpdatedAtUnix = now
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"business_date", "payload", "updated_at"}),
	}).Create(snap).Error
}

// FindByShop returns nil, nil when the shop has no stored snapshot.
func (r *snapshotRepository) FindByShop(ctx context.Context, shopID string) (*model.SnapshotModel, error) {
	var snap model.SnapshotModel
	err := r.db.WithContext(ctx).Where("shop_id = ?", shopID).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
