package model

import (
	"gorm.io/datatypes"
)

// SnapshotModel maps to 'shop_snapshots': one row per shop, overwritten
// each time a changed snapshot is delivered.
type SnapshotModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	ShopID        string         `gorm:"column:shop_id;uniqueIndex"`
	BusinessDate  string         `gorm:"column:business_date"`
	Payload       datatypes.JSON `gorm:"column:payload;type:TEXT"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
	UpdatedAtUnix int64          `gorm:"column:updated_at"`
}

func (SnapshotModel) TableName() string { return "shop_snapshots" }
