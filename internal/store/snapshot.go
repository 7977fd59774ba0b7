package store

import (
	"encoding/json"
	"fmt"
	"time"

	"kryreport/internal/report"
	"kryreport/internal/store/model"

	"gorm.io/datatypes"
)

// SnapshotRecord 是持久化的“上次已推送快照”。
type SnapshotRecord struct {
	ShopID       string
	BusinessDate string
	Snapshot     report.Snapshot
	UpdatedAt    time.Time
}

func EncodeSnapshot(shopID, businessDate string, snap report.Snapshot) (*model.SnapshotModel, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return &model.SnapshotModel{
		ShopID:       shopID,
		BusinessDate: businessDate,
		Payload:      datatypes.JSON(payload),
	}, nil
}

func DecodeSnapshot(m *model.SnapshotModel) (SnapshotRecord, error) {
	if m == nil {
		return SnapshotRecord{}, fmt.Errorf("decode snapshot: nil model")
	}
	var snap report.Snapshot
	if err := json.Unmarshal(m.Payload, &snap); err != nil {
		return SnapshotRecord{}, fmt.Errorf("decode snapshot %s: %w", m.ShopID, err)
	}
	return SnapshotRecord{
		ShopID:       m.ShopID,
		BusinessDate: m.BusinessDate,
		Snapshot:     snap,
		UpdatedAt:    time.Unix(m.UpdatedAtUnix, 0),
	}, nil
}
