package domain

import (
	"encoding/json"
	"time"
)

// Dataset is the publication state of a dataset.
type Dataset struct {
	ID            string     `db:"dataset_id"`
	Name          string     `db:"name"`
	Published     bool       `db:"published"`
	DepublishedAt *time.Time `db:"depublished_at"`
}

// Record is a single stored record belonging to a dataset.
type Record struct {
	DatasetID string          `db:"dataset_id"`
	RecordID  string          `db:"record_id"`
	Payload   json.RawMessage `db:"payload"`
	UpdatedAt time.Time       `db:"updated_at"`
}
