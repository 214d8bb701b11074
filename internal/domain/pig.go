package domain

import (
	"time"

	"github.com/google/uuid"
)

// Pig is a single canonical record in the system of record. Names are the
// only mutable thing about a pig, and even those only change through the
// single-record API, never through bulk imports.
type Pig struct {
	ID      uuid.UUID `gorm:"type:text;primaryKey" json:"id"`
	Name    string    `gorm:"type:text;not null;index:idx_pigs_name" json:"name"`
	Created time.Time `json:"created"`
	Creator uuid.UUID `gorm:"type:text;not null" json:"creator"`
}

// TableName returns the database table name for Pig.
func (Pig) TableName() string {
	return "pigs"
}

// NewPig creates a pig with a fresh random ID and the current timestamp.
// Parameters:
//   - name: display name for the record.
//   - creator: identifier of the operator creating it.
// Returns:
//   - Pig: populated record, not yet persisted.
func NewPig(name string, creator uuid.UUID) Pig {
	return Pig{
		ID:      uuid.New(),
		Name:    name,
		Created: time.Now().UTC(),
		Creator: creator,
	}
}
