package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// StringList stores a string slice as a JSON column.
type StringList []string

// Value implements driver.Valuer for database serialization.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database deserialization.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringList")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, l)
}

// UUIDList stores a UUID slice as a JSON column.
type UUIDList []uuid.UUID

// Value implements driver.Valuer for database serialization.
func (l UUIDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database deserialization.
func (l *UUIDList) Scan(value interface{}) error {
	if value == nil {
		*l = UUIDList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan UUIDList")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, l)
}

// BulkImport is one bulk-import batch and its three-bucket classification
// state. Names awaiting operator resolution sit in Pending, confirmed
// duplicates in Rejected, and the IDs of records created from the batch in
// Accepted. Finished is set exactly when Pending is empty.
//
// Revision backs the optimistic write check in the repository and is never
// exposed to clients.
type BulkImport struct {
	ID       uuid.UUID  `gorm:"type:text;primaryKey" json:"id"`
	Name     string     `gorm:"type:text;not null" json:"name"`
	Creator  uuid.UUID  `gorm:"type:text;not null;index:idx_bulk_imports_creator" json:"creator"`
	Started  time.Time  `json:"started"`
	Finished *time.Time `json:"finished,omitempty"`
	Pending  StringList `gorm:"type:text" json:"pending"`
	Accepted UUIDList   `gorm:"type:text" json:"accepted"`
	Rejected StringList `gorm:"type:text" json:"rejected"`
	Revision int        `gorm:"not null;default:0" json:"-"`
}

// TableName returns the database table name for BulkImport.
func (BulkImport) TableName() string {
	return "bulk_imports"
}

// IsFinished reports whether the batch has been fully resolved.
func (b *BulkImport) IsFinished() bool {
	return b.Finished != nil
}

// RecomputeFinished derives Finished from the pending bucket: set to now
// when the last pending name drains, cleared again if a patch re-adds one.
// An already-set timestamp is kept as long as pending stays empty.
func (b *BulkImport) RecomputeFinished(now time.Time) {
	switch {
	case len(b.Pending) == 0 && b.Finished == nil:
		b.Finished = &now
	case len(b.Pending) > 0:
		b.Finished = nil
	}
}

// Op identifies a patch action kind.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpUpdate Op = "update"
)

// Action is one declarative mutation of a bucket. Add appends Value, Remove
// deletes the first occurrence of Value, Update replaces the first
// occurrence of Value with To. Remove and Update are no-ops when Value is
// absent, which is what makes patches safe to retry blindly.
type Action[T comparable] struct {
	Op    Op `json:"op"`
	Value T  `json:"value"`
	To    T  `json:"to,omitempty"`
}

// Apply runs the actions against list in order and returns the result.
func Apply[T comparable](list []T, actions []Action[T]) []T {
	out := make([]T, len(list))
	copy(out, list)

	for _, a := range actions {
		switch a.Op {
		case OpAdd:
			out = append(out, a.Value)
		case OpRemove:
			for i, v := range out {
				if v == a.Value {
					out = append(out[:i], out[i+1:]...)
					break
				}
			}
		case OpUpdate:
			for i, v := range out {
				if v == a.Value {
					out[i] = a.To
					break
				}
			}
		}
	}
	return out
}

// BulkPatch addresses one BulkImport by ID and carries up to three
// independent action lists, one per bucket. The same ApplyTo runs on the
// server's loaded row and on the client's cached copy after a confirmed
// patch, so both sides stay in lockstep.
type BulkPatch struct {
	ID       uuid.UUID           `json:"id"`
	Pending  []Action[string]    `json:"pending,omitempty"`
	Accepted []Action[uuid.UUID] `json:"accepted,omitempty"`
	Rejected []Action[string]    `json:"rejected,omitempty"`
}

// IsEmpty reports whether the patch carries no actions at all.
func (p *BulkPatch) IsEmpty() bool {
	return len(p.Pending) == 0 && len(p.Accepted) == 0 && len(p.Rejected) == 0
}

// ApplyTo mutates the import's buckets, list order pending, accepted,
// rejected, actions within a list in array order. Finished is not touched
// here; the patch engine recomputes it after applying.
func (p *BulkPatch) ApplyTo(imp *BulkImport) {
	imp.Pending = Apply(imp.Pending, p.Pending)
	imp.Accepted = Apply(imp.Accepted, p.Accepted)
	imp.Rejected = Apply(imp.Rejected, p.Rejected)
}

// BulkFilter is a parsed, validated fetch query. Handlers are responsible
// for UUID parsing so malformed input is rejected before any DB work.
type BulkFilter struct {
	IDs      []uuid.UUID
	Creators []uuid.UUID
	Limit    int
	Offset   int
}
