package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shift names one of the two daily milking events.
type Shift string

const (
	ShiftMorning Shift = "morning"
	ShiftEvening Shift = "evening"
)

// Valid reports whether the shift is one of the supported values.
func (s Shift) Valid() bool {
	return s == ShiftMorning || s == ShiftEvening
}

// Cattle is an animal registered by its owner under a unique tag.
type Cattle struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	TagNo     string             `bson:"tagNo" json:"tagNo"`
	Name      string             `bson:"name" json:"name"`
	Breed     string             `bson:"breed" json:"breed"`
	Notes     string             `bson:"notes" json:"notes"`
	EntryDate time.Time          `bson:"entryDate" json:"entryDate"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CattleUpdate lists the fields a partial update may touch. Nil means unchanged.
type CattleUpdate struct {
	TagNo     *string
	Name      *string
	Breed     *string
	Notes     *string
	EntryDate *time.Time
}

// Empty reports whether the update carries no field.
func (u CattleUpdate) Empty() bool {
	return u.TagNo == nil && u.Name == nil && u.Breed == nil && u.Notes == nil && u.EntryDate == nil
}

// CattleQuery filters and pages the cattle list of one owner.
type CattleQuery struct {
	Search    string
	Breed     string
	SortField string
	SortDesc  bool
	Skip      int64
	Limit     int64
}

// CattleLabel is the subset of cattle metadata joined into reports.
type CattleLabel struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	TagNo string             `bson:"tagNo" json:"tagNo"`
	Name  string             `bson:"name" json:"name"`
}

// ProductionRecord is the milk yield of one cattle for one shift of a local day.
type ProductionRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	CattleID  primitive.ObjectID `bson:"cattle" json:"cattle"`
	LocalDate string             `bson:"localDate" json:"localDate"`
	Shift     Shift              `bson:"shift" json:"shift"`
	Liters    float64            `bson:"liters" json:"liters"`
	Notes     string             `bson:"notes" json:"notes"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProductionKey identifies the single production row of an owner's shift.
type ProductionKey struct {
	CattleID  primitive.ObjectID
	LocalDate string
	Shift     Shift
}

// SaleRecord captures one sale of milk drawn from a cattle's daily yield.
type SaleRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user" json:"user"`
	CattleID      primitive.ObjectID `bson:"cattle" json:"cattle"`
	When          time.Time          `bson:"when" json:"when"`
	LocalDate     string             `bson:"localDate" json:"localDate"`
	Liters        float64            `bson:"liters" json:"liters"`
	PricePerLiter float64            `bson:"pricePerLiter" json:"pricePerLiter"`
	Buyer         string             `bson:"buyer" json:"buyer"`
	Notes         string             `bson:"notes" json:"notes"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Revenue is the stored-price value of the sale.
func (s SaleRecord) Revenue() float64 {
	return s.Liters * s.PricePerLiter
}
