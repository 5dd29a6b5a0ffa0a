package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductionDay is the production of one cattle on one local day split by shift.
type ProductionDay struct {
	LocalDate     string  `bson:"_id"`
	Morning       float64 `bson:"morning"`
	Evening       float64 `bson:"evening"`
	ProducedTotal float64 `bson:"producedTotal"`
}

// SalesDay is the sold volume and stored-price revenue of one local day.
type SalesDay struct {
	LocalDate string  `bson:"_id"`
	Sold      float64 `bson:"sold"`
	Revenue   float64 `bson:"revenue"`
}

// SalesFilter selects sales of one owner for revenue rollups.
type SalesFilter struct {
	From     string
	To       string
	CattleID *primitive.ObjectID
}

// CattleTotals is a per-cattle aggregate over a date range.
type CattleTotals struct {
	CattleID primitive.ObjectID `bson:"_id"`
	Produced float64            `bson:"produced"`
	Sold     float64            `bson:"sold"`
	Revenue  float64            `bson:"revenue"`
}

// DailyStat is one folded row of the per-day stats of a cattle.
type DailyStat struct {
	LocalDate     string  `json:"localDate"`
	Morning       float64 `json:"morning"`
	Evening       float64 `json:"evening"`
	ProducedTotal float64 `json:"producedTotal"`
	SoldTotal     float64 `json:"soldTotal"`
	Remaining     float64 `json:"remaining"`
}

// RangeSummary sums daily stats over a whole range.
type RangeSummary struct {
	Morning       float64 `json:"morning"`
	Evening       float64 `json:"evening"`
	ProducedTotal float64 `json:"producedTotal"`
	SoldTotal     float64 `json:"soldTotal"`
	Remaining     float64 `json:"remaining"`
}

// CattleSummary is one row of the summary-by-cattle report.
type CattleSummary struct {
	Cattle           CattleLabel `json:"cattle"`
	ProducedTotal    float64     `json:"producedTotal"`
	SoldTotal        float64     `json:"soldTotal"`
	RevenueFromSales float64     `json:"revenueFromSales"`
}

// RevenueDay is a daily revenue bucket.
type RevenueDay struct {
	LocalDate string  `json:"localDate"`
	Sold      float64 `json:"sold"`
	Revenue   float64 `json:"revenue"`
}

// RevenueWeek is an ISO-8601 week revenue bucket.
type RevenueWeek struct {
	ISOYear   int     `json:"isoYear"`
	ISOWeek   int     `json:"isoWeek"`
	WeekLabel string  `json:"weekLabel"`
	RangeFrom string  `json:"rangeFrom"`
	RangeTo   string  `json:"rangeTo"`
	Sold      float64 `json:"sold"`
	Revenue   float64 `json:"revenue"`
}

// RevenueMonth is a calendar month revenue bucket.
type RevenueMonth struct {
	Month   string  `json:"month"`
	Sold    float64 `json:"sold"`
	Revenue float64 `json:"revenue"`
}

// WeeklyReport is the stored result of the scheduled weekly rollup of one owner.
type WeeklyReport struct {
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	ISOYear   int                `bson:"isoYear" json:"isoYear"`
	ISOWeek   int                `bson:"isoWeek" json:"isoWeek"`
	RangeFrom string             `bson:"rangeFrom" json:"rangeFrom"`
	RangeTo   string             `bson:"rangeTo" json:"rangeTo"`
	Produced  float64            `bson:"produced" json:"produced"`
	Sold      float64            `bson:"sold" json:"sold"`
	Revenue   float64            `bson:"revenue" json:"revenue"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
