package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Campaign is the live fundraising instance created when a fundraiser is
// approved. Rollup fields are written only by the ledger; everything a
// client sees is either stored here or derived via Remaining/Progress.
type Campaign struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FundraiserID     primitive.ObjectID `bson:"fundraiser_id" json:"fundraiser_id"`
	Status           CampaignStatus     `bson:"status" json:"status"`
	RaisedAmount     float64            `bson:"raised_amount" json:"raised_amount"`
	ContributorCount int64              `bson:"contributor_count" json:"contributor_count"`
	OrphanageAmount  float64            `bson:"orphanage_amount" json:"orphanage_amount"`
	EventAmount      float64            `bson:"event_amount" json:"event_amount"`
	OrphanageSplit   float64            `bson:"orphanage_split" json:"orphanage_split"` // frozen at creation
	StatusReason     string             `bson:"status_reason,omitempty" json:"status_reason,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// Remaining is the amount still needed against the fundraiser's goal,
// floored at zero once the goal is exceeded.
func (c *Campaign) Remaining(goal float64) float64 {
	if r := goal - c.RaisedAmount; r > 0 {
		return r
	}
	return 0
}

// Progress is the display percentage, capped at 100.
func (c *Campaign) Progress(goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	p := c.RaisedAmount / goal
	if p > 1 {
		p = 1
	}
	return p * 100
}
