package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contribution is an append-only donation record. Once COMPLETED or FAILED
// it is never edited or deleted; it is the audit trail for the ledger.
type Contribution struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CampaignID       primitive.ObjectID `bson:"campaign_id" json:"campaign_id"`
	ContributorEmail string             `bson:"contributor_email" json:"contributor_email"`
	Amount           float64            `bson:"amount" json:"amount"`
	Method           PaymentMethod      `bson:"method" json:"method"`
	AccountRef       string             `bson:"account_reference,omitempty" json:"account_reference,omitempty"`
	Status           ContributionStatus `bson:"status" json:"status"`
	FailureReason    string             `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}
