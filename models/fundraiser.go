package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Fundraiser struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BranchID         primitive.ObjectID `bson:"branch_id" json:"branch_id"` // submitting branch
	EventName        string             `bson:"event_name" json:"event_name"`
	Purpose          string             `bson:"purpose,omitempty" json:"purpose,omitempty"`
	Reason           string             `bson:"reason,omitempty" json:"reason,omitempty"`
	BudgetBreakdown  string             `bson:"budget_breakdown,omitempty" json:"budget_breakdown,omitempty"`
	CoordinatorName  string             `bson:"coordinator_name" json:"coordinator_name"`
	CoordinatorEmail string             `bson:"coordinator_email" json:"coordinator_email"`
	CoordinatorPhone string             `bson:"coordinator_phone" json:"coordinator_phone"`
	GoalAmount       float64            `bson:"goal_amount" json:"goal_amount"`
	SuggestedAmount  float64            `bson:"suggested_amount,omitempty" json:"suggested_amount,omitempty"`
	StartDate        time.Time          `bson:"start_date" json:"start_date"`
	EndDate          time.Time          `bson:"end_date" json:"end_date"`
	ImageURL         string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Status           FundraiserStatus   `bson:"status" json:"status"`
	StatusReason     string             `bson:"status_reason,omitempty" json:"status_reason,omitempty"` // reject/cancel reason, optional on complete
	Archived         bool               `bson:"archived" json:"archived"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}
