package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/orphanage-fund-go/models"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrStaleStatus means a guarded transition found the entity in a
	// different status than the guard expected; the caller lost the race.
	ErrStaleStatus = errors.New("status changed concurrently")

	// ErrCampaignNotActive means a fold was attempted against a campaign
	// that is no longer accepting contributions.
	ErrCampaignNotActive = errors.New("campaign is not active")

	// ErrAlreadyFolded means the contribution was already counted into the
	// campaign rollup; folding is apply-once per contribution.
	ErrAlreadyFolded = errors.New("contribution already folded")

	// ErrContributionNotPending means a fail/fold was attempted on a
	// contribution that already reached a terminal status.
	ErrContributionNotPending = errors.New("contribution is not pending")
)

type FundraiserFilter struct {
	BranchID *primitive.ObjectID
	Status   models.FundraiserStatus
	Query    string // case-insensitive match on event name
}

type CampaignFilter struct {
	Status models.CampaignStatus
}

type ContributionFilter struct {
	CampaignID *primitive.ObjectID
	Status     models.ContributionStatus
}

// Store is the persistence boundary for the fundraising core. Guarded
// transitions and folding are atomic inside the store so that the services
// never read-modify-write shared state.
type Store interface {
	InsertFundraiser(ctx context.Context, f *models.Fundraiser) error
	GetFundraiser(ctx context.Context, id primitive.ObjectID) (*models.Fundraiser, error)
	ListFundraisers(ctx context.Context, filter FundraiserFilter) ([]models.Fundraiser, error)
	// ArchiveFundraiser soft-deletes; fundraisers are never hard-deleted.
	ArchiveFundraiser(ctx context.Context, id primitive.ObjectID) error

	// ApproveFundraiser moves a PENDING fundraiser to APPROVED and creates
	// its ACTIVE campaign in one atomic step. ErrStaleStatus if the
	// fundraiser is not PENDING at commit time.
	ApproveFundraiser(ctx context.Context, id primitive.ObjectID, split float64) (*models.Campaign, error)
	// RejectFundraiser moves a PENDING fundraiser to REJECTED.
	RejectFundraiser(ctx context.Context, id primitive.ObjectID, reason string) error
	// CompleteFundraiser moves fundraiser APPROVED->COMPLETED and its
	// campaign ACTIVE->COMPLETED atomically.
	CompleteFundraiser(ctx context.Context, id primitive.ObjectID, reason string) error
	// CancelFundraiser moves fundraiser APPROVED->CANCELLED and its
	// campaign ACTIVE->CANCELLED atomically. Never reverses the ledger.
	CancelFundraiser(ctx context.Context, id primitive.ObjectID, reason string) error

	GetCampaign(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	GetCampaignByFundraiser(ctx context.Context, fundraiserID primitive.ObjectID) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]models.Campaign, error)

	InsertContribution(ctx context.Context, c *models.Contribution) error
	GetContribution(ctx context.Context, id primitive.ObjectID) (*models.Contribution, error)
	ListContributions(ctx context.Context, filter ContributionFilter) ([]models.Contribution, error)

	// FoldContribution marks a PENDING contribution COMPLETED and folds its
	// amount into the campaign rollup as one all-or-nothing step, keyed on
	// the contribution id so the same contribution can never double-count.
	// share is the slice of amount routed to the orphanage fund.
	FoldContribution(ctx context.Context, contributionID, campaignID primitive.ObjectID, amount, share float64) (*models.Campaign, error)
	// FailContribution marks a PENDING contribution FAILED; rollups untouched.
	FailContribution(ctx context.Context, id primitive.ObjectID, reason string) error
	// ExpirePendingContributions fails every contribution still PENDING and
	// created before cutoff. Returns how many were expired.
	ExpirePendingContributions(ctx context.Context, cutoff time.Time) (int64, error)
}
