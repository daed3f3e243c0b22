package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/orphanage-fund-go/models"
	payments "github.com/phillip/orphanage-fund-go/payments"
	store "github.com/phillip/orphanage-fund-go/store"
)

// ContributionInput is the donor-facing payload of the public contribute form.
type ContributionInput struct {
	Email      string
	Amount     float64
	Method     models.PaymentMethod
	AccountRef string
}

// Rollup is the aggregated financial view of a campaign. It is computed
// here and nowhere else; display layers never re-derive these numbers.
type Rollup struct {
	RaisedAmount     float64 `json:"raised_amount"`
	AmountRemaining  float64 `json:"amount_remaining"`
	ContributorCount int64   `json:"contributors"`
	OrphanageAmount  float64 `json:"orphanage_amount"`
	EventAmount      float64 `json:"event_amount"`
	ProgressPercent  float64 `json:"progress_percent"`
}

// CampaignView is the public read projection: campaign, its fundraiser and
// the derived rollup.
type CampaignView struct {
	Campaign   *models.Campaign   `json:"campaign"`
	Fundraiser *models.Fundraiser `json:"fundraiser"`
	Rollup     Rollup             `json:"rollup"`
}

// LedgerService records contributions against active campaigns. All rollup
// writes go through the store's atomic fold; this service never
// read-modify-writes a campaign total.
type LedgerService struct {
	store          store.Store
	confirmer      payments.Confirmer
	pendingTimeout time.Duration
}

func NewLedgerService(st store.Store, confirmer payments.Confirmer, pendingTimeout time.Duration) *LedgerService {
	return &LedgerService{store: st, confirmer: confirmer, pendingTimeout: pendingTimeout}
}

// RecordContribution runs the full donor flow: validate, create PENDING,
// confirm payment with the external collaborator, then fold the amount into
// the campaign rollup exactly once. Rollup fields change only after the
// confirmation succeeds.
func (s *LedgerService) RecordContribution(ctx context.Context, campaignID primitive.ObjectID, input ContributionInput) (*models.Contribution, *Rollup, error) {
	campaign, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, &CampaignClosedError{CampaignID: campaignID.Hex()}
		}
		return nil, nil, err
	}
	if campaign.Status != models.CampaignActive {
		return nil, nil, &CampaignClosedError{CampaignID: campaignID.Hex(), Status: string(campaign.Status)}
	}

	if input.Amount <= 0 {
		return nil, nil, &ValidationError{Field: "amount", Message: "amount must be greater than 0"}
	}
	if !models.ValidMethod(input.Method) {
		return nil, nil, &ValidationError{Field: "payment_method", Message: "unknown payment method"}
	}
	if !emailPattern.MatchString(input.Email) {
		return nil, nil, &ValidationError{Field: "email", Message: "a valid email address is required"}
	}

	now := time.Now()
	ctn := &models.Contribution{
		ID:               primitive.NewObjectID(),
		CampaignID:       campaignID,
		ContributorEmail: input.Email,
		Amount:           input.Amount,
		Method:           input.Method,
		AccountRef:       input.AccountRef,
		Status:           models.ContributionPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.InsertContribution(ctx, ctn); err != nil {
		return nil, nil, err
	}

	// the only blocking external call; everything after it is local
	if err := s.confirmer.Confirm(ctx, ctn); err != nil {
		if ferr := s.store.FailContribution(ctx, ctn.ID, err.Error()); ferr != nil {
			logger.Errorf("could not mark contribution %s failed: %v", ctn.ID.Hex(), ferr)
		}
		ctn.Status = models.ContributionFailed
		return ctn, nil, &PaymentConfirmationError{ContributionID: ctn.ID.Hex(), Cause: err}
	}

	updated, err := s.fold(ctx, ctn, campaign)
	if err != nil {
		return ctn, nil, err
	}
	ctn.Status = models.ContributionCompleted

	rollup, err := s.rollupFor(ctx, updated)
	if err != nil {
		return ctn, nil, err
	}
	logger.Infof("contribution %s of %.2f folded into campaign %s (raised %.2f)",
		ctn.ID.Hex(), ctn.Amount, campaignID.Hex(), updated.RaisedAmount)
	return ctn, rollup, nil
}

// ConfirmContribution folds an already-created PENDING contribution after a
// late confirmation arrives (e.g. a gateway callback). Folding is apply-once:
// confirming twice counts the money once and reports the duplicate.
func (s *LedgerService) ConfirmContribution(ctx context.Context, contributionID primitive.ObjectID) (*Rollup, error) {
	ctn, err := s.store.GetContribution(ctx, contributionID)
	if err != nil {
		return nil, err
	}
	campaign, err := s.store.GetCampaign(ctx, ctn.CampaignID)
	if err != nil {
		return nil, err
	}
	updated, err := s.fold(ctx, ctn, campaign)
	if err != nil {
		return nil, err
	}
	return s.rollupFor(ctx, updated)
}

// fold applies the one-time aggregation step and maps store failures onto
// the error taxonomy. A fold rejected because the campaign closed marks the
// contribution FAILED so it can never silently count later.
func (s *LedgerService) fold(ctx context.Context, ctn *models.Contribution, campaign *models.Campaign) (*models.Campaign, error) {
	share := ctn.Amount * campaign.OrphanageSplit
	updated, err := s.store.FoldContribution(ctx, ctn.ID, campaign.ID, ctn.Amount, share)
	if err == nil {
		return updated, nil
	}
	if errors.Is(err, store.ErrCampaignNotActive) {
		if ferr := s.store.FailContribution(ctx, ctn.ID, "campaign closed before confirmation"); ferr != nil {
			logger.Errorf("could not mark contribution %s failed: %v", ctn.ID.Hex(), ferr)
		}
		status := ""
		if fresh, gerr := s.store.GetCampaign(ctx, campaign.ID); gerr == nil {
			status = string(fresh.Status)
		}
		return nil, &CampaignClosedError{CampaignID: campaign.ID.Hex(), Status: status}
	}
	if errors.Is(err, store.ErrAlreadyFolded) || errors.Is(err, store.ErrContributionNotPending) {
		current := string(models.ContributionFailed)
		if errors.Is(err, store.ErrAlreadyFolded) {
			current = string(models.ContributionCompleted)
		}
		if fresh, gerr := s.store.GetContribution(ctx, ctn.ID); gerr == nil {
			current = string(fresh.Status)
		}
		return nil, &InvalidTransitionError{EntityID: ctn.ID.Hex(), Op: "confirm", Current: current}
	}
	return nil, err
}

// CampaignSummary is the single read-side source of truth for campaign
// financials.
func (s *LedgerService) CampaignSummary(ctx context.Context, campaignID primitive.ObjectID) (*CampaignView, error) {
	campaign, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return s.viewFor(ctx, campaign)
}

// ListCampaigns returns the public projections, optionally filtered by status.
func (s *LedgerService) ListCampaigns(ctx context.Context, status models.CampaignStatus) ([]CampaignView, error) {
	campaigns, err := s.store.ListCampaigns(ctx, store.CampaignFilter{Status: status})
	if err != nil {
		return nil, err
	}
	views := make([]CampaignView, 0, len(campaigns))
	for i := range campaigns {
		v, err := s.viewFor(ctx, &campaigns[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// ExpireStalePending fails contributions stuck in PENDING longer than the
// configured timeout. Run by the background janitor.
func (s *LedgerService) ExpireStalePending(ctx context.Context) (int64, error) {
	n, err := s.store.ExpirePendingContributions(ctx, time.Now().Add(-s.pendingTimeout))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Infof("expired %d stale pending contributions", n)
	}
	return n, nil
}

func (s *LedgerService) viewFor(ctx context.Context, campaign *models.Campaign) (*CampaignView, error) {
	f, err := s.store.GetFundraiser(ctx, campaign.FundraiserID)
	if err != nil {
		return nil, err
	}
	return &CampaignView{
		Campaign:   campaign,
		Fundraiser: f,
		Rollup: Rollup{
			RaisedAmount:     campaign.RaisedAmount,
			AmountRemaining:  campaign.Remaining(f.GoalAmount),
			ContributorCount: campaign.ContributorCount,
			OrphanageAmount:  campaign.OrphanageAmount,
			EventAmount:      campaign.EventAmount,
			ProgressPercent:  campaign.Progress(f.GoalAmount),
		},
	}, nil
}

func (s *LedgerService) rollupFor(ctx context.Context, campaign *models.Campaign) (*Rollup, error) {
	v, err := s.viewFor(ctx, campaign)
	if err != nil {
		return nil, err
	}
	return &v.Rollup, nil
}
