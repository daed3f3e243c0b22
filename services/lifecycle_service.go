package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/orphanage-fund-go/models"
	store "github.com/phillip/orphanage-fund-go/store"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Actor is the request-scoped identity every lifecycle operation runs as.
// Filled from the auth middleware, never from ambient state.
type Actor struct {
	UserID   primitive.ObjectID
	BranchID primitive.ObjectID
	Role     string
}

// Notifier delivers best-effort status-change notices. Failures are logged
// and never block or roll back a transition.
type Notifier interface {
	StatusChanged(f *models.Fundraiser) error
}

// FundraiserDraft is a branch's submission before validation.
type FundraiserDraft struct {
	EventName        string
	Purpose          string
	Reason           string
	BudgetBreakdown  string
	CoordinatorName  string
	CoordinatorEmail string
	CoordinatorPhone string
	GoalAmount       float64
	SuggestedAmount  float64
	StartDate        time.Time
	EndDate          time.Time
	ImageURL         string
}

// LifecycleService owns the fundraiser/campaign state machine. It validates
// transitions against the model transition table and leaves the guarded
// write to the store, so a stale concurrent transition fails instead of
// silently applying.
type LifecycleService struct {
	store    store.Store
	split    float64
	notifier Notifier
}

func NewLifecycleService(st store.Store, split float64, n Notifier) *LifecycleService {
	return &LifecycleService{store: st, split: split, notifier: n}
}

// Submit validates a draft and creates the fundraiser in PENDING.
func (s *LifecycleService) Submit(ctx context.Context, actor Actor, draft FundraiserDraft) (*models.Fundraiser, error) {
	if strings.TrimSpace(draft.EventName) == "" {
		return nil, &ValidationError{Field: "event_name", Message: "event name is required"}
	}
	if strings.TrimSpace(draft.CoordinatorName) == "" {
		return nil, &ValidationError{Field: "coordinator_name", Message: "coordinator name is required"}
	}
	if !emailPattern.MatchString(draft.CoordinatorEmail) {
		return nil, &ValidationError{Field: "coordinator_email", Message: "a valid coordinator email is required"}
	}
	if strings.TrimSpace(draft.CoordinatorPhone) == "" {
		return nil, &ValidationError{Field: "coordinator_phone", Message: "coordinator phone is required"}
	}
	if draft.GoalAmount <= 0 {
		return nil, &ValidationError{Field: "goal_amount", Message: "goal amount must be greater than 0"}
	}
	if draft.SuggestedAmount < 0 {
		return nil, &ValidationError{Field: "suggested_amount", Message: "suggested amount cannot be negative"}
	}
	if draft.StartDate.After(draft.EndDate) {
		return nil, &ValidationError{Field: "start_date", Message: "start date must not be after end date"}
	}

	now := time.Now()
	f := &models.Fundraiser{
		ID:               primitive.NewObjectID(),
		BranchID:         actor.BranchID,
		EventName:        draft.EventName,
		Purpose:          draft.Purpose,
		Reason:           draft.Reason,
		BudgetBreakdown:  draft.BudgetBreakdown,
		CoordinatorName:  draft.CoordinatorName,
		CoordinatorEmail: draft.CoordinatorEmail,
		CoordinatorPhone: draft.CoordinatorPhone,
		GoalAmount:       draft.GoalAmount,
		SuggestedAmount:  draft.SuggestedAmount,
		StartDate:        draft.StartDate,
		EndDate:          draft.EndDate,
		ImageURL:         draft.ImageURL,
		Status:           models.FundraiserPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.InsertFundraiser(ctx, f); err != nil {
		return nil, err
	}
	logger.Infof("fundraiser %s submitted by branch %s", f.ID.Hex(), actor.BranchID.Hex())
	return f, nil
}

// Approve moves a PENDING fundraiser to APPROVED and opens its campaign.
func (s *LifecycleService) Approve(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Campaign, error) {
	f, err := s.store.GetFundraiser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !f.Status.CanTransition(models.FundraiserApproved) {
		return nil, &InvalidTransitionError{EntityID: id.Hex(), Op: "approve", Current: string(f.Status)}
	}

	campaign, err := s.store.ApproveFundraiser(ctx, id, s.split)
	if err != nil {
		return nil, s.mapGuardError(ctx, err, id, "approve")
	}
	logger.Infof("fundraiser %s approved by %s, campaign %s active", id.Hex(), actor.UserID.Hex(), campaign.ID.Hex())
	s.notify(ctx, id)
	return campaign, nil
}

// Reject is terminal and requires a non-blank reason.
func (s *LifecycleService) Reject(ctx context.Context, actor Actor, id primitive.ObjectID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return &ValidationError{Field: "reason", Message: "a reason is required to reject"}
	}
	f, err := s.store.GetFundraiser(ctx, id)
	if err != nil {
		return err
	}
	if !f.Status.CanTransition(models.FundraiserRejected) {
		return &InvalidTransitionError{EntityID: id.Hex(), Op: "reject", Current: string(f.Status)}
	}
	if err := s.store.RejectFundraiser(ctx, id, reason); err != nil {
		return s.mapGuardError(ctx, err, id, "reject")
	}
	logger.Infof("fundraiser %s rejected by %s: %s", id.Hex(), actor.UserID.Hex(), reason)
	s.notify(ctx, id)
	return nil
}

// Complete closes an active campaign; the reason is optional.
func (s *LifecycleService) Complete(ctx context.Context, actor Actor, id primitive.ObjectID, reason string) error {
	f, err := s.store.GetFundraiser(ctx, id)
	if err != nil {
		return err
	}
	if !f.Status.CanTransition(models.FundraiserCompleted) {
		return &InvalidTransitionError{EntityID: id.Hex(), Op: "complete", Current: string(f.Status)}
	}
	if err := s.store.CompleteFundraiser(ctx, id, reason); err != nil {
		return s.mapGuardError(ctx, err, id, "complete")
	}
	logger.Infof("fundraiser %s completed by %s", id.Hex(), actor.UserID.Hex())
	s.notify(ctx, id)
	return nil
}

// Cancel closes an active campaign and requires a non-blank reason. The
// ledger is frozen as-is; completed contributions are never reversed.
func (s *LifecycleService) Cancel(ctx context.Context, actor Actor, id primitive.ObjectID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return &ValidationError{Field: "reason", Message: "a reason is required to cancel"}
	}
	f, err := s.store.GetFundraiser(ctx, id)
	if err != nil {
		return err
	}
	if !f.Status.CanTransition(models.FundraiserCancelled) {
		return &InvalidTransitionError{EntityID: id.Hex(), Op: "cancel", Current: string(f.Status)}
	}
	if err := s.store.CancelFundraiser(ctx, id, reason); err != nil {
		return s.mapGuardError(ctx, err, id, "cancel")
	}
	logger.Infof("fundraiser %s cancelled by %s: %s", id.Hex(), actor.UserID.Hex(), reason)
	s.notify(ctx, id)
	return nil
}

// Archive soft-deletes a fundraiser. Hard deletion does not exist once
// contributions may reference it.
func (s *LifecycleService) Archive(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if err := s.store.ArchiveFundraiser(ctx, id); err != nil {
		return err
	}
	logger.Infof("fundraiser %s archived by %s", id.Hex(), actor.UserID.Hex())
	return nil
}

// mapGuardError turns a store-level stale-status failure into an
// InvalidTransitionError naming the status the entity actually holds.
func (s *LifecycleService) mapGuardError(ctx context.Context, err error, id primitive.ObjectID, op string) error {
	if !errors.Is(err, store.ErrStaleStatus) {
		return err
	}
	current := "UNKNOWN"
	if f, gerr := s.store.GetFundraiser(ctx, id); gerr == nil {
		current = string(f.Status)
	}
	return &InvalidTransitionError{EntityID: id.Hex(), Op: op, Current: current}
}

func (s *LifecycleService) notify(ctx context.Context, id primitive.ObjectID) {
	if s.notifier == nil {
		return
	}
	f, err := s.store.GetFundraiser(ctx, id)
	if err != nil {
		logger.Errorf("notify: could not load fundraiser %s: %v", id.Hex(), err)
		return
	}
	go func() {
		if err := s.notifier.StatusChanged(f); err != nil {
			logger.Errorf("notify: status change notice for fundraiser %s failed: %v", f.ID.Hex(), err)
		}
	}()
}
