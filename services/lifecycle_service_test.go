package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/orphanage-fund-go/models"
	store "github.com/phillip/orphanage-fund-go/store"
)

func testActor() Actor {
	return Actor{
		UserID:   primitive.NewObjectID(),
		BranchID: primitive.NewObjectID(),
		Role:     "admin",
	}
}

func validDraft() FundraiserDraft {
	return FundraiserDraft{
		EventName:        "School Supplies Drive",
		Purpose:          "Buy books and uniforms",
		Reason:           "New school year",
		CoordinatorName:  "Jane Doe",
		CoordinatorEmail: "jane@example.org",
		CoordinatorPhone: "+254700000000",
		GoalAmount:       1000000,
		SuggestedAmount:  5000,
		StartDate:        time.Now(),
		EndDate:          time.Now().Add(30 * 24 * time.Hour),
	}
}

func newLifecycle() (*LifecycleService, *store.Memory) {
	st := store.NewMemory()
	return NewLifecycleService(st, 0.20, nil), st
}

func TestLifecycleService_Submit(t *testing.T) {
	svc, _ := newLifecycle()
	ctx := context.Background()
	actor := testActor()

	t.Run("valid draft creates pending fundraiser", func(t *testing.T) {
		f, err := svc.Submit(ctx, actor, validDraft())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if f.Status != models.FundraiserPending {
			t.Errorf("expected PENDING, got %s", f.Status)
		}
		if f.BranchID != actor.BranchID {
			t.Error("expected fundraiser to carry the submitting branch")
		}
	})

	t.Run("rejects non-positive goal", func(t *testing.T) {
		draft := validDraft()
		draft.GoalAmount = 0
		_, err := svc.Submit(ctx, actor, draft)
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Field != "goal_amount" {
			t.Fatalf("expected ValidationError on goal_amount, got %v", err)
		}
	})

	t.Run("rejects start date after end date", func(t *testing.T) {
		draft := validDraft()
		draft.StartDate = draft.EndDate.Add(time.Hour)
		_, err := svc.Submit(ctx, actor, draft)
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Field != "start_date" {
			t.Fatalf("expected ValidationError on start_date, got %v", err)
		}
	})

	t.Run("rejects blank contact fields", func(t *testing.T) {
		draft := validDraft()
		draft.CoordinatorName = "   "
		if _, err := svc.Submit(ctx, actor, draft); err == nil {
			t.Fatal("expected error for blank coordinator name")
		}

		draft = validDraft()
		draft.CoordinatorEmail = "not-an-email"
		if _, err := svc.Submit(ctx, actor, draft); err == nil {
			t.Fatal("expected error for invalid coordinator email")
		}
	})
}

func TestLifecycleService_Approve(t *testing.T) {
	svc, _ := newLifecycle()
	ctx := context.Background()
	actor := testActor()

	f, err := svc.Submit(ctx, actor, validDraft())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	t.Run("approve from pending opens an active campaign", func(t *testing.T) {
		campaign, err := svc.Approve(ctx, actor, f.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if campaign.Status != models.CampaignActive {
			t.Errorf("expected ACTIVE campaign, got %s", campaign.Status)
		}
		if campaign.RaisedAmount != 0 || campaign.ContributorCount != 0 {
			t.Error("expected fresh campaign rollup to be zero")
		}
		if campaign.OrphanageSplit != 0.20 {
			t.Errorf("expected split frozen at 0.20, got %v", campaign.OrphanageSplit)
		}
	})

	t.Run("second approve fails with InvalidTransitionError", func(t *testing.T) {
		_, err := svc.Approve(ctx, actor, f.ID)
		var tErr *InvalidTransitionError
		if !errors.As(err, &tErr) {
			t.Fatalf("expected InvalidTransitionError, got %v", err)
		}
		if tErr.Current != string(models.FundraiserApproved) {
			t.Errorf("expected error to name current status APPROVED, got %s", tErr.Current)
		}
	})

	t.Run("approve unknown fundraiser is not found", func(t *testing.T) {
		_, err := svc.Approve(ctx, actor, primitive.NewObjectID())
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestLifecycleService_Reject(t *testing.T) {
	svc, _ := newLifecycle()
	ctx := context.Background()
	actor := testActor()

	f, _ := svc.Submit(ctx, actor, validDraft())

	t.Run("blank reason is a validation error", func(t *testing.T) {
		err := svc.Reject(ctx, actor, f.ID, "   ")
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Field != "reason" {
			t.Fatalf("expected ValidationError on reason, got %v", err)
		}
	})

	t.Run("reject with reason is terminal and creates no campaign", func(t *testing.T) {
		if err := svc.Reject(ctx, actor, f.ID, "budget not justified"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got, _ := svc.store.GetFundraiser(ctx, f.ID)
		if got.Status != models.FundraiserRejected {
			t.Errorf("expected REJECTED, got %s", got.Status)
		}
		if got.StatusReason != "budget not justified" {
			t.Errorf("expected reason recorded, got %q", got.StatusReason)
		}
		if _, err := svc.store.GetCampaignByFundraiser(ctx, f.ID); !errors.Is(err, store.ErrNotFound) {
			t.Error("expected no campaign for a rejected fundraiser")
		}
	})

	t.Run("no transition out of rejected", func(t *testing.T) {
		if _, err := svc.Approve(ctx, actor, f.ID); err == nil {
			t.Fatal("expected approve after reject to fail")
		}
		if err := svc.Cancel(ctx, actor, f.ID, "x"); err == nil {
			t.Fatal("expected cancel after reject to fail")
		}
	})
}

func TestLifecycleService_CompleteAndCancel(t *testing.T) {
	ctx := context.Background()
	actor := testActor()

	t.Run("complete with optional reason", func(t *testing.T) {
		svc, _ := newLifecycle()
		f, _ := svc.Submit(ctx, actor, validDraft())
		if _, err := svc.Approve(ctx, actor, f.ID); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		if err := svc.Complete(ctx, actor, f.ID, ""); err != nil {
			t.Fatalf("expected complete without reason to succeed, got %v", err)
		}
		campaign, _ := svc.store.GetCampaignByFundraiser(ctx, f.ID)
		if campaign.Status != models.CampaignCompleted {
			t.Errorf("expected campaign COMPLETED, got %s", campaign.Status)
		}
	})

	t.Run("cancel requires a reason and leaves the campaign active on failure", func(t *testing.T) {
		svc, _ := newLifecycle()
		f, _ := svc.Submit(ctx, actor, validDraft())
		if _, err := svc.Approve(ctx, actor, f.ID); err != nil {
			t.Fatalf("approve failed: %v", err)
		}

		err := svc.Cancel(ctx, actor, f.ID, "")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		campaign, _ := svc.store.GetCampaignByFundraiser(ctx, f.ID)
		if campaign.Status != models.CampaignActive {
			t.Errorf("expected campaign still ACTIVE after failed cancel, got %s", campaign.Status)
		}

		if err := svc.Cancel(ctx, actor, f.ID, "venue unavailable"); err != nil {
			t.Fatalf("expected cancel with reason to succeed, got %v", err)
		}
		campaign, _ = svc.store.GetCampaignByFundraiser(ctx, f.ID)
		if campaign.Status != models.CampaignCancelled {
			t.Errorf("expected campaign CANCELLED, got %s", campaign.Status)
		}
		if campaign.StatusReason != "venue unavailable" {
			t.Errorf("expected reason on campaign, got %q", campaign.StatusReason)
		}
	})

	t.Run("complete from pending is invalid", func(t *testing.T) {
		svc, _ := newLifecycle()
		f, _ := svc.Submit(ctx, actor, validDraft())
		err := svc.Complete(ctx, actor, f.ID, "done")
		var tErr *InvalidTransitionError
		if !errors.As(err, &tErr) {
			t.Fatalf("expected InvalidTransitionError, got %v", err)
		}
		if tErr.Op != "complete" || tErr.Current != string(models.FundraiserPending) {
			t.Errorf("expected error naming op and status, got %+v", tErr)
		}
	})
}

func TestLifecycleService_ConcurrentTransitions(t *testing.T) {
	svc, st := newLifecycle()
	ctx := context.Background()
	actor := testActor()

	f, _ := svc.Submit(ctx, actor, validDraft())
	if _, err := svc.Approve(ctx, actor, f.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// simulate a stale caller: status moved after their read
	if err := svc.Complete(ctx, actor, f.ID, ""); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	err := st.CancelFundraiser(ctx, f.ID, "too late")
	if !errors.Is(err, store.ErrStaleStatus) {
		t.Fatalf("expected ErrStaleStatus for stale cancel, got %v", err)
	}

	got, _ := st.GetFundraiser(ctx, f.ID)
	if got.Status != models.FundraiserCompleted {
		t.Errorf("expected first valid transition to win, got %s", got.Status)
	}
}
