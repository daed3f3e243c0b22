package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/orphanage-fund-go/models"
	services "github.com/phillip/orphanage-fund-go/services"
	store "github.com/phillip/orphanage-fund-go/store"
)

type confirmFunc func(ctx context.Context, c *models.Contribution) error

func (f confirmFunc) Confirm(ctx context.Context, c *models.Contribution) error {
	return f(ctx, c)
}

// publicRouter wires only the public donation surface against an in-memory
// store with an already-active campaign.
func publicRouter(t *testing.T, confirm confirmFunc) (*gin.Engine, *store.Memory, *services.LifecycleService, *models.Fundraiser, *models.Campaign) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemory()
	lifecycle := services.NewLifecycleService(st, 0.20, nil)
	ledger := services.NewLedgerService(st, confirm, 15*time.Minute)

	ctx := context.Background()
	actor := services.Actor{
		UserID:   primitive.NewObjectID(),
		BranchID: primitive.NewObjectID(),
		Role:     "admin",
	}
	f, err := lifecycle.Submit(ctx, actor, services.FundraiserDraft{
		EventName:        "Winter Clothing Drive",
		CoordinatorName:  "Jane Doe",
		CoordinatorEmail: "jane@example.org",
		CoordinatorPhone: "+254700000000",
		GoalAmount:       1000000,
		StartDate:        time.Now(),
		EndDate:          time.Now().Add(14 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	campaign, err := lifecycle.Approve(ctx, actor, f.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	r := gin.New()
	r.GET("/campaigns/:id", GetCampaign(ledger))
	r.POST("/campaigns/:id/contribute", CreateContribution(ledger))
	r.POST("/contributions/:id/confirm", ConfirmContribution(ledger))
	return r, st, lifecycle, f, campaign
}

func TestCreateContribution(t *testing.T) {
	confirmOK := confirmFunc(func(context.Context, *models.Contribution) error { return nil })

	t.Run("successful contribution returns the updated rollup", func(t *testing.T) {
		r, _, _, _, campaign := publicRouter(t, confirmOK)

		body := `{"email":"donor@example.org","amount":250000,"payment_method":"MPESA","account_number":"0700123456"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/campaigns/"+campaign.ID.Hex()+"/contribute", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var resp struct {
			Status string `json:"status"`
			Rollup struct {
				RaisedAmount    float64 `json:"raised_amount"`
				AmountRemaining float64 `json:"amount_remaining"`
				Contributors    int64   `json:"contributors"`
			} `json:"rollup"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response: %v", err)
		}
		if resp.Status != string(models.ContributionCompleted) {
			t.Errorf("expected COMPLETED, got %s", resp.Status)
		}
		if resp.Rollup.RaisedAmount != 250000 || resp.Rollup.AmountRemaining != 750000 || resp.Rollup.Contributors != 1 {
			t.Errorf("unexpected rollup: %+v", resp.Rollup)
		}
	})

	t.Run("non-positive amount is a 400", func(t *testing.T) {
		r, _, _, _, campaign := publicRouter(t, confirmOK)

		body := `{"email":"donor@example.org","amount":-5,"payment_method":"MPESA"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/campaigns/"+campaign.ID.Hex()+"/contribute", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("cancelled campaign is a 409", func(t *testing.T) {
		r, _, lifecycle, f, campaign := publicRouter(t, confirmOK)
		actor := services.Actor{UserID: primitive.NewObjectID(), Role: "admin"}
		if err := lifecycle.Cancel(context.Background(), actor, f.ID, "called off"); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}

		body := `{"email":"donor@example.org","amount":100,"payment_method":"MPESA"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/campaigns/"+campaign.ID.Hex()+"/contribute", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("declined payment is a 402 with a retry-safe message", func(t *testing.T) {
		declined := confirmFunc(func(context.Context, *models.Contribution) error {
			return errors.New("insufficient funds")
		})
		r, _, _, _, campaign := publicRouter(t, declined)

		body := `{"email":"donor@example.org","amount":100,"payment_method":"CARD"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/campaigns/"+campaign.ID.Hex()+"/contribute", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusPaymentRequired {
			t.Fatalf("expected 402, got %d: %s", w.Code, w.Body.String())
		}
		if strings.Contains(w.Body.String(), "insufficient funds") {
			t.Error("provider detail must not leak to the donor")
		}
	})
}

func TestConfirmContribution(t *testing.T) {
	confirmOK := confirmFunc(func(context.Context, *models.Contribution) error { return nil })
	r, st, _, _, campaign := publicRouter(t, confirmOK)
	ctx := context.Background()

	ctn := &models.Contribution{
		CampaignID:       campaign.ID,
		ContributorEmail: "donor@example.org",
		Amount:           40000,
		Method:           models.MethodBank,
		Status:           models.ContributionPending,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := st.InsertContribution(ctx, ctn); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/contributions/"+ctn.ID.Hex()+"/confirm", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Status string `json:"status"`
		Rollup struct {
			RaisedAmount float64 `json:"raised_amount"`
			Contributors int64   `json:"contributors"`
		} `json:"rollup"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Status != string(models.ContributionCompleted) {
		t.Errorf("expected COMPLETED, got %s", resp.Status)
	}
	if resp.Rollup.RaisedAmount != 40000 || resp.Rollup.Contributors != 1 {
		t.Errorf("unexpected rollup: %+v", resp.Rollup)
	}

	// replaying the callback must not count the money twice
	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/contributions/"+ctn.ID.Hex()+"/confirm", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on replay, got %d: %s", w.Code, w.Body.String())
	}
	updated, _ := st.GetCampaign(ctx, campaign.ID)
	if updated.RaisedAmount != 40000 || updated.ContributorCount != 1 {
		t.Errorf("expected single fold, got raised %v contributors %d",
			updated.RaisedAmount, updated.ContributorCount)
	}
}

func TestGetCampaign(t *testing.T) {
	confirmOK := confirmFunc(func(context.Context, *models.Contribution) error { return nil })
	r, _, _, _, campaign := publicRouter(t, confirmOK)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/campaigns/"+campaign.ID.Hex(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag header")
	}

	// conditional re-read short-circuits
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/campaigns/"+campaign.ID.Hex(), nil)
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}
}
