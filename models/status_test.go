package models

import "testing"

func TestFundraiserTransitions(t *testing.T) {
	cases := []struct {
		from    FundraiserStatus
		to      FundraiserStatus
		allowed bool
	}{
		{FundraiserPending, FundraiserApproved, true},
		{FundraiserPending, FundraiserRejected, true},
		{FundraiserPending, FundraiserCompleted, false},
		{FundraiserPending, FundraiserCancelled, false},
		{FundraiserApproved, FundraiserCompleted, true},
		{FundraiserApproved, FundraiserCancelled, true},
		{FundraiserApproved, FundraiserPending, false},
		{FundraiserApproved, FundraiserRejected, false},
		{FundraiserRejected, FundraiserApproved, false},
		{FundraiserCompleted, FundraiserCancelled, false},
		{FundraiserCancelled, FundraiserApproved, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: expected allowed=%v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []FundraiserStatus{FundraiserRejected, FundraiserCompleted, FundraiserCancelled} {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []FundraiserStatus{FundraiserPending, FundraiserApproved} {
		if s.Terminal() {
			t.Errorf("expected %s not to be terminal", s)
		}
	}

	if !CampaignCompleted.Terminal() || !CampaignCancelled.Terminal() {
		t.Error("expected completed and cancelled campaigns to be terminal")
	}
	if CampaignActive.Terminal() {
		t.Error("expected active campaign not to be terminal")
	}
}

func TestCampaignDerivedFields(t *testing.T) {
	c := &Campaign{RaisedAmount: 800000}

	if got := c.Remaining(1000000); got != 200000 {
		t.Errorf("expected remaining 200000, got %v", got)
	}

	// remaining never goes negative once the goal is exceeded
	c.RaisedAmount = 1100000
	if got := c.Remaining(1000000); got != 0 {
		t.Errorf("expected remaining 0, got %v", got)
	}
	if got := c.Progress(1000000); got != 100 {
		t.Errorf("expected progress capped at 100, got %v", got)
	}

	c.RaisedAmount = 250000
	if got := c.Progress(1000000); got != 25 {
		t.Errorf("expected progress 25, got %v", got)
	}
}

func TestValidMethod(t *testing.T) {
	for _, m := range []PaymentMethod{MethodMpesa, MethodCard, MethodBank, MethodCash} {
		if !ValidMethod(m) {
			t.Errorf("expected %s to be valid", m)
		}
	}
	if ValidMethod(PaymentMethod("BITCOIN")) {
		t.Error("expected unknown method to be invalid")
	}
}
