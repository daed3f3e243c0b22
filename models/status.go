package models

// FundraiserStatus is the lifecycle label of a fundraising proposal.
type FundraiserStatus string

const (
	FundraiserPending   FundraiserStatus = "PENDING"
	FundraiserApproved  FundraiserStatus = "APPROVED"
	FundraiserRejected  FundraiserStatus = "REJECTED"
	FundraiserCompleted FundraiserStatus = "COMPLETED"
	FundraiserCancelled FundraiserStatus = "CANCELLED"
)

// fundraiserTransitions is the full transition table; anything not listed
// here is an invalid transition.
var fundraiserTransitions = map[FundraiserStatus]map[FundraiserStatus]bool{
	FundraiserPending: {
		FundraiserApproved: true,
		FundraiserRejected: true,
	},
	FundraiserApproved: {
		FundraiserCompleted: true,
		FundraiserCancelled: true,
	},
}

// CanTransition reports whether moving to the target status is permitted.
func (s FundraiserStatus) CanTransition(to FundraiserStatus) bool {
	return fundraiserTransitions[s][to]
}

// Terminal reports whether no further transition is permitted.
func (s FundraiserStatus) Terminal() bool {
	return len(fundraiserTransitions[s]) == 0
}

// CampaignStatus mirrors the post-approval states of the fundraiser.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "ACTIVE"
	CampaignCompleted CampaignStatus = "COMPLETED"
	CampaignCancelled CampaignStatus = "CANCELLED"
)

var campaignTransitions = map[CampaignStatus]map[CampaignStatus]bool{
	CampaignActive: {
		CampaignCompleted: true,
		CampaignCancelled: true,
	},
}

func (s CampaignStatus) CanTransition(to CampaignStatus) bool {
	return campaignTransitions[s][to]
}

func (s CampaignStatus) Terminal() bool {
	return len(campaignTransitions[s]) == 0
}

// ContributionStatus tracks a single donation through payment confirmation.
type ContributionStatus string

const (
	ContributionPending   ContributionStatus = "PENDING"
	ContributionCompleted ContributionStatus = "COMPLETED"
	ContributionFailed    ContributionStatus = "FAILED"
)

// PaymentMethod is the closed set of accepted payment channels.
type PaymentMethod string

const (
	MethodMpesa PaymentMethod = "MPESA"
	MethodCard  PaymentMethod = "CARD"
	MethodBank  PaymentMethod = "BANK"
	MethodCash  PaymentMethod = "CASH"
)

var paymentMethods = map[PaymentMethod]bool{
	MethodMpesa: true,
	MethodCard:  true,
	MethodBank:  true,
	MethodCash:  true,
}

// ValidMethod reports whether m is one of the accepted payment channels.
func ValidMethod(m PaymentMethod) bool {
	return paymentMethods[m]
}
