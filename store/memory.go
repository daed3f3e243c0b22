package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/orphanage-fund-go/models"
)

// Memory is an in-process Store keyed by hex ids. A single mutex guards all
// maps, which makes every guarded transition and fold trivially atomic. Used
// by the service tests; the server runs on Mongo.
type Memory struct {
	mu            sync.RWMutex
	fundraisers   map[string]*models.Fundraiser
	campaigns     map[string]*models.Campaign
	contributions map[string]*models.Contribution
}

func NewMemory() *Memory {
	return &Memory{
		fundraisers:   make(map[string]*models.Fundraiser),
		campaigns:     make(map[string]*models.Campaign),
		contributions: make(map[string]*models.Contribution),
	}
}

func (m *Memory) InsertFundraiser(_ context.Context, f *models.Fundraiser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	cp := *f
	m.fundraisers[f.ID.Hex()] = &cp
	return nil
}

func (m *Memory) GetFundraiser(_ context.Context, id primitive.ObjectID) (*models.Fundraiser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.fundraisers[id.Hex()]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *Memory) ListFundraisers(_ context.Context, filter FundraiserFilter) ([]models.Fundraiser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Fundraiser, 0)
	for _, f := range m.fundraisers {
		if f.Archived {
			continue
		}
		if filter.BranchID != nil && f.BranchID != *filter.BranchID {
			continue
		}
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(f.EventName), strings.ToLower(filter.Query)) {
			continue
		}
		out = append(out, *f)
	}
	return out, nil
}

func (m *Memory) ArchiveFundraiser(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fundraisers[id.Hex()]
	if !ok {
		return ErrNotFound
	}
	f.Archived = true
	f.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) ApproveFundraiser(_ context.Context, id primitive.ObjectID, split float64) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fundraisers[id.Hex()]
	if !ok {
		return nil, ErrNotFound
	}
	if f.Status != models.FundraiserPending {
		return nil, ErrStaleStatus
	}
	now := time.Now()
	f.Status = models.FundraiserApproved
	f.UpdatedAt = now

	campaign := &models.Campaign{
		ID:             primitive.NewObjectID(),
		FundraiserID:   f.ID,
		Status:         models.CampaignActive,
		OrphanageSplit: split,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.campaigns[campaign.ID.Hex()] = campaign
	cp := *campaign
	return &cp, nil
}

func (m *Memory) RejectFundraiser(_ context.Context, id primitive.ObjectID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fundraisers[id.Hex()]
	if !ok {
		return ErrNotFound
	}
	if f.Status != models.FundraiserPending {
		return ErrStaleStatus
	}
	f.Status = models.FundraiserRejected
	f.StatusReason = reason
	f.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) CompleteFundraiser(_ context.Context, id primitive.ObjectID, reason string) error {
	return m.closeFundraiser(id, models.FundraiserCompleted, models.CampaignCompleted, reason)
}

func (m *Memory) CancelFundraiser(_ context.Context, id primitive.ObjectID, reason string) error {
	return m.closeFundraiser(id, models.FundraiserCancelled, models.CampaignCancelled, reason)
}

func (m *Memory) closeFundraiser(id primitive.ObjectID, to models.FundraiserStatus, campaignTo models.CampaignStatus, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fundraisers[id.Hex()]
	if !ok {
		return ErrNotFound
	}
	if f.Status != models.FundraiserApproved {
		return ErrStaleStatus
	}
	now := time.Now()
	f.Status = to
	f.StatusReason = reason
	f.UpdatedAt = now
	for _, c := range m.campaigns {
		if c.FundraiserID == f.ID && c.Status == models.CampaignActive {
			c.Status = campaignTo
			c.StatusReason = reason
			c.UpdatedAt = now
		}
	}
	return nil
}

func (m *Memory) GetCampaign(_ context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.campaigns[id.Hex()]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) GetCampaignByFundraiser(_ context.Context, fundraiserID primitive.ObjectID) (*models.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.campaigns {
		if c.FundraiserID == fundraiserID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListCampaigns(_ context.Context, filter CampaignFilter) ([]models.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Campaign, 0)
	for _, c := range m.campaigns {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *Memory) InsertContribution(_ context.Context, c *models.Contribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	cp := *c
	m.contributions[c.ID.Hex()] = &cp
	return nil
}

func (m *Memory) GetContribution(_ context.Context, id primitive.ObjectID) (*models.Contribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contributions[id.Hex()]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) ListContributions(_ context.Context, filter ContributionFilter) ([]models.Contribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Contribution, 0)
	for _, c := range m.contributions {
		if filter.CampaignID != nil && c.CampaignID != *filter.CampaignID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *Memory) FoldContribution(_ context.Context, contributionID, campaignID primitive.ObjectID, amount, share float64) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctn, ok := m.contributions[contributionID.Hex()]
	if !ok {
		return nil, ErrNotFound
	}
	campaign, ok := m.campaigns[campaignID.Hex()]
	if !ok {
		return nil, ErrNotFound
	}
	if campaign.Status != models.CampaignActive {
		return nil, ErrCampaignNotActive
	}
	if ctn.Status == models.ContributionCompleted {
		return nil, ErrAlreadyFolded
	}
	if ctn.Status != models.ContributionPending {
		return nil, ErrContributionNotPending
	}

	now := time.Now()
	ctn.Status = models.ContributionCompleted
	ctn.UpdatedAt = now

	campaign.RaisedAmount += amount
	campaign.ContributorCount++
	campaign.OrphanageAmount += share
	// keep orphanage + event == raised exact
	campaign.EventAmount = campaign.RaisedAmount - campaign.OrphanageAmount
	campaign.UpdatedAt = now

	cp := *campaign
	return &cp, nil
}

func (m *Memory) FailContribution(_ context.Context, id primitive.ObjectID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contributions[id.Hex()]
	if !ok {
		return ErrNotFound
	}
	if c.Status != models.ContributionPending {
		return ErrContributionNotPending
	}
	c.Status = models.ContributionFailed
	c.FailureReason = reason
	c.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) ExpirePendingContributions(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.contributions {
		if c.Status == models.ContributionPending && c.CreatedAt.Before(cutoff) {
			c.Status = models.ContributionFailed
			c.FailureReason = "payment confirmation timed out"
			c.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}
