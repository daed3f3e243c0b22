package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/orphanage-fund-go/models"
)

// Mongo persists the fundraising core in three collections. Two-document
// steps (approval, close, fold) run inside a session transaction so a status
// change and its paired write commit or abort together.
type Mongo struct {
	client *mongo.Client
	dbName string
}

func NewMongo(client *mongo.Client, dbName string) *Mongo {
	return &Mongo{client: client, dbName: dbName}
}

func (s *Mongo) fundraisers() *mongo.Collection {
	return s.client.Database(s.dbName).Collection("fundraisers")
}

func (s *Mongo) campaigns() *mongo.Collection {
	return s.client.Database(s.dbName).Collection("campaigns")
}

func (s *Mongo) contributions() *mongo.Collection {
	return s.client.Database(s.dbName).Collection("contributions")
}

func (s *Mongo) InsertFundraiser(ctx context.Context, f *models.Fundraiser) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	_, err := s.fundraisers().InsertOne(ctx, f)
	return err
}

func (s *Mongo) GetFundraiser(ctx context.Context, id primitive.ObjectID) (*models.Fundraiser, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var f models.Fundraiser
	err := s.fundraisers().FindOne(ctx, bson.M{"_id": id}).Decode(&f)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Mongo) ListFundraisers(ctx context.Context, filter FundraiserFilter) ([]models.Fundraiser, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	q := bson.M{"archived": false}
	if filter.BranchID != nil {
		q["branch_id"] = *filter.BranchID
	}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	if filter.Query != "" {
		q["event_name"] = bson.M{"$regex": filter.Query, "$options": "i"}
	}

	cursor, err := s.fundraisers().Find(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]models.Fundraiser, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Mongo) ArchiveFundraiser(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.fundraisers().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"archived": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) ApproveFundraiser(ctx context.Context, id primitive.ObjectID, split float64) (*models.Campaign, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	session, err := s.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now()
		res, err := s.fundraisers().UpdateOne(sc,
			bson.M{"_id": id, "status": models.FundraiserPending},
			bson.M{"$set": bson.M{"status": models.FundraiserApproved, "updated_at": now}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, s.fundraiserGuardError(sc, id)
		}

		campaign := &models.Campaign{
			ID:             primitive.NewObjectID(),
			FundraiserID:   id,
			Status:         models.CampaignActive,
			OrphanageSplit: split,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if _, err := s.campaigns().InsertOne(sc, campaign); err != nil {
			return nil, err
		}
		return campaign, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Campaign), nil
}

func (s *Mongo) RejectFundraiser(ctx context.Context, id primitive.ObjectID, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.fundraisers().UpdateOne(ctx,
		bson.M{"_id": id, "status": models.FundraiserPending},
		bson.M{"$set": bson.M{
			"status":        models.FundraiserRejected,
			"status_reason": reason,
			"updated_at":    time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.fundraiserGuardError(ctx, id)
	}
	return nil
}

func (s *Mongo) CompleteFundraiser(ctx context.Context, id primitive.ObjectID, reason string) error {
	return s.closeFundraiser(ctx, id, models.FundraiserCompleted, models.CampaignCompleted, reason)
}

func (s *Mongo) CancelFundraiser(ctx context.Context, id primitive.ObjectID, reason string) error {
	return s.closeFundraiser(ctx, id, models.FundraiserCancelled, models.CampaignCancelled, reason)
}

func (s *Mongo) closeFundraiser(ctx context.Context, id primitive.ObjectID, to models.FundraiserStatus, campaignTo models.CampaignStatus, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now()
		res, err := s.fundraisers().UpdateOne(sc,
			bson.M{"_id": id, "status": models.FundraiserApproved},
			bson.M{"$set": bson.M{"status": to, "status_reason": reason, "updated_at": now}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, s.fundraiserGuardError(sc, id)
		}

		_, err = s.campaigns().UpdateOne(sc,
			bson.M{"fundraiser_id": id, "status": models.CampaignActive},
			bson.M{"$set": bson.M{"status": campaignTo, "status_reason": reason, "updated_at": now}},
		)
		return nil, err
	})
	return err
}

// fundraiserGuardError distinguishes a missing fundraiser from one whose
// status moved under a guarded update.
func (s *Mongo) fundraiserGuardError(ctx context.Context, id primitive.ObjectID) error {
	err := s.fundraisers().FindOne(ctx, bson.M{"_id": id}).Err()
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrStaleStatus
}

func (s *Mongo) GetCampaign(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c models.Campaign
	err := s.campaigns().FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Mongo) GetCampaignByFundraiser(ctx context.Context, fundraiserID primitive.ObjectID) (*models.Campaign, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c models.Campaign
	err := s.campaigns().FindOne(ctx, bson.M{"fundraiser_id": fundraiserID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Mongo) ListCampaigns(ctx context.Context, filter CampaignFilter) ([]models.Campaign, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	q := bson.M{}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	cursor, err := s.campaigns().Find(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]models.Campaign, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Mongo) InsertContribution(ctx context.Context, c *models.Contribution) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := s.contributions().InsertOne(ctx, c)
	return err
}

func (s *Mongo) GetContribution(ctx context.Context, id primitive.ObjectID) (*models.Contribution, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c models.Contribution
	err := s.contributions().FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Mongo) ListContributions(ctx context.Context, filter ContributionFilter) ([]models.Contribution, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	q := bson.M{}
	if filter.CampaignID != nil {
		q["campaign_id"] = *filter.CampaignID
	}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	cursor, err := s.contributions().Find(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]models.Contribution, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Mongo) FoldContribution(ctx context.Context, contributionID, campaignID primitive.ObjectID, amount, share float64) (*models.Campaign, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	session, err := s.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now()

		// apply-once guard keyed on the contribution id
		res, err := s.contributions().UpdateOne(sc,
			bson.M{"_id": contributionID, "status": models.ContributionPending},
			bson.M{"$set": bson.M{"status": models.ContributionCompleted, "updated_at": now}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			var ctn models.Contribution
			err := s.contributions().FindOne(sc, bson.M{"_id": contributionID}).Decode(&ctn)
			if err == mongo.ErrNoDocuments {
				return nil, ErrNotFound
			}
			if err != nil {
				return nil, err
			}
			if ctn.Status == models.ContributionCompleted {
				return nil, ErrAlreadyFolded
			}
			return nil, ErrContributionNotPending
		}

		after := options.After
		var campaign models.Campaign
		err = s.campaigns().FindOneAndUpdate(sc,
			bson.M{"_id": campaignID, "status": models.CampaignActive},
			bson.M{
				"$inc": bson.M{
					"raised_amount":     amount,
					"contributor_count": 1,
					"orphanage_amount":  share,
					"event_amount":      amount - share,
				},
				"$set": bson.M{"updated_at": now},
			},
			options.FindOneAndUpdate().SetReturnDocument(after),
		).Decode(&campaign)
		if err == mongo.ErrNoDocuments {
			// aborting the transaction restores the contribution status
			if e := s.campaigns().FindOne(sc, bson.M{"_id": campaignID}).Err(); e == mongo.ErrNoDocuments {
				return nil, ErrNotFound
			}
			return nil, ErrCampaignNotActive
		}
		if err != nil {
			return nil, err
		}
		return &campaign, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Campaign), nil
}

func (s *Mongo) FailContribution(ctx context.Context, id primitive.ObjectID, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.contributions().UpdateOne(ctx,
		bson.M{"_id": id, "status": models.ContributionPending},
		bson.M{"$set": bson.M{
			"status":         models.ContributionFailed,
			"failure_reason": reason,
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if e := s.contributions().FindOne(ctx, bson.M{"_id": id}).Err(); e == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return ErrContributionNotPending
	}
	return nil
}

func (s *Mongo) ExpirePendingContributions(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := s.contributions().UpdateMany(ctx,
		bson.M{"status": models.ContributionPending, "created_at": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{
			"status":         models.ContributionFailed,
			"failure_reason": "payment confirmation timed out",
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
