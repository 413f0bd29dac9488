package quotas

import (
	"context"

	"scribe-service/internal/app/contracts"
	"scribe-service/internal/app/models"
	"scribe-service/internal/pkg/constvars"
	"scribe-service/internal/pkg/exceptions"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type QuotaMongoRepository struct {
	Collection *mongo.Collection
}

func NewQuotaMongoRepository(db *mongo.Client, dbName string) contracts.QuotaRepository {
	return &QuotaMongoRepository{
		Collection: db.Database(dbName).Collection(constvars.MongoCollectionScribeQuotas),
	}
}

func (repo *QuotaMongoRepository) FindFacilityDefault(ctx context.Context, facilityID string) (*models.ScribeQuota, error) {
	filter := bson.M{
		"facilityId": facilityID,
		"userId":     bson.M{"$in": bson.A{nil, ""}},
	}
	var quota models.ScribeQuota
	err := repo.Collection.FindOne(ctx, filter).Decode(&quota)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &quota, nil
}

func (repo *QuotaMongoRepository) FindByUserAndFacility(ctx context.Context, userID, facilityID string) (*models.ScribeQuota, error) {
	var quota models.ScribeQuota
	err := repo.Collection.FindOne(ctx, bson.M{"userId": userID, "facilityId": facilityID}).Decode(&quota)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &quota, nil
}

func (repo *QuotaMongoRepository) Save(ctx context.Context, quota *models.ScribeQuota) error {
	opts := options.Replace().SetUpsert(true)
	_, err := repo.Collection.ReplaceOne(ctx, bson.M{"_id": quota.ID}, quota, opts)
	if err != nil {
		return exceptions.ErrMongoDBUpdateDocument(err)
	}
	return nil
}
