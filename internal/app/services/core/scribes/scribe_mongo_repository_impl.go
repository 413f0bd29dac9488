package scribes

import (
	"context"
	"time"

	"scribe-service/internal/app/contracts"
	"scribe-service/internal/app/models"
	"scribe-service/internal/pkg/constvars"
	"scribe-service/internal/pkg/exceptions"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ScribeMongoRepository struct {
	Collection *mongo.Collection
}

func NewScribeMongoRepository(db *mongo.Client, dbName string) contracts.ScribeRepository {
	return &ScribeMongoRepository{
		Collection: db.Database(dbName).Collection(constvars.MongoCollectionScribes),
	}
}

func (repo *ScribeMongoRepository) Create(ctx context.Context, scribe *models.Scribe) error {
	now := time.Now()
	scribe.CreatedAt = now
	scribe.UpdatedAt = now
	_, err := repo.Collection.InsertOne(ctx, scribe)
	if err != nil {
		return exceptions.ErrMongoDBInsertDocument(err)
	}
	return nil
}

func (repo *ScribeMongoRepository) FindByID(ctx context.Context, scribeID string) (*models.Scribe, error) {
	var scribe models.Scribe
	err := repo.Collection.FindOne(ctx, bson.M{"_id": scribeID}).Decode(&scribe)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &scribe, nil
}

func (repo *ScribeMongoRepository) Save(ctx context.Context, scribe *models.Scribe) error {
	scribe.UpdatedAt = time.Now()
	_, err := repo.Collection.ReplaceOne(ctx, bson.M{"_id": scribe.ID}, scribe)
	if err != nil {
		return exceptions.ErrMongoDBUpdateDocument(err)
	}
	return nil
}

// UpdateStatusIf is the optimistic entry lock: the transition only lands when
// the stored status still equals expected, so two workers racing over the
// same scribe cannot both proceed.
func (repo *ScribeMongoRepository) UpdateStatusIf(ctx context.Context, scribeID string, expected, next models.ScribeStatus) (bool, error) {
	filter := bson.M{"_id": scribeID, "status": expected}
	update := bson.M{"$set": bson.M{"status": next, "updatedAt": time.Now()}}
	result, err := repo.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, exceptions.ErrMongoDBUpdateDocument(err)
	}
	return result.ModifiedCount > 0, nil
}

func (repo *ScribeMongoRepository) ListByFacilityAndRange(ctx context.Context, facilityID, userID string, from, to time.Time) ([]models.Scribe, error) {
	filter := bson.M{
		"facilityId": facilityID,
		"createdAt":  bson.M{"$gte": from, "$lte": to},
	}
	if userID != "" {
		filter["requestedBy"] = userID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := repo.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	var scribes []models.Scribe
	if err := cursor.All(ctx, &scribes); err != nil {
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return scribes, nil
}
