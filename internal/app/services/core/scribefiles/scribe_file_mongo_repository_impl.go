package scribefiles

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

type ScribeFileMongoRepository struct {
	Collection *mongo.Collection
}

func NewScribeFileMongoRepository(db *mongo.Client, dbName string) contracts.ScribeFileRepository {
	return &ScribeFileMongoRepository{
		Collection: db.Database(dbName).Collection(constvars.MongoCollectionScribeFiles),
	}
}

func (repo *ScribeFileMongoRepository) FindByID(ctx context.Context, fileID string) (*models.ScribeFile, error) {
	var file models.ScribeFile
	err := repo.Collection.FindOne(ctx, bson.M{"_id": fileID}).Decode(&file)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &file, nil
}

func (repo *ScribeFileMongoRepository) ListByAssociating(ctx context.Context, associatingID string, kind models.ScribeFileKind) ([]models.ScribeFile, error) {
	filter := bson.M{
		"associatingId": associatingID,
		"kind":          kind,
		"uploadDone":    true,
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := repo.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	var files []models.ScribeFile
	if err := cursor.All(ctx, &files); err != nil {
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return files, nil
}
