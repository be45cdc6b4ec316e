package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/visualcraft/marketplace/internal/core/ports"
)

const (
	collectionMeta = "meta"
	categoriesKey  = "categories"
)

// CategoryRepository stores the category list as a single document so that
// every write replaces the full set atomically.
type CategoryRepository struct {
	col *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{col: db.Collection(collectionMeta)}
}

type categoryDoc struct {
	ID     string   `bson:"_id"`
	Values []string `bson:"values"`
}

func (r *CategoryRepository) Get(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc categoryDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": categoriesKey}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.Values, nil
}

func (r *CategoryRepository) Put(ctx context.Context, categories []string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := categoryDoc{ID: categoriesKey, Values: categories}
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": categoriesKey}, doc, opts)
	return err
}

// Watch delivers the full category list after every change to its document.
func (r *CategoryRepository) Watch(ctx context.Context, onChange func([]string)) (ports.Subscription, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": categoriesKey}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := r.col.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			var ev struct {
				OperationType string       `bson:"operationType"`
				FullDocument  *categoryDoc `bson:"fullDocument"`
			}
			if err := stream.Decode(&ev); err != nil {
				continue
			}
			if ev.OperationType == "delete" {
				onChange(nil)
				continue
			}
			if ev.FullDocument != nil {
				onChange(ev.FullDocument.Values)
			}
		}
	}()

	return ports.SubscriptionFunc(cancel), nil
}
