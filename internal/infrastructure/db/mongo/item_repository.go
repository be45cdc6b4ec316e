package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/visualcraft/marketplace/internal/core/domain"
	"github.com/visualcraft/marketplace/internal/core/ports"
)

const collectionItems = "items"

// ItemRepository implements ports.ItemRepository on MongoDB. ObjectIDs carry
// a leading big-endian timestamp, so _id order is creation order; the
// property the key-range pagination queries depend on.
type ItemRepository struct {
	col *mongo.Collection
}

func NewItemRepository(db *mongo.Database) *ItemRepository {
	return &ItemRepository{col: db.Collection(collectionItems)}
}

type mongoChangelog struct {
	Version   string `bson:"version"`
	Text      string `bson:"text"`
	Timestamp int64  `bson:"timestamp"`
}

type mongoRating struct {
	UserID    string `bson:"user_id"`
	Username  string `bson:"username"`
	Rating    int    `bson:"rating"`
	Review    string `bson:"review,omitempty"`
	Timestamp int64  `bson:"timestamp"`
}

type mongoItem struct {
	ID              primitive.ObjectID     `bson:"_id,omitempty"`
	Title           string                 `bson:"title"`
	Desc            string                 `bson:"desc"`
	Category        string                 `bson:"cat"`
	Link            string                 `bson:"link"`
	Youtube         string                 `bson:"youtube,omitempty"`
	OriginalCreator string                 `bson:"original_creator,omitempty"`
	Img             string                 `bson:"img"`
	Gallery         []string               `bson:"gallery,omitempty"`
	AuthorID        string                 `bson:"author_id"`
	Author          string                 `bson:"author"`
	Changelog       []mongoChangelog       `bson:"changelog"`
	Ratings         map[string]mongoRating `bson:"ratings,omitempty"`
	Featured        bool                   `bson:"featured"`
}

// Push stores a new item under a freshly minted ObjectID and returns its hex
// form as the item key.
func (r *ItemRepository) Push(ctx context.Context, item *domain.Item) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid := primitive.NewObjectID()
	doc := toMongoItem(item)
	doc.ID = oid
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return oid.Hex(), nil
}

func (r *ItemRepository) Get(ctx context.Context, id string) (*domain.Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrItemNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoItem
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrItemNotFound
		}
		return nil, err
	}
	return fromMongoItem(&doc), nil
}

// Update applies a shallow merge-patch; nil fields stay untouched.
func (r *ItemRepository) Update(ctx context.Context, id string, patch ports.ItemUpdate) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrItemNotFound
	}

	set := bson.M{}
	setString(set, "title", patch.Title)
	setString(set, "desc", patch.Desc)
	setString(set, "cat", patch.Category)
	setString(set, "link", patch.Link)
	setString(set, "youtube", patch.Youtube)
	setString(set, "original_creator", patch.OriginalCreator)
	setString(set, "img", patch.Img)
	if patch.Gallery != nil {
		set["gallery"] = patch.Gallery
	}
	if patch.Changelog != nil {
		entries := make([]mongoChangelog, len(patch.Changelog))
		for i, e := range patch.Changelog {
			entries[i] = mongoChangelog(e)
		}
		set["changelog"] = entries
	}
	if len(set) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// SetRating upserts one actor's rating under its map key.
func (r *ItemRepository) SetRating(ctx context.Context, id string, rating domain.Rating) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrItemNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"ratings." + rating.UserID: mongoRating(rating)}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) SetFeatured(ctx context.Context, id string, featured bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrItemNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"featured": featured}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrItemNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = r.col.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// LatestPage returns the n newest items in ascending key order.
func (r *ItemRepository) LatestPage(ctx context.Context, n int) ([]*domain.Item, error) {
	return r.page(ctx, bson.M{}, n)
}

// PageEndingAt returns up to n items with keys at or before key, ascending.
// The boundary is inclusive so callers can detect the overlap item.
func (r *ItemRepository) PageEndingAt(ctx context.Context, key string, n int) ([]*domain.Item, error) {
	oid, err := primitive.ObjectIDFromHex(key)
	if err != nil {
		return nil, domain.ErrItemNotFound
	}
	return r.page(ctx, bson.M{"_id": bson.M{"$lte": oid}}, n)
}

// page fetches the n largest keys matching filter and reverses them to
// ascending order, mirroring an orderByKey().limitToLast(n) query.
func (r *ItemRepository) page(ctx context.Context, filter bson.M, n int) ([]*domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(n))
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []mongoItem
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	items := make([]*domain.Item, len(docs))
	for i := range docs {
		items[len(docs)-1-i] = fromMongoItem(&docs[i])
	}
	return items, nil
}

// EnsureIndexes creates the indexes the repository queries rely on.
func (r *ItemRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
		{Keys: bson.D{{Key: "featured", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func setString(set bson.M, field string, v *string) {
	if v != nil {
		set[field] = *v
	}
}

func toMongoItem(it *domain.Item) *mongoItem {
	doc := &mongoItem{
		Title:           it.Title,
		Desc:            it.Desc,
		Category:        it.Category,
		Link:            it.Link,
		Youtube:         it.Youtube,
		OriginalCreator: it.OriginalCreator,
		Img:             it.Img,
		Gallery:         it.Gallery,
		AuthorID:        it.AuthorID,
		Author:          it.Author,
		Featured:        it.Featured,
	}
	for _, e := range it.Changelog {
		doc.Changelog = append(doc.Changelog, mongoChangelog(e))
	}
	if it.Ratings != nil {
		doc.Ratings = make(map[string]mongoRating, len(it.Ratings))
		for k, v := range it.Ratings {
			doc.Ratings[k] = mongoRating(v)
		}
	}
	return doc
}

func fromMongoItem(doc *mongoItem) *domain.Item {
	it := &domain.Item{
		ID:              doc.ID.Hex(),
		Title:           doc.Title,
		Desc:            doc.Desc,
		Category:        doc.Category,
		Link:            doc.Link,
		Youtube:         doc.Youtube,
		OriginalCreator: doc.OriginalCreator,
		Img:             doc.Img,
		Gallery:         doc.Gallery,
		AuthorID:        doc.AuthorID,
		Author:          doc.Author,
		Featured:        doc.Featured,
	}
	for _, e := range doc.Changelog {
		it.Changelog = append(it.Changelog, domain.ChangelogEntry(e))
	}
	if doc.Ratings != nil {
		it.Ratings = make(map[string]domain.Rating, len(doc.Ratings))
		for k, v := range doc.Ratings {
			it.Ratings[k] = domain.Rating(v)
		}
	}
	return it
}
