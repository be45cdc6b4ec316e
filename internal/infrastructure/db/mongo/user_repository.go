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

const collectionUsers = "users"

// UserRepository implements ports.UserRepository on MongoDB. Watches are
// backed by change streams and deliver full-replace snapshots.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type mongoSocials struct {
	Discord  string `bson:"discord,omitempty"`
	WhatsApp string `bson:"whatsapp,omitempty"`
	YouTube  string `bson:"youtube,omitempty"`
}

type mongoUser struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Username          string             `bson:"username"`
	Email             string             `bson:"email,omitempty"`
	PasswordHash      string             `bson:"password_hash,omitempty"`
	Role              string             `bson:"role"`
	Banned            bool               `bson:"banned"`
	Muted             bool               `bson:"muted"`
	ProfilePic        string             `bson:"profile_pic,omitempty"`
	ProfileBorder     string             `bson:"profile_border,omitempty"`
	CustomColor       string             `bson:"custom_color,omitempty"`
	CustomBorderWidth int                `bson:"custom_border_width,omitempty"`
	Bio               string             `bson:"bio,omitempty"`
	Socials           mongoSocials       `bson:"socials,omitempty"`
	CreatedAt         int64              `bson:"created_at"`
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoUser
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return fromMongoUser(&doc), nil
}

// Create stores a new record. When u.ID is empty the store assigns one; the
// assigned id is written back to u. A duplicate id or username fails with
// domain.ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	doc := toMongoUser(u)
	if u.ID == "" {
		doc.ID = primitive.NewObjectID()
	} else {
		oid, err := primitive.ObjectIDFromHex(u.ID)
		if err != nil {
			return domain.ErrUserNotFound
		}
		doc.ID = oid
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return err
	}
	u.ID = doc.ID.Hex()
	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoUser
	if err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return fromMongoUser(&doc), nil
}

func (r *UserRepository) Patch(ctx context.Context, id string, patch ports.UserPatch) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	set := bson.M{}
	setString(set, "role", patch.Role)
	setString(set, "profile_pic", patch.ProfilePic)
	setString(set, "profile_border", patch.ProfileBorder)
	setString(set, "custom_color", patch.CustomColor)
	setString(set, "bio", patch.Bio)
	if patch.Banned != nil {
		set["banned"] = *patch.Banned
	}
	if patch.Muted != nil {
		set["muted"] = *patch.Muted
	}
	if patch.CustomBorderWidth != nil {
		set["custom_border_width"] = *patch.CustomBorderWidth
	}
	if patch.Socials != nil {
		set["socials"] = mongoSocials{
			Discord:  patch.Socials.Discord,
			WhatsApp: patch.Socials.WhatsApp,
			YouTube:  patch.Socials.YouTube,
		}
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
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = r.col.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (r *UserRepository) List(ctx context.Context) (map[string]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]*domain.User)
	for cur.Next(ctx) {
		var doc mongoUser
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		u := fromMongoUser(&doc)
		out[u.ID] = u
	}
	return out, cur.Err()
}

// Watch follows a single record through a change stream. Every event delivers
// the complete current document; nil signals deletion.
func (r *UserRepository) Watch(ctx context.Context, id string, onChange func(*domain.User)) (ports.Subscription, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": oid}}},
	}
	return r.watch(ctx, pipeline, func(ev changeEvent) {
		if ev.OperationType == "delete" {
			onChange(nil)
			return
		}
		if ev.FullDocument != nil {
			onChange(fromMongoUser(ev.FullDocument))
		}
	})
}

// WatchAll delivers the complete user set on every collection change.
func (r *UserRepository) WatchAll(ctx context.Context, onChange func(map[string]*domain.User)) (ports.Subscription, error) {
	return r.watch(ctx, mongo.Pipeline{}, func(changeEvent) {
		users, err := r.List(context.Background())
		if err != nil {
			return
		}
		onChange(users)
	})
}

type changeEvent struct {
	OperationType string     `bson:"operationType"`
	FullDocument  *mongoUser `bson:"fullDocument"`
}

func (r *UserRepository) watch(ctx context.Context, pipeline mongo.Pipeline, deliver func(changeEvent)) (ports.Subscription, error) {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := r.col.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			var ev changeEvent
			if err := stream.Decode(&ev); err != nil {
				continue
			}
			deliver(ev)
		}
	}()

	return ports.SubscriptionFunc(cancel), nil
}

// EnsureIndexes creates the unique username index registration relies on.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := r.col.Indexes().CreateOne(ctx, index)
	return err
}

func toMongoUser(u *domain.User) *mongoUser {
	return &mongoUser{
		Username:          u.Username,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		Role:              u.Role,
		Banned:            u.Banned,
		Muted:             u.Muted,
		ProfilePic:        u.ProfilePic,
		ProfileBorder:     u.ProfileBorder,
		CustomColor:       u.CustomColor,
		CustomBorderWidth: u.CustomBorderWidth,
		Bio:               u.Bio,
		Socials: mongoSocials{
			Discord:  u.Socials.Discord,
			WhatsApp: u.Socials.WhatsApp,
			YouTube:  u.Socials.YouTube,
		},
		CreatedAt: u.CreatedAt.Unix(),
	}
}

func fromMongoUser(doc *mongoUser) *domain.User {
	return &domain.User{
		ID:                doc.ID.Hex(),
		Username:          doc.Username,
		Email:             doc.Email,
		PasswordHash:      doc.PasswordHash,
		Role:              doc.Role,
		Banned:            doc.Banned,
		Muted:             doc.Muted,
		ProfilePic:        doc.ProfilePic,
		ProfileBorder:     doc.ProfileBorder,
		CustomColor:       doc.CustomColor,
		CustomBorderWidth: doc.CustomBorderWidth,
		Bio:               doc.Bio,
		Socials: domain.Socials{
			Discord:  doc.Socials.Discord,
			WhatsApp: doc.Socials.WhatsApp,
			YouTube:  doc.Socials.YouTube,
		},
		CreatedAt: unixToTime(doc.CreatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
