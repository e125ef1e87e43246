package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/credential-service/internal/models"
)

// UsersCollection is the MongoDB collection holding user documents.
const UsersCollection = "users"

type mongoUser struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *mongoUser) model() *models.User {
	return &models.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		Email:     d.Email,
		Password:  d.Password,
		Role:      models.Role(d.Role),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// MongoStore handles user document CRUD in MongoDB.
type MongoStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(UsersCollection), now: time.Now}
}

// EnsureIndexes creates the unique username and email indexes that back
// duplicate detection.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, "find by username", bson.M{"username": username})
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, "find by id", bson.M{"_id": oid})
}

func (s *MongoStore) Create(ctx context.Context, nu NewUser) (*models.User, error) {
	role, err := roleOrDefault(nu.Role)
	if err != nil {
		return nil, opError("create user", err)
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	doc := mongoUser{
		Username:  nu.Username,
		Email:     nu.Email,
		Password:  nu.Password,
		Role:      string(role),
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, mongoError("create user", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, opError("create user", fmt.Errorf("unexpected inserted id %T", res.InsertedID))
	}
	doc.ID = oid
	return doc.model(), nil
}

func (s *MongoStore) UpdateByID(ctx context.Context, id string, upd UserUpdate) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	if upd.Empty() {
		return s.findOne(ctx, "find by id", bson.M{"_id": oid})
	}

	set := bson.M{"updatedAt": s.now().UTC().Truncate(time.Millisecond)}
	if upd.Username != nil {
		set["username"] = *upd.Username
	}
	if upd.Password != nil {
		set["password"] = *upd.Password
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc mongoUser
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		return nil, mongoError("update user", err)
	}
	return doc.model(), nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc mongoUser
	if err := s.col.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mongoError("delete user", err)
	}
	return doc.model(), nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mongoError("list users", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongoError("list users", err)
	}
	out := make([]models.User, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].model())
	}
	return out, nil
}

func (s *MongoStore) findOne(ctx context.Context, op string, filter bson.M) (*models.User, error) {
	var doc mongoUser
	if err := s.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mongoError(op, err)
	}
	return doc.model(), nil
}

func mongoError(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return duplicateError(op, err)
	default:
		return opError(op, err)
	}
}

var _ UserStore = (*MongoStore)(nil)
