package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/ayush/credential-service/internal/models"
)

const mockNS = "my_website.users"

func userDoc(oid primitive.ObjectID, username string, ts time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: oid},
		{Key: "username", Value: username},
		{Key: "email", Value: username + "@x.com"},
		{Key: "password", Value: "c2VjcmV0MQ=="},
		{Key: "role", Value: "user"},
		{Key: "createdAt", Value: ts},
		{Key: "updatedAt", Value: ts},
	}
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("find by username", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNS, mtest.FirstBatch, userDoc(oid, "alice", ts)))

		u, err := s.FindByUsername(context.Background(), "alice")
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), u.ID)
		assert.Equal(mt, "alice@x.com", u.Email)
		assert.Equal(mt, models.RoleUser, u.Role)
		assert.True(mt, ts.Equal(u.CreatedAt))
	})

	mt.Run("find by username missing", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNS, mtest.FirstBatch))

		_, err := s.FindByUsername(context.Background(), "ghost")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		ctx := context.Background()

		_, err := s.FindByID(ctx, "nope")
		assert.ErrorIs(mt, err, ErrNotFound)
		_, err = s.UpdateByID(ctx, "nope", UserUpdate{Password: strPtr("x")})
		assert.ErrorIs(mt, err, ErrNotFound)
		_, err = s.DeleteByID(ctx, "nope")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("create", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u, err := s.Create(context.Background(), NewUser{Username: "alice", Email: "alice@x.com", Password: "p"})
		require.NoError(mt, err)
		_, err = primitive.ObjectIDFromHex(u.ID)
		assert.NoError(mt, err)
		assert.Equal(mt, models.RoleUser, u.Role)
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: my_website.users index: username_1",
		}))

		_, err := s.Create(context.Background(), NewUser{Username: "alice", Email: "alice@x.com", Password: "p"})
		require.Error(mt, err)
		assert.True(mt, IsDuplicateKey(err))
	})

	mt.Run("create invalid role", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)

		_, err := s.Create(context.Background(), NewUser{Username: "alice", Email: "alice@x.com", Password: "p", Role: "root"})
		assert.ErrorIs(mt, err, ErrInvalidRole)
	})

	mt.Run("empty update reads only", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNS, mtest.FirstBatch, userDoc(oid, "alice", ts)))

		u, err := s.UpdateByID(context.Background(), oid.Hex(), UserUpdate{})
		require.NoError(mt, err)
		assert.Equal(mt, "alice", u.Username)
	})

	mt.Run("update", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: userDoc(oid, "alicia", ts)},
		})

		u, err := s.UpdateByID(context.Background(), oid.Hex(), UserUpdate{Username: strPtr("alicia")})
		require.NoError(mt, err)
		assert.Equal(mt, "alicia", u.Username)
	})

	mt.Run("update missing", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: nil},
		})

		_, err := s.UpdateByID(context.Background(), primitive.NewObjectID().Hex(), UserUpdate{Password: strPtr("x")})
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: userDoc(oid, "alice", ts)},
		})

		u, err := s.DeleteByID(context.Background(), oid.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), u.ID)
	})

	mt.Run("list", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNS, mtest.FirstBatch,
			userDoc(a, "alice", ts), userDoc(b, "bob", ts.Add(time.Second))))

		all, err := s.List(context.Background())
		require.NoError(mt, err)
		require.Len(mt, all, 2)
		assert.Equal(mt, "alice", all[0].Username)
		assert.Equal(mt, "bob", all[1].Username)
	})

	mt.Run("command error", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "boom",
		}))

		_, err := s.FindByUsername(context.Background(), "alice")
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, ErrNotFound)
		assert.NotErrorIs(mt, err, mongo.ErrNoDocuments)
	})
}
