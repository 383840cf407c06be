package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func mockDB(mt *mtest.T) *DB {
	return &DB{Client: mt.Client, Database: mt.DB}
}

func TestFriendSetUpdates(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	me, friend := primitive.NewObjectID(), primitive.NewObjectID()

	mt.Run("add new friend", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		added, err := mockDB(mt).AddFriendID(ctx, me, friend)
		require.NoError(t, err)
		assert.True(t, added)

		stmt := sentStatement(t, mt, "update", "updates")
		assert.Equal(t, me, stmt.Lookup("q", "_id").ObjectID())
		assert.Equal(t, friend, stmt.Lookup("q", "friends", "$ne").ObjectID())
		assert.Equal(t, []string{"$addToSet"}, keys(t, stmt.Lookup("u").Document()))
		assert.Equal(t, friend, stmt.Lookup("u", "$addToSet", "friends").ObjectID())
	})

	mt.Run("add existing friend", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".users"
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)
		added, err := mockDB(mt).AddFriendID(ctx, me, friend)
		require.NoError(t, err)
		assert.False(t, added)
	})

	mt.Run("add for missing user", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".users"
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)
		_, err := mockDB(mt).AddFriendID(ctx, me, friend)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	mt.Run("remove present friend", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		removed, err := mockDB(mt).RemoveFriendID(ctx, me, friend)
		require.NoError(t, err)
		assert.True(t, removed)

		stmt := sentStatement(t, mt, "update", "updates")
		assert.Equal(t, me, stmt.Lookup("q", "_id").ObjectID())
		assert.Equal(t, friend, stmt.Lookup("u", "$pull", "friends").ObjectID())
	})

	mt.Run("remove absent friend", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))
		removed, err := mockDB(mt).RemoveFriendID(ctx, me, friend)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	mt.Run("remove for missing user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		_, err := mockDB(mt).RemoveFriendID(ctx, me, friend)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestFriendIDs(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	me, a, b := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	mt.Run("found", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".users"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: me},
			{Key: "friends", Value: bson.A{a, b}},
		}))
		ids, err := mockDB(mt).FriendIDs(ctx, me)
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{a, b}, ids)
	})

	mt.Run("missing user", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".users"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		_, err := mockDB(mt).FriendIDs(ctx, me)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUsersByNickname(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	oldest := primitive.NewObjectID()

	mt.Run("oldest match first", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".users"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oldest},
			{Key: "nickname", Value: "bob"},
			{Key: "displayName", Value: "Bob"},
		}))
		users, err := mockDB(mt).UsersByNickname(ctx, "bob", 1)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, oldest, users[0].ID)
		assert.Equal(t, "Bob", users[0].DisplayName)

		ev := mt.GetStartedEvent()
		require.NotNil(t, ev)
		require.Equal(t, "find", ev.CommandName)
		assert.Equal(t, "bob", ev.Command.Lookup("filter", "nickname").StringValue())
		assert.EqualValues(t, 1, ev.Command.Lookup("sort", "createdAt").AsInt64())
		assert.EqualValues(t, 1, ev.Command.Lookup("limit").AsInt64())
	})

	mt.Run("no match", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".users"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		users, err := mockDB(mt).UsersByNickname(ctx, "ghost", 1)
		require.NoError(t, err)
		assert.Empty(t, users)
	})
}

func TestIsDuplicateKey(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.True(t, IsDuplicateKey(dup))
	assert.False(t, IsDuplicateKey(mongo.ErrNoDocuments))
	assert.False(t, IsDuplicateKey(nil))
}
