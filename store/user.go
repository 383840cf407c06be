package store

import (
	"context"

	"github.com/kevinaaaquil/shelfmates/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	if user.Friends == nil {
		user.Friends = []primitive.ObjectID{}
	}
	res, err := db.Users().InsertOne(ctx, user, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UsersByNickname returns users whose nickname equals nickname exactly, oldest first.
func (db *DB) UsersByNickname(ctx context.Context, nickname string, limit int64) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := db.Users().Find(ctx, bson.M{"nickname": nickname}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile sets the nickname and/or display name. Nil fields are left alone.
func (db *DB) UpdateProfile(ctx context.Context, id primitive.ObjectID, nickname, displayName *string) error {
	updates := bson.M{}
	if nickname != nil {
		updates["nickname"] = *nickname
	}
	if displayName != nil {
		updates["displayName"] = *displayName
	}
	if len(updates) == 0 {
		return nil
	}
	res, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetAvatarKey stores the avatar object key and returns the previous one.
func (db *DB) SetAvatarKey(ctx context.Context, id primitive.ObjectID, key string) (string, error) {
	var before models.User
	err := db.Users().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"avatarKey": key}}).Decode(&before)
	if err == mongo.ErrNoDocuments {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return before.AvatarKey, nil
}

func (db *DB) FriendIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var u models.User
	opts := options.FindOne().SetProjection(bson.M{"friends": 1})
	err := db.Users().FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u.Friends, nil
}

// AddFriendID adds friendID to the user's friend set in a single atomic update.
// It reports false if friendID was already present.
func (db *DB) AddFriendID(ctx context.Context, userID, friendID primitive.ObjectID) (bool, error) {
	res, err := db.Users().UpdateOne(ctx,
		bson.M{"_id": userID, "friends": bson.M{"$ne": friendID}},
		bson.M{"$addToSet": bson.M{"friends": friendID}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount > 0 {
		return true, nil
	}
	return false, db.userMustExist(ctx, userID)
}

// RemoveFriendID pulls friendID from the user's friend set in a single atomic update.
// It reports false if friendID was not present.
func (db *DB) RemoveFriendID(ctx context.Context, userID, friendID primitive.ObjectID) (bool, error) {
	res, err := db.Users().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"friends": friendID}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrUserNotFound
	}
	return res.ModifiedCount > 0, nil
}

func (db *DB) userMustExist(ctx context.Context, id primitive.ObjectID) error {
	n, err := db.Users().CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return err != nil && mongo.IsDuplicateKeyError(err)
}

