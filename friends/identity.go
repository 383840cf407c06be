package friends

import "go.mongodb.org/mongo-driver/bson/primitive"

// Identity supplies the signed-in user's id.
type Identity interface {
	CurrentUserID() (primitive.ObjectID, bool)
}

// User is the identity of a known, signed-in user.
type User primitive.ObjectID

func (u User) CurrentUserID() (primitive.ObjectID, bool) {
	id := primitive.ObjectID(u)
	return id, !id.IsZero()
}

// Anonymous is the identity of a caller who has not signed in.
var Anonymous Identity = User(primitive.NilObjectID)
