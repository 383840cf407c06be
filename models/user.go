package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Email       string               `bson:"email" json:"email"`
	Password    string               `bson:"password" json:"-"` // bcrypt hash
	Nickname    string               `bson:"nickname" json:"nickname"`
	DisplayName string               `bson:"displayName,omitempty" json:"displayName,omitempty"`
	AvatarKey   string               `bson:"avatarKey,omitempty" json:"-"` // object key in S3
	Friends     []primitive.ObjectID `bson:"friends" json:"-"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
}
