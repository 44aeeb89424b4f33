package model

import "time"

// User is a document in the users collection. The email-shaped username is
// the _id, so uniqueness is enforced by the collection itself.
type User struct {
	Username       string    `bson:"_id" json:"username"`
	HashedPassword string    `bson:"hashed_password" json:"-"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
