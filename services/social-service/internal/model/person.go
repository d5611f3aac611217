package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Person is the profile of an individual user.
// ProviderID links it to an external identity (Google account id, ...) and is
// unique across persons when set.
type Person struct {
	ID         bson.ObjectID `bson:"_id,omitempty"         json:"id"`
	ProviderID string        `bson:"provider_id,omitempty" json:"providerId,omitempty"`
	FirstName  string        `bson:"first_name"            json:"firstName"`
	LastName   string        `bson:"last_name"             json:"lastName"`
	UserID     bson.ObjectID `bson:"user"                  json:"-"`
	CreatedAt  time.Time     `bson:"created_at"            json:"createdAt"`
	UpdatedAt  time.Time     `bson:"updated_at"            json:"updatedAt"`
}

// Organization is the profile of a company account.
type Organization struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string        `bson:"name"          json:"name"`
	UserID    bson.ObjectID `bson:"user"          json:"-"`
	CreatedAt time.Time     `bson:"created_at"    json:"createdAt"`
	UpdatedAt time.Time     `bson:"updated_at"    json:"updatedAt"`
}

// PersonProfile is a person joined with the user that owns it.
type PersonProfile struct {
	Person `bson:",inline"`
	User   *User `bson:"-" json:"user"`
}

// OrganizationProfile is an organization joined with the user that owns it.
type OrganizationProfile struct {
	Organization `bson:",inline"`
	User         *User `bson:"-" json:"user"`
}
