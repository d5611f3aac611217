package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/model"
)

// PersonRepository defines the interface for person profile operations.
type PersonRepository interface {
	CreatePerson(ctx context.Context, person *model.Person) (*model.Person, error)
	GetPersonByProviderID(ctx context.Context, providerID string) (*model.Person, error)
	GetPersonByUserID(ctx context.Context, userID bson.ObjectID) (*model.Person, error)
}

// OrganizationRepository defines the interface for organization profile operations.
type OrganizationRepository interface {
	CreateOrganization(ctx context.Context, organization *model.Organization) (*model.Organization, error)
	GetOrganizationByUserID(ctx context.Context, userID bson.ObjectID) (*model.Organization, error)
}

const (
	personCollection       = "persons"
	organizationCollection = "organizations"
)

type personMongoRepository struct {
	db *mongo.Database
}

// NewPersonMongoRepository creates the person repository. provider_id is unique among
// persons that have one, which is what keeps concurrent social sign-ins from
// provisioning the same account twice.
func NewPersonMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) PersonRepository {
	collection := db.Collection(personCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "provider_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"provider_id": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "user", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create person indexes")
	}

	return &personMongoRepository{db: db}
}

func (r *personMongoRepository) CreatePerson(ctx context.Context, person *model.Person) (*model.Person, error) {
	now := time.Now()
	person.CreatedAt = now
	person.UpdatedAt = now

	result, err := r.db.Collection(personCollection).InsertOne(ctx, person)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		person.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return person, nil
}

func (r *personMongoRepository) GetPersonByProviderID(ctx context.Context, providerID string) (*model.Person, error) {
	var person model.Person
	err := r.db.Collection(personCollection).FindOne(ctx, bson.M{"provider_id": providerID}).Decode(&person)
	if err != nil {
		return nil, err
	}

	return &person, nil
}

func (r *personMongoRepository) GetPersonByUserID(ctx context.Context, userID bson.ObjectID) (*model.Person, error) {
	var person model.Person
	err := r.db.Collection(personCollection).FindOne(ctx, bson.M{"user": userID}).Decode(&person)
	if err != nil {
		return nil, err
	}

	return &person, nil
}

type organizationMongoRepository struct {
	db *mongo.Database
}

func NewOrganizationMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) OrganizationRepository {
	collection := db.Collection(organizationCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create organization indexes")
	}

	return &organizationMongoRepository{db: db}
}

func (r *organizationMongoRepository) CreateOrganization(
	ctx context.Context,
	organization *model.Organization,
) (*model.Organization, error) {
	now := time.Now()
	organization.CreatedAt = now
	organization.UpdatedAt = now

	result, err := r.db.Collection(organizationCollection).InsertOne(ctx, organization)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		organization.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return organization, nil
}

func (r *organizationMongoRepository) GetOrganizationByUserID(
	ctx context.Context,
	userID bson.ObjectID,
) (*model.Organization, error) {
	var organization model.Organization
	err := r.db.Collection(organizationCollection).FindOne(ctx, bson.M{"user": userID}).Decode(&organization)
	if err != nil {
		return nil, err
	}

	return &organization, nil
}
