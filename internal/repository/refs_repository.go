package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sportsconnect/messaging/internal/domain"
)

// UserRepository batch-loads user projections for populating messages.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection("users")}
}

func (r *UserRepository) FindRefs(ctx context.Context, ids []string) (map[string]*domain.UserRef, error) {
	out := map[string]*domain.UserRef{}
	if len(ids) == 0 {
		return out, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	proj := options.Find().SetProjection(bson.M{
		"_id": 1, "name": 1, "email": 1, "profile_image": 1,
	})
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u domain.UserRef
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = &u
	}
	return out, cur.Err()
}

// PostRepository batch-loads post projections. A post missing from the
// result map means the post was deleted; callers keep the message and let
// the presentation layer degrade.
type PostRepository struct {
	coll *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{coll: db.Collection("posts")}
}

func (r *PostRepository) FindRefs(ctx context.Context, ids []string) (map[string]*domain.PostRef, error) {
	out := map[string]*domain.PostRef{}
	if len(ids) == 0 {
		return out, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	proj := options.Find().SetProjection(bson.M{
		"_id": 1, "title": 1, "description": 1,
	})
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var p domain.PostRef
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.ID] = &p
	}
	return out, cur.Err()
}
