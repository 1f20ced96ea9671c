package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/justsurfingit/jobboard/internal/models"
)

const (
	JobCollection  = "job"
	UserCollection = "user"
)

// EnsureMongoIndexes creates the indexes the reply and applicant lookups
// depend on, plus the unique email index on users.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(JobCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: string(models.Queries) + ".id", Value: 1}}},
		{Keys: bson.D{{Key: string(models.ChatThreads) + ".id", Value: 1}}},
		{Keys: bson.D{{Key: string(models.Applicants) + ".email", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("job indexes: %w", err)
	}
	_, err = db.Collection(UserCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	return nil
}

type MongoJobStore struct {
	coll *mongo.Collection
}

func NewMongoJobStore(coll *mongo.Collection) *MongoJobStore {
	return &MongoJobStore{coll: coll}
}

func (s *MongoJobStore) InsertJob(ctx context.Context, job models.Job) (WriteResult, error) {
	if _, err := s.coll.InsertOne(ctx, job); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return WriteResult{}, ErrDuplicate
		}
		return WriteResult{}, fmt.Errorf("insert job: %w", err)
	}
	return WriteResult{Acknowledged: true, InsertedID: job.ID}, nil
}

func (s *MongoJobStore) FindJobs(ctx context.Context) ([]models.Job, error) {
	return s.find(ctx, bson.M{}, options.Find())
}

func (s *MongoJobStore) FindJob(ctx context.Context, id string) (models.Job, error) {
	var job models.Job
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Job{}, ErrNotFound
	}
	if err != nil {
		return models.Job{}, fmt.Errorf("find job %s: %w", id, err)
	}
	return job, nil
}

func (s *MongoJobStore) FindJobsByApplicant(ctx context.Context, email string) ([]models.Job, error) {
	filter := bson.M{string(models.Applicants): bson.M{"$elemMatch": bson.M{"email": email}}}
	opts := options.Find().SetProjection(bson.M{string(models.Applicants): 0})
	return s.find(ctx, filter, opts)
}

func (s *MongoJobStore) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Job, error) {
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find jobs: %w", err)
	}
	jobs := []models.Job{}
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	return jobs, nil
}

func (s *MongoJobStore) PushJobField(ctx context.Context, jobID string, field models.Collection, elem interface{}) (WriteResult, error) {
	if err := checkPush(field, elem); err != nil {
		return WriteResult{}, err
	}
	update := bson.M{"$push": bson.M{string(field): normalizeElem(elem)}}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": jobID}, update)
	if err != nil {
		return WriteResult{}, fmt.Errorf("push %s: %w", field, err)
	}
	return fromUpdateResult(res), nil
}

// PushThreadReply selects the job by thread id and uses an array filter so
// the reply lands in the replies of the matching element only.
func (s *MongoJobStore) PushThreadReply(ctx context.Context, field models.Collection, threadID, reply string) (WriteResult, error) {
	if err := checkThreadField(field); err != nil {
		return WriteResult{}, err
	}
	filter := bson.M{string(field) + ".id": threadID}
	update := bson.M{"$push": bson.M{string(field) + ".$[thread].replies": reply}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"thread.id": threadID}},
	})
	res, err := s.coll.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return WriteResult{}, fmt.Errorf("push reply to %s: %w", field, err)
	}
	return fromUpdateResult(res), nil
}

func (s *MongoJobStore) FindThreadOwner(ctx context.Context, field models.Collection, threadID string) (string, error) {
	if err := checkThreadField(field); err != nil {
		return "", err
	}
	var doc struct {
		ID string `bson:"_id"`
	}
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := s.coll.FindOne(ctx, bson.M{string(field) + ".id": threadID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find thread owner: %w", err)
	}
	return doc.ID, nil
}

func fromUpdateResult(res *mongo.UpdateResult) WriteResult {
	out := WriteResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if id, ok := res.UpsertedID.(string); ok {
		out.UpsertedID = id
	}
	return out
}

type MongoUserStore struct {
	coll *mongo.Collection
}

func NewMongoUserStore(coll *mongo.Collection) *MongoUserStore {
	return &MongoUserStore{coll: coll}
}

func (s *MongoUserStore) FindUsers(ctx context.Context) ([]models.User, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (s *MongoUserStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *MongoUserStore) InsertUser(ctx context.Context, user models.User) (WriteResult, error) {
	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return WriteResult{}, ErrDuplicate
		}
		return WriteResult{}, fmt.Errorf("insert user: %w", err)
	}
	return WriteResult{Acknowledged: true, InsertedID: user.ID}, nil
}

func (s *MongoUserStore) UpsertUserEmail(ctx context.Context, email, newID string) (WriteResult, error) {
	update := bson.M{
		"$set":         bson.M{"email": email},
		"$setOnInsert": bson.M{"_id": newID},
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"email": email}, update, options.Update().SetUpsert(true))
	if err != nil {
		return WriteResult{}, fmt.Errorf("upsert user: %w", err)
	}
	return fromUpdateResult(res), nil
}
