package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	driver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"timetracker/internal/core"
	"timetracker/internal/store"
)

const (
	DefaultDatabase   = "time-tracker"
	DefaultCollection = "time-entries"
)

var _ store.Store = (*Store)(nil)

// Store is the document store backend.
type Store struct {
	client *driver.Client
	coll   *driver.Collection
}

// Open builds a client for uri. The driver connects lazily, so Open does
// not contact the server; call Ping to verify reachability.
func Open(uri, database, collection string) (*Store, error) {
	if uri == "" {
		return nil, errors.New("mongo: empty connection uri")
	}
	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := driver.Connect(options.Client().ApplyURI(uri).SetAppName("timetracker"))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	return &Store{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the date index used by range and aggregation queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, driver.IndexModel{
		Keys: bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create date index: %w", err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, f store.Filter, order store.SortOrder) ([]core.TimeEntry, error) {
	cur, err := s.coll.Find(ctx, findFilter(f), options.Find().SetSort(findSort(order)))
	if err != nil {
		return nil, fmt.Errorf("find entries: %w", err)
	}
	var docs []entryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	out := make([]core.TimeEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.entry())
	}
	return out, nil
}

func (s *Store) FindOne(ctx context.Context, id string) (core.TimeEntry, error) {
	oid, err := objectID(id)
	if err != nil {
		return core.TimeEntry{}, err
	}
	var d entryDoc
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&d); err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return core.TimeEntry{}, core.ErrNotFound
		}
		return core.TimeEntry{}, fmt.Errorf("find entry %s: %w", id, err)
	}
	return d.entry(), nil
}

func (s *Store) FindProgress(ctx context.Context, id string) (core.TaskProgress, error) {
	oid, err := objectID(id)
	if err != nil {
		return core.TaskProgress{}, err
	}
	opts := options.FindOne().SetProjection(bson.D{{Key: "progress", Value: 1}, {Key: "completed", Value: 1}})
	var d entryDoc
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}, opts).Decode(&d); err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return core.TaskProgress{}, core.ErrNotFound
		}
		return core.TaskProgress{}, fmt.Errorf("find progress %s: %w", id, err)
	}
	e := d.entry()
	return core.TaskProgress{Progress: e.Progress, Completed: e.Completed}, nil
}

func (s *Store) Insert(ctx context.Context, e core.TimeEntry) (string, error) {
	res, err := s.coll.InsertOne(ctx, newDoc(e))
	if err != nil {
		return "", fmt.Errorf("insert entry: %w", err)
	}
	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert entry: unexpected id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (s *Store) Update(ctx context.Context, id string, u core.EntryUpdate) (store.UpdateResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return store.UpdateResult{}, err
	}
	res, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, updateSet(u))
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("update entry %s: %w", id, err)
	}
	return store.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (s *Store) SetProgress(ctx context.Context, id string, progress int, completed bool, at time.Time) (store.UpdateResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return store.UpdateResult{}, err
	}
	res, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, progressSet(progress, completed, at))
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("update progress %s: %w", id, err)
	}
	return store.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return false, fmt.Errorf("delete entry %s: %w", id, err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) SumByCategory(ctx context.Context) ([]core.CategoryTotal, error) {
	cur, err := s.coll.Aggregate(ctx, categoryPipeline())
	if err != nil {
		return nil, fmt.Errorf("aggregate by category: %w", err)
	}
	var rows []struct {
		Category      string `bson:"category"`
		TotalDuration int    `bson:"totalDuration"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode category totals: %w", err)
	}
	out := make([]core.CategoryTotal, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.CategoryTotal{Category: r.Category, TotalDuration: r.TotalDuration})
	}
	return out, nil
}

func (s *Store) SumByDay(ctx context.Context, since string) ([]core.DailyTotal, error) {
	cur, err := s.coll.Aggregate(ctx, dailyPipeline(since))
	if err != nil {
		return nil, fmt.Errorf("aggregate by day: %w", err)
	}
	var rows []struct {
		Date          string `bson:"date"`
		TotalDuration int    `bson:"totalDuration"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode daily totals: %w", err)
	}
	out := make([]core.DailyTotal, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.DailyTotal{Date: r.Date, TotalDuration: r.TotalDuration})
	}
	return out, nil
}

func objectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("%w: %q", core.ErrInvalidID, id)
	}
	return oid, nil
}
