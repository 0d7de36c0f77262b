package directors

import (
	"context"
	"fmt"
	"time"

	"docdbctl/src/helpers"
	"docdbctl/src/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	OpFindMany              = "find_many"
	OpInsertOne             = "insert_one"
	OpUpdateOne             = "update_one"
	OpDeleteMany            = "delete_many"
	OpListDatabases         = "list_databases"
	OpFetchCollections      = "fetch_collections"
	OpFetchCollectionFields = "fetch_collection_fields"
)

// DocumentService performs single operations against the collections of a client.
// It holds no state besides its dependencies and is safe for concurrent use.
type DocumentService struct {
	client  *mongo.Client
	logger  *zap.SugaredLogger
	metrics *metrics.Recorder
	timeout time.Duration
}

type ServiceOption func(*DocumentService)

// WithTimeout bounds every database round trip. Zero means only the caller's context applies.
func WithTimeout(timeout time.Duration) ServiceOption {
	return func(s *DocumentService) {
		s.timeout = timeout
	}
}

func WithMetrics(recorder *metrics.Recorder) ServiceOption {
	return func(s *DocumentService) {
		s.metrics = recorder
	}
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(client *mongo.Client, logger *zap.SugaredLogger, opts ...ServiceOption) *DocumentService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	service := &DocumentService{
		client: client,
		logger: logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// FindMany returns every document matching the filter. The whole result set is held in memory.
func (s *DocumentService) FindMany(ctx context.Context, database, collection string, filter bson.D) ([]bson.D, error) {
	if filter == nil {
		filter = bson.D{}
	}
	ns := namespace(database, collection)

	docs := make([]bson.D, 0)
	err := s.run(ctx, OpFindMany, func(ctx context.Context) error {
		cursor, err := s.collection(database, collection).Find(ctx, filter)
		if err != nil {
			return err
		}
		// All closes the cursor
		return cursor.All(ctx, &docs)
	})
	if err != nil {
		return nil, s.fail(OpFindMany, ns, err)
	}

	s.logger.Debugw("documents found", "namespace", ns, "count", len(docs))
	return docs, nil
}

// InsertOne stores a document and returns its generated ObjectID
func (s *DocumentService) InsertOne(ctx context.Context, database, collection string, doc bson.D) (primitive.ObjectID, error) {
	if doc == nil {
		doc = bson.D{}
	}
	ns := namespace(database, collection)

	var id primitive.ObjectID
	err := s.run(ctx, OpInsertOne, func(ctx context.Context) error {
		result, err := s.collection(database, collection).InsertOne(ctx, doc)
		if err != nil {
			return err
		}

		oid, ok := result.InsertedID.(primitive.ObjectID)
		if !ok {
			return fmt.Errorf("%w: got %T", ErrUnexpectedInsertedID, result.InsertedID)
		}
		id = oid
		return nil
	})
	if err != nil {
		return primitive.NilObjectID, s.fail(OpInsertOne, ns, err)
	}

	s.logger.Debugw("document inserted", "namespace", ns, "id", id.Hex(), "fields", helpers.DocumentKeys(doc))
	return id, nil
}

// UpdateOne applies the update to at most one matching document and returns the modified count.
// A filter without matches is not an error.
func (s *DocumentService) UpdateOne(ctx context.Context, database, collection string, filter, update bson.D) (int64, error) {
	if filter == nil {
		filter = bson.D{}
	}
	ns := namespace(database, collection)

	var modified int64
	err := s.run(ctx, OpUpdateOne, func(ctx context.Context) error {
		result, err := s.collection(database, collection).UpdateOne(ctx, filter, update)
		if err != nil {
			return err
		}
		modified = result.ModifiedCount
		return nil
	})
	if err != nil {
		return 0, s.fail(OpUpdateOne, ns, err)
	}

	s.logger.Debugw("document updated", "namespace", ns, "modified", modified)
	return modified, nil
}

// DeleteMany applies each filter in order and returns the total number of deleted documents.
// The batch is not atomic: on the first failing filter it stops and returns the count so far
// together with a *BatchDeleteError. Earlier deletions stay committed.
func (s *DocumentService) DeleteMany(ctx context.Context, database, collection string, filters []bson.D) (int64, error) {
	ns := namespace(database, collection)
	coll := s.collection(database, collection)

	var total int64
	for i, filter := range filters {
		if filter == nil {
			filter = bson.D{}
		}

		var deleted int64
		err := s.run(ctx, OpDeleteMany, func(ctx context.Context) error {
			result, err := coll.DeleteMany(ctx, filter)
			if err != nil {
				return err
			}
			deleted = result.DeletedCount
			return nil
		})
		if err != nil {
			return total, &BatchDeleteError{
				Index:   i,
				Deleted: total,
				Err:     s.fail(OpDeleteMany, ns, err),
			}
		}

		total += deleted
	}

	s.logger.Debugw("documents deleted", "namespace", ns, "filters", len(filters), "deleted", total)
	return total, nil
}

func (s *DocumentService) collection(database, collection string) *mongo.Collection {
	return s.client.Database(database).Collection(collection)
}

// run applies the timeout and records metrics for one round trip
func (s *DocumentService) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err := fn(ctx)
	s.metrics.Observe(op, start, err)
	return err
}

func (s *DocumentService) fail(op, ns string, err error) error {
	s.logger.Debugw("operation failed", "op", op, "namespace", ns, "error", err)
	return &OperationError{Op: op, Namespace: ns, Err: err}
}

func namespace(database, collection string) string {
	if collection == "" {
		return database
	}
	return database + "." + collection
}
