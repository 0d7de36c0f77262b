package directors

import (
	"context"
	"errors"
	"testing"
	"time"

	"docdbctl/src/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const (
	testDB   = "animals"
	testColl = "cats"
	testNS   = "animals.cats"
)

func newMockService(mt *mtest.T) (*DocumentService, *metrics.Recorder) {
	recorder := metrics.NewRecorder()
	return NewDocumentService(mt.Client, nil, WithTimeout(5*time.Second), WithMetrics(recorder)), recorder
}

func badValue(message string) bson.D {
	return mtest.CreateCommandErrorResponse(mtest.CommandError{
		Code:    2,
		Name:    "BadValue",
		Message: message,
	})
}

func TestFindMany(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns all documents", func(mt *mtest.T) {
		svc, recorder := newMockService(mt)

		first := bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "Olivia"}}
		second := bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "Black"}}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, first, second))

		docs, err := svc.FindMany(context.Background(), testDB, testColl, bson.D{})
		if err != nil {
			mt.Fatal(err)
		}
		if len(docs) != 2 {
			mt.Fatalf("expected 2 documents, got %d", len(docs))
		}
		if docs[1].Map()["name"] != "Black" {
			mt.Errorf("unexpected second document %v", docs[1])
		}
		if recorder.Count(OpFindMany, metrics.StatusOK) != 1 {
			mt.Error("expected one successful find_many in metrics")
		}
	})

	mt.Run("empty result is not nil", func(mt *mtest.T) {
		svc, _ := newMockService(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch))

		docs, err := svc.FindMany(context.Background(), testDB, testColl, nil)
		if err != nil {
			mt.Fatal(err)
		}
		if docs == nil || len(docs) != 0 {
			mt.Fatalf("expected empty slice, got %v", docs)
		}
	})

	mt.Run("propagates server errors", func(mt *mtest.T) {
		svc, recorder := newMockService(mt)
		mt.AddMockResponses(badValue("unknown operator: $bogus"))

		_, err := svc.FindMany(context.Background(), testDB, testColl, bson.D{{Key: "$bogus", Value: 1}})

		var opErr *OperationError
		if !errors.As(err, &opErr) {
			mt.Fatalf("expected *OperationError, got %v", err)
		}
		if opErr.Op != OpFindMany || opErr.Namespace != testNS {
			mt.Errorf("unexpected error context %s %s", opErr.Op, opErr.Namespace)
		}
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Code != 2 {
			mt.Errorf("expected the driver error to be wrapped, got %v", err)
		}
		if recorder.Count(OpFindMany, metrics.StatusError) != 1 {
			mt.Error("expected one failed find_many in metrics")
		}
	})
}

func TestOperationTimeout(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("expired deadline fails the call", func(mt *mtest.T) {
		recorder := metrics.NewRecorder()
		svc := NewDocumentService(mt.Client, nil, WithTimeout(time.Nanosecond), WithMetrics(recorder))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch))

		_, err := svc.FindMany(context.Background(), testDB, testColl, bson.D{})

		var opErr *OperationError
		if !errors.As(err, &opErr) || opErr.Op != OpFindMany {
			mt.Fatalf("expected *OperationError for find_many, got %v", err)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			mt.Fatalf("expected context.DeadlineExceeded, got %v", err)
		}
		if recorder.Count(OpFindMany, metrics.StatusError) != 1 {
			mt.Error("expected the timeout to be counted as a failure")
		}
	})
}

func TestInsertThenFind(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("inserted document is found", func(mt *mtest.T) {
		svc, _ := newMockService(mt)
		doc := bson.D{{Key: "name", Value: "Olivia"}, {Key: "nation", Value: "Peru"}}

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		id, err := svc.InsertOne(context.Background(), testDB, testColl, doc)
		if err != nil {
			mt.Fatal(err)
		}
		if id.IsZero() {
			mt.Fatal("expected a generated ObjectID")
		}

		insertEvt := mt.GetStartedEvent()
		if insertEvt == nil || insertEvt.CommandName != "insert" {
			mt.Fatalf("expected an insert command, got %v", insertEvt)
		}
		if name := insertEvt.Command.Lookup("documents", "0", "name").StringValue(); name != "Olivia" {
			mt.Errorf("unexpected document sent: %s", insertEvt.Command)
		}

		stored := append(bson.D{{Key: "_id", Value: id}}, doc...)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, stored))

		docs, err := svc.FindMany(context.Background(), testDB, testColl, bson.D{{Key: "name", Value: "Olivia"}})
		if err != nil {
			mt.Fatal(err)
		}
		if len(docs) != 1 {
			mt.Fatalf("expected exactly one document, got %d", len(docs))
		}

		found := docs[0].Map()
		if found["_id"] != id {
			mt.Errorf("expected _id %s, got %v", id.Hex(), found["_id"])
		}
		for _, e := range doc {
			if found[e.Key] != e.Value {
				mt.Errorf("field %s: expected %v, got %v", e.Key, e.Value, found[e.Key])
			}
		}
	})

	mt.Run("non ObjectID _id is rejected", func(mt *mtest.T) {
		svc, _ := newMockService(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		_, err := svc.InsertOne(context.Background(), testDB, testColl, bson.D{{Key: "_id", Value: "olivia"}})
		if !errors.Is(err, ErrUnexpectedInsertedID) {
			mt.Fatalf("expected ErrUnexpectedInsertedID, got %v", err)
		}
	})
}

func TestUpdateOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	filter := bson.D{{Key: "name", Value: "Black"}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "nation", Value: "USA"}}}}

	mt.Run("modifies one document", func(mt *mtest.T) {
		svc, _ := newMockService(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		modified, err := svc.UpdateOne(context.Background(), testDB, testColl, filter, update)
		if err != nil {
			mt.Fatal(err)
		}
		if modified != 1 {
			mt.Fatalf("expected 1 modified document, got %d", modified)
		}
	})

	mt.Run("no match is not an error", func(mt *mtest.T) {
		svc, _ := newMockService(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		modified, err := svc.UpdateOne(context.Background(), testDB, testColl, filter, update)
		if err != nil {
			mt.Fatalf("expected no error, got %v", err)
		}
		if modified != 0 {
			mt.Fatalf("expected 0 modified documents, got %d", modified)
		}
	})

	mt.Run("update without operator is rejected", func(mt *mtest.T) {
		svc, _ := newMockService(mt)

		_, err := svc.UpdateOne(context.Background(), testDB, testColl, filter, bson.D{{Key: "nation", Value: "USA"}})
		var opErr *OperationError
		if !errors.As(err, &opErr) {
			mt.Fatalf("expected *OperationError, got %v", err)
		}
	})
}

func TestDeleteMany(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	filters := []bson.D{
		{{Key: "name", Value: "A"}},
		{{Key: "name", Value: "B"}},
	}

	mt.Run("sums deleted counts", func(mt *mtest.T) {
		svc, _ := newMockService(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		deleted, err := svc.DeleteMany(context.Background(), testDB, testColl, filters)
		if err != nil {
			mt.Fatal(err)
		}
		if deleted != 3 {
			mt.Fatalf("expected 3 deleted documents, got %d", deleted)
		}
	})

	mt.Run("failing filter surfaces an error", func(mt *mtest.T) {
		svc, _ := newMockService(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}),
			badValue("unknown top level operator: $bogus"),
		)

		invalid := []bson.D{
			{{Key: "name", Value: "A"}},
			{{Key: "$bogus", Value: 1}},
		}
		deleted, err := svc.DeleteMany(context.Background(), testDB, testColl, invalid)
		if err == nil {
			mt.Fatal("expected an error")
		}

		var batchErr *BatchDeleteError
		if !errors.As(err, &batchErr) {
			mt.Fatalf("expected *BatchDeleteError, got %v", err)
		}
		if batchErr.Index != 1 {
			mt.Errorf("expected failing index 1, got %d", batchErr.Index)
		}
		if deleted != batchErr.Deleted || deleted != 2 {
			mt.Errorf("expected partial count 2, got %d (error reports %d)", deleted, batchErr.Deleted)
		}
		var opErr *OperationError
		if !errors.As(err, &opErr) || opErr.Op != OpDeleteMany {
			mt.Errorf("expected wrapped *OperationError, got %v", err)
		}
	})

	mt.Run("no filters deletes nothing", func(mt *mtest.T) {
		svc, _ := newMockService(mt)

		deleted, err := svc.DeleteMany(context.Background(), testDB, testColl, nil)
		if err != nil || deleted != 0 {
			mt.Fatalf("expected 0, nil; got %d, %v", deleted, err)
		}
	})
}
