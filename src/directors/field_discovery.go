package directors

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/multierr"
)

// fieldSummary is the single record produced by FieldDiscoveryPipeline
type fieldSummary struct {
	AllKeys bson.A `bson:"allKeys"`
}

// FieldDiscoveryPipeline folds the top-level keys of every document into one record
// {_id: null, allKeys: [...]} on the server, so no raw document reaches the client.
func FieldDiscoveryPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		// each document becomes a list of {k, v} pairs
		{{Key: "$project", Value: bson.D{
			{Key: "keys", Value: bson.D{{Key: "$objectToArray", Value: "$$ROOT"}}},
		}}},
		// keep only the key names
		{{Key: "$project", Value: bson.D{
			{Key: "keys", Value: "$keys.k"},
		}}},
		// collect the distinct key lists in one record
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "allKeys", Value: bson.D{{Key: "$addToSet", Value: "$keys"}}},
		}}},
		// union the lists into one flat set
		{{Key: "$project", Value: bson.D{
			{Key: "allKeys", Value: bson.D{{Key: "$reduce", Value: bson.D{
				{Key: "input", Value: "$allKeys"},
				{Key: "initialValue", Value: bson.A{}},
				{Key: "in", Value: bson.D{{Key: "$setUnion", Value: bson.A{"$$value", "$$this"}}}},
			}}}},
		}}},
	}
}

// FetchCollectionFields returns the union of the top-level field names of all documents
// in a collection, sorted. An empty collection yields an empty slice.
func (s *DocumentService) FetchCollectionFields(ctx context.Context, database, collection string) ([]string, error) {
	ns := namespace(database, collection)

	fields := []string{}
	err := s.run(ctx, OpFetchCollectionFields, func(ctx context.Context) (err error) {
		cursor, err := s.collection(database, collection).Aggregate(ctx, FieldDiscoveryPipeline())
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, cursor.Close(ctx))
		}()

		// the $group stage emits nothing for an empty collection
		if cursor.Next(ctx) {
			var summary fieldSummary
			if err := cursor.Decode(&summary); err != nil {
				return err
			}
			fields = fieldNames(summary.AllKeys)
		}
		return cursor.Err()
	})
	if err != nil {
		return nil, s.fail(OpFetchCollectionFields, ns, err)
	}

	s.logger.Debugw("collection fields discovered", "namespace", ns, "count", len(fields))
	return fields, nil
}

// fieldNames deduplicates and sorts the string entries of the summary, skipping anything else
func fieldNames(values bson.A) []string {
	seen := make(map[string]struct{}, len(values))
	names := make([]string, 0, len(values))

	for _, v := range values {
		name, ok := v.(string)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}
