package directors

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// DatabaseInfo describes one database on the server
type DatabaseInfo struct {
	Name       string
	SizeOnDisk int64
}

// ListDatabases returns the name and on-disk size of every database
func (s *DocumentService) ListDatabases(ctx context.Context) ([]DatabaseInfo, error) {
	databases := make([]DatabaseInfo, 0)
	err := s.run(ctx, OpListDatabases, func(ctx context.Context) error {
		result, err := s.client.ListDatabases(ctx, bson.D{})
		if err != nil {
			return err
		}
		for _, db := range result.Databases {
			databases = append(databases, DatabaseInfo{
				Name:       db.Name,
				SizeOnDisk: db.SizeOnDisk,
			})
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(OpListDatabases, "", err)
	}

	s.logger.Debugw("databases listed", "count", len(databases))
	return databases, nil
}

// FetchCollections returns the collection names of a database
func (s *DocumentService) FetchCollections(ctx context.Context, database string) ([]string, error) {
	var names []string
	err := s.run(ctx, OpFetchCollections, func(ctx context.Context) error {
		var err error
		names, err = s.client.Database(database).ListCollectionNames(ctx, bson.D{})
		return err
	})
	if err != nil {
		return nil, s.fail(OpFetchCollections, database, err)
	}
	if names == nil {
		names = []string{}
	}

	s.logger.Debugw("collections listed", "database", database, "count", len(names))
	return names, nil
}
