package cmd

import (
	"errors"
	"fmt"

	"docdbctl/src/dbclient"
	"docdbctl/src/helpers"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
)

// ErrNotAlive is returned by the ping command when the server stops answering
var ErrNotAlive = errors.New("database server is not alive")

func (c *CLI) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of docdbctl",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "docdbctl v%s\n", Version)
		},
	}
}

func (c *CLI) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Connects and checks that the server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.connect(cmd); err != nil {
				return err
			}
			manager, err := dbclient.GetConnectionManager()
			if err != nil {
				return err
			}
			if !manager.IsAlive(cmd.Context()) {
				return ErrNotAlive
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func (c *CLI) findCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find [database] [collection] [filter]",
		Short: "Prints all documents matching the filter, one per line",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := bson.D{}
			if len(args) == 3 {
				var err error
				if filter, err = helpers.ParseDocument(args[2]); err != nil {
					return fmt.Errorf("filter: %w", err)
				}
			}

			svc, err := c.connect(cmd)
			if err != nil {
				return err
			}
			docs, err := svc.FindMany(cmd.Context(), args[0], args[1], filter)
			if err != nil {
				return err
			}
			return printDocuments(cmd.OutOrStdout(), docs)
		},
	}
}

func (c *CLI) insertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert [database] [collection] [document]",
		Short: "Inserts a document and prints its generated id",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := helpers.ParseDocument(args[2])
			if err != nil {
				return fmt.Errorf("document: %w", err)
			}

			svc, err := c.connect(cmd)
			if err != nil {
				return err
			}
			id, err := svc.InsertOne(cmd.Context(), args[0], args[1], doc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id.Hex())
			return nil
		},
	}
}

func (c *CLI) updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update [database] [collection] [filter] [update]",
		Short: "Updates at most one matching document",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := helpers.ParseDocument(args[2])
			if err != nil {
				return fmt.Errorf("filter: %w", err)
			}
			update, err := helpers.ParseDocument(args[3])
			if err != nil {
				return fmt.Errorf("update: %w", err)
			}

			svc, err := c.connect(cmd)
			if err != nil {
				return err
			}
			modified, err := svc.UpdateOne(cmd.Context(), args[0], args[1], filter, update)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "modified=%d\n", modified)
			return nil
		},
	}
}

func (c *CLI) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [database] [collection] [filter]...",
		Short: "Deletes all documents matching each filter, in order",
		Long: WrapString(`Deletes all documents matching each filter, in order. A filter may also be a JSON array of filters.
The filters are not applied atomically: when one fails, the documents deleted by the earlier filters stay deleted and their count is printed before the error.`),
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filters []bson.D
			for _, arg := range args[2:] {
				docs, err := helpers.ParseDocumentList(arg)
				if err != nil {
					return fmt.Errorf("filter: %w", err)
				}
				filters = append(filters, docs...)
			}

			svc, err := c.connect(cmd)
			if err != nil {
				return err
			}
			deleted, err := svc.DeleteMany(cmd.Context(), args[0], args[1], filters)
			fmt.Fprintf(cmd.OutOrStdout(), "deleted=%d\n", deleted)
			return err
		},
	}
}

func (c *CLI) databasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dbs",
		Aliases: []string{"databases"},
		Short:   "Lists databases with their size on disk",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.connect(cmd)
			if err != nil {
				return err
			}
			databases, err := svc.ListDatabases(cmd.Context())
			if err != nil {
				return err
			}
			return printDatabases(cmd.OutOrStdout(), databases)
		},
	}
}

func (c *CLI) collectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collections [database]",
		Short: "Lists the collections of a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.connect(cmd)
			if err != nil {
				return err
			}
			names, err := svc.FetchCollections(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printLines(cmd.OutOrStdout(), names)
			return nil
		},
	}
}

func (c *CLI) fieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields [database] [collection]",
		Short: "Lists every top-level field name used in a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.connect(cmd)
			if err != nil {
				return err
			}
			fields, err := svc.FetchCollectionFields(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			printLines(cmd.OutOrStdout(), fields)
			return nil
		},
	}
}
