package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"docdbctl/src/directors"
	"docdbctl/src/helpers"

	"go.mongodb.org/mongo-driver/bson"
)

func printDocuments(w io.Writer, docs []bson.D) error {
	for _, doc := range docs {
		line, err := helpers.FormatDocument(doc)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func printDatabases(w io.Writer, databases []directors.DatabaseInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE_ON_DISK")
	for _, db := range databases {
		fmt.Fprintf(tw, "%s\t%d\n", db.Name, db.SizeOnDisk)
	}
	return tw.Flush()
}

func printLines(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
