package helpers

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// ParseDocument decodes a relaxed Extended JSON object into an ordered document.
// An empty input yields an empty document, which matches every record when used as a filter.
func ParseDocument(input string) (bson.D, error) {
	input = StripQuotes(input)
	if input == "" {
		return bson.D{}, nil
	}

	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(input), false, &doc); err != nil {
		return nil, fmt.Errorf("error decoding document %q: %w", input, err)
	}
	if doc == nil {
		doc = bson.D{}
	}
	return doc, nil
}

// ParseDocumentList accepts either a single object or a JSON array of objects.
func ParseDocumentList(input string) ([]bson.D, error) {
	input = StripQuotes(input)
	if !strings.HasPrefix(input, "[") {
		doc, err := ParseDocument(input)
		if err != nil {
			return nil, err
		}
		return []bson.D{doc}, nil
	}

	// Extended JSON only allows a document at the top level
	var wrapper struct {
		Docs []bson.D `bson:"docs"`
	}
	if err := bson.UnmarshalExtJSON([]byte(`{"docs":`+input+`}`), false, &wrapper); err != nil {
		return nil, fmt.Errorf("error decoding document list: %w", err)
	}
	return wrapper.Docs, nil
}

// FormatDocument renders a document as relaxed Extended JSON on a single line
func FormatDocument(doc interface{}) (string, error) {
	out, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return "", fmt.Errorf("error encoding document: %w", err)
	}
	return string(out), nil
}

// DocumentKeys returns the top-level keys of a document in order
func DocumentKeys(doc bson.D) []string {
	keys := make([]string, 0, len(doc))
	for _, e := range doc {
		keys = append(keys, e.Key)
	}
	return keys
}
