package db

import (
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Keyword lists live in text columns as JSON arrays.

func encodeKeywords(keywords []string) (string, error) {
	if keywords == nil {
		keywords = []string{}
	}
	b, err := json.Marshal(keywords)
	if err != nil {
		return "", errors.Wrap(err, "encoding keywords")
	}
	return string(b), nil
}

func decodeKeywords(text string) ([]string, error) {
	keywords := []string{}
	if text == "" || text == "null" {
		return keywords, nil
	}
	if err := json.Unmarshal([]byte(text), &keywords); err != nil {
		return nil, errors.Wrapf(err, "decoding keywords %q", text)
	}
	if keywords == nil {
		keywords = []string{}
	}
	return keywords, nil
}
