package gcp

import (
	"encoding/json"
	"strings"

	"github.com/gruntwork-io/cloud-inventory/internal/crawler"
	"github.com/gruntwork-io/cloud-inventory/internal/errors"
	"google.golang.org/api/iterator"
)

// toRaw converts a generated API struct to its untyped wire form so the record's field names
// match what the crawl engine expects ("projectId", "lifecycleState", "id", ...).
func toRaw(v any) (crawler.RawRecord, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	var record crawler.RawRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.WithStackTrace(err)
	}

	return record, nil
}

// pageFunc fetches one page of records given the previous page's token. It returns the records,
// the next page token ("" for the last page), and an error.
type pageFunc func(pageToken string) ([]crawler.RawRecord, string, error)

// pageIterator adapts page-based list APIs to the crawler's lazy iterator contract. No API call
// is made before the first Next; the sequence is single-use and never restarts.
type pageIterator struct {
	fetch pageFunc
	buf   []crawler.RawRecord
	token string
	done  bool
	err   error
}

func newPageIterator(fetch pageFunc) *pageIterator {
	return &pageIterator{fetch: fetch}
}

func (it *pageIterator) Next() (crawler.RawRecord, error) {
	if it.err != nil {
		return nil, it.err
	}

	for len(it.buf) == 0 {
		if it.done {
			return nil, iterator.Done
		}

		records, nextToken, err := it.fetch(it.token)
		if err != nil {
			it.err = err

			return nil, err
		}

		it.buf = records
		it.token = nextToken

		if nextToken == "" {
			it.done = true
		}
	}

	record := it.buf[0]
	it.buf = it.buf[1:]

	return record, nil
}

// splitObjectID splits a GCS object id of the form "<bucket>/<object>/<generation>" into bucket
// and object names. Object names may themselves contain slashes.
func splitObjectID(id string) (bucket, object string, err error) {
	first := strings.Index(id, "/")
	last := strings.LastIndex(id, "/")

	if first == -1 || first == last {
		return "", "", errors.Errorf("malformed GCS object id %q", id)
	}

	return id[:first], id[first+1 : last], nil
}
