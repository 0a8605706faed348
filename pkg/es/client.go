package es

import (
	"context"
	"time"

	elastic "github.com/olivere/elastic/v7"
)

// Backoff configures exponential backoff retries for Elasticsearch requests.
type Backoff struct {
	// Initial retry wait.
	Init time.Duration

	// Max retry wait. If <= 0, requests and the initial
	// connection are not retried.
	Max time.Duration
}

// DialContextRetry returns a new Elasticsearch client that retries failed
// requests with exponential backoff. Unlike elastic.DialContext it also
// retries the initial connection.
//
// Non-connection errors are returned immediately.
func DialContextRetry(ctx context.Context, b Backoff, options ...elastic.ClientOptionFunc) (*elastic.Client, error) {
	if b.Max <= 0 {
		return elastic.DialContext(ctx, options...)
	}
	retrier := elastic.NewBackoffRetrier(elastic.NewExponentialBackoff(b.Init, b.Max))
	options = append(options, elastic.SetRetrier(retrier))
	for i := 0; ; i++ {
		c, err := elastic.DialContext(ctx, options...)
		if err == nil {
			return c, nil
		}
		if !elastic.IsConnErr(err) {
			return nil, err
		}
		wait, goahead, _ := retrier.Retry(ctx, i, nil, nil, err)
		if !goahead {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
