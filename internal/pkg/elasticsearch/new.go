package elasticsearch

import (
	"context"

	elastic "github.com/olivere/elastic/v7"

	"github.com/mintel/elasticsearch-curator/pkg/es" // Elasticsearch client extensions
)

// New returns both a new Command and Query sharing one client.
// The initial connection is retried with b.
func New(ctx context.Context, b es.Backoff, options ...elastic.ClientOptionFunc) (*Command, *Query, error) {
	client, err := es.DialContextRetry(ctx, b, options...)
	if err != nil {
		return nil, nil, err
	}
	return NewCommand(client), NewQuery(client), nil
}
