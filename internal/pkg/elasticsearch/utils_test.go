package elasticsearch

import (
	"context"
	"testing"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client

	"github.com/mintel/elasticsearch-curator/internal/pkg/testutil"
)

const localhost = "http://127.0.0.1:9200"

// b is a quick and dirty map type for specifying JSON bodies.
type b map[string]interface{}

// setup intercepts HTTP requests with gock and returns a client pointed
// at a fake Elasticsearch URL, plus a context carrying a test logger.
func setup(t *testing.T) (context.Context, string, *elastic.Client, func()) {
	ctx, _, teardown := testutil.ClientTestSetup(t)
	client, err := elastic.NewSimpleClient(elastic.SetURL(localhost))
	if err != nil {
		teardown()
		t.Fatalf("couldn't create elastic client: %s", err)
	}
	return ctx, localhost, client, teardown
}
