package curator

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintel/elasticsearch-curator/internal/pkg/elasticsearch"
	"github.com/mintel/elasticsearch-curator/internal/pkg/filter"
	"github.com/mintel/elasticsearch-curator/internal/pkg/testutil"
	"github.com/mintel/elasticsearch-curator/pkg/ctxlog"
)

func TestIntegration(t *testing.T) {
	es, client, err := testutil.RunElasticsearch(t)
	require.NoError(t, err)
	defer es.Close()
	defer client.Stop()

	logger, teardown := testutil.TestLogger(t)
	defer teardown()
	ctx := ctxlog.WithLogger(context.Background(), logger)

	for _, name := range []string{"logs-2023.01.01", "logs-2023.06.01", ".kibana_1"} {
		_, err := client.CreateIndex(name).
			BodyString(`{"settings": {"number_of_shards": 1, "number_of_replicas": 0}}`).
			Do(ctx)
		require.NoError(t, err)
	}
	_, err = client.SnapshotCreateRepository("backups").
		Type("fs").
		Settings(map[string]interface{}{"location": "/tmp/snapshots/backups"}).
		Do(ctx)
	require.NoError(t, err)

	inv := NewInvoker(elasticsearch.NewQuery(client), elasticsearch.NewCommand(client))
	indexNames := func() []string {
		names, err := client.IndexNames()
		require.NoError(t, err)
		sort.Strings(names)
		return names
	}

	// Snapshot every index.
	report, err := inv.Invoke(ctx, Invocation{
		Domain:  "snapshots",
		Command: "snapshot",
		Options: map[string]interface{}{
			"repository":          "backups",
			"name":                "curator-test",
			"wait_for_completion": true,
		},
	})
	require.NoError(t, err)
	assert.NoError(t, report.Err())

	// Close one index.
	report, err = inv.Invoke(ctx, Invocation{
		Domain:  "indices",
		Command: "close",
		Filters: filter.Spec{{FilterType: filter.TypePattern, Kind: "suffix", Value: "01.01"}},
	})
	require.NoError(t, err)
	assert.NoError(t, report.Err())
	assert.Equal(t, []string{"logs-2023.01.01"}, report.Selected.Names())

	// Deleting everything spares kibana.
	report, err = inv.Invoke(ctx, Invocation{Domain: "indices", Command: "delete"})
	require.NoError(t, err)
	assert.NoError(t, report.Err())
	assert.Equal(t, []string{".kibana_1"}, indexNames())

	// Nothing left to delete.
	_, err = inv.Invoke(ctx, Invocation{
		Domain:  "indices",
		Command: "delete",
		Filters: filter.Spec{{FilterType: filter.TypePattern, Kind: "prefix", Value: "logs-"}},
	})
	assert.IsType(t, &filter.NoMatchError{}, err)

	// Delete the snapshot.
	report, err = inv.Invoke(ctx, Invocation{
		Domain:  "snapshots",
		Command: "delete",
		Options: map[string]interface{}{"repository": "backups"},
	})
	require.NoError(t, err)
	assert.NoError(t, report.Err())
	assert.Equal(t, []string{"curator-test"}, report.Selected.Names())
}
