package es

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintel/elasticsearch-curator/internal/pkg/testutil"
)

func TestIntegration(t *testing.T) {
	es, client, err := testutil.RunElasticsearch(t)
	require.NoError(t, err)
	defer es.Close()
	defer client.Stop()

	ctx := context.Background()

	_, err = client.CreateIndex("logstash-2019.10.01").Do(ctx)
	require.NoError(t, err)
	_, err = client.CloseIndex("logstash-2019.10.01").Do(ctx)
	require.NoError(t, err)

	t.Run("cat indices", func(t *testing.T) {
		resp, err := NewCatIndicesService(client).Index("logstash-*").Do(ctx)
		require.NoError(t, err)
		if assert.Len(t, resp, 1) {
			assert.Equal(t, "close", resp[0].Status)
			assert.False(t, resp[0].Created().IsZero())
		}
	})

	t.Run("cluster settings", func(t *testing.T) {
		_, err := NewClusterPutSettingsService(client).Transient(routingSetting, "primaries").Do(ctx)
		require.NoError(t, err)

		resp, err := NewClusterGetSettingsService(client).Defaults(true).Do(ctx)
		require.NoError(t, err)
		assert.Equal(t, "primaries", resp.Effective(routingSetting).String())

		_, err = NewClusterPutSettingsService(client).Transient(routingSetting, nil).Do(ctx)
		require.NoError(t, err)
	})
}
