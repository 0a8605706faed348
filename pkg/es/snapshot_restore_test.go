package es

import (
	"net/http"
	"testing"

	elastic "github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gock "gopkg.in/h2non/gock.v1"

	"github.com/mintel/elasticsearch-curator/internal/pkg/testutil" // Testing utilities.
)

func TestSnapshotRestoreService(t *testing.T) {
	const u = "http://127.0.0.1:9200"
	ctx, _, teardown := testutil.ClientTestSetup(t)
	defer teardown()

	client, err := elastic.NewSimpleClient(elastic.SetURL(u))
	require.NoError(t, err)

	gock.New(u).
		Post("/_snapshot/backups/curator-2019.10.01/_restore").
		MatchParam("wait_for_completion", "false").
		JSON(b{
			"indices":            "logstash-2019.10.01,logstash-2019.10.02",
			"rename_pattern":     "(.+)",
			"rename_replacement": "restored_$1",
			"include_aliases":    false,
		}).
		Reply(http.StatusOK).
		JSON(b{"accepted": true})

	resp, err := NewSnapshotRestoreService(client).
		Repository("backups").
		Snapshot("curator-2019.10.01").
		Indices("logstash-2019.10.01", "logstash-2019.10.02").
		Rename("(.+)", "restored_$1").
		IncludeAliases(false).
		WaitForCompletion(false).
		Do(ctx)
	require.NoError(t, err)
	if assert.NotNil(t, resp.Accepted) {
		assert.True(t, *resp.Accepted)
	}
	assert.True(t, gock.IsDone())
}

func TestSnapshotRestoreService_Validate(t *testing.T) {
	client, err := elastic.NewSimpleClient()
	require.NoError(t, err)

	err = NewSnapshotRestoreService(client).Validate()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "Repository")
		assert.Contains(t, err.Error(), "Snapshot")
	}
	assert.NoError(t, NewSnapshotRestoreService(client).Repository("r").Snapshot("s").Validate())
}
