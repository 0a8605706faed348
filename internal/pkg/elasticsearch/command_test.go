package elasticsearch

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"  // Test assertions e.g. equality
	"github.com/stretchr/testify/require" // Test assertions that stop the test
	gock "gopkg.in/h2non/gock.v1"         // HTTP endpoint mocking

	"github.com/mintel/elasticsearch-curator/internal/pkg/action"
)

const routingSetting = "cluster.routing.allocation.enable"

// newTestCommand returns a Command with a fixed clock and fast polling.
func newTestCommand(t *testing.T) (context.Context, string, *Command, func()) {
	ctx, u, client, teardown := setup(t)
	cmd := NewCommand(client)
	cmd.now = func() time.Time { return time.Date(2019, 10, 1, 4, 0, 1, 0, time.UTC) }
	cmd.pollInterval = time.Millisecond
	return ctx, u, cmd, teardown
}

func TestCommand_Alias(t *testing.T) {
	ctx, u, cmd, teardown := newTestCommand(t)
	defer teardown()

	gock.New(u).
		Post("/_aliases").
		BodyString(`"add"`).
		Reply(http.StatusOK).
		JSON(b{"acknowledged": true})
	err := cmd.Alias(ctx, []string{"a", "b"}, action.AliasOptions{Name: "current"})
	assert.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestCommand_Close(t *testing.T) {
	t.Run("flush-then-close", func(t *testing.T) {
		ctx, u, cmd, teardown := newTestCommand(t)
		defer teardown()

		gock.New(u).
			Post("/a,b/_flush").
			Reply(http.StatusOK).
			JSON(b{"_shards": b{"total": 2, "successful": 2, "failed": 0}})
		gock.New(u).
			Post("/a,b/_close").
			Reply(http.StatusOK).
			JSON(b{"acknowledged": true})
		err := cmd.Close(ctx, []string{"a", "b"}, action.CloseOptions{})
		assert.NoError(t, err)
		assert.True(t, gock.IsDone())
	})

	t.Run("flush-error-is-not-fatal", func(t *testing.T) {
		ctx, u, cmd, teardown := newTestCommand(t)
		defer teardown()

		gock.New(u).
			Post("/a/_flush").
			Reply(http.StatusInternalServerError).
			JSON(b{"error": "boom", "status": 500})
		gock.New(u).
			Post("/a/_close").
			Reply(http.StatusOK).
			JSON(b{"acknowledged": true})
		err := cmd.Close(ctx, []string{"a"}, action.CloseOptions{})
		assert.NoError(t, err)
		assert.True(t, gock.IsDone())
	})

	t.Run("delete-aliases-skip-flush", func(t *testing.T) {
		ctx, u, cmd, teardown := newTestCommand(t)
		defer teardown()

		gock.New(u).
			Post("/_aliases").
			BodyString(`"remove"`).
			Reply(http.StatusOK).
			JSON(b{"acknowledged": true})
		gock.New(u).
			Post("/a/_close").
			Reply(http.StatusOK).
			JSON(b{"acknowledged": true})
		err := cmd.Close(ctx, []string{"a"}, action.CloseOptions{DeleteAliases: true, SkipFlush: true})
		assert.NoError(t, err)
		assert.True(t, gock.IsDone())
	})
}

func TestCommand_ClusterRouting(t *testing.T) {
	ctx, u, cmd, teardown := newTestCommand(t)
	defer teardown()

	o := action.ClusterRoutingOptions{
		RoutingType: "allocation",
		Setting:     "enable",
		Value:       "none",
	}

	t.Run("put", func(t *testing.T) {
		gock.New(u).
			Get("/_cluster/settings").
			Reply(http.StatusOK).
			JSON(b{"persistent": b{}, "transient": b{}})
		gock.New(u).
			Put("/_cluster/settings").
			JSON(b{"transient": b{routingSetting: "none"}}).
			Reply(http.StatusOK).
			JSON(b{"acknowledged": true, "persistent": b{}, "transient": b{routingSetting: "none"}})
		err := cmd.ClusterRouting(ctx, o)
		assert.NoError(t, err)
		assert.True(t, gock.IsDone())
	})

	// Setting the same value again shouldn't need to PUT any settings.
	t.Run("already-set", func(t *testing.T) {
		gock.New(u).
			Get("/_cluster/settings").
			Reply(http.StatusOK).
			JSON(b{"persistent": b{}, "transient": b{"cluster": b{"routing": b{"allocation": b{"enable": "none"}}}}})
		err := cmd.ClusterRouting(ctx, o)
		assert.NoError(t, err)
		assert.True(t, gock.IsDone())
	})
}

func TestCommand_CreateIndex(t *testing.T) {
	ctx, u, cmd, teardown := newTestCommand(t)
	defer teardown()

	gock.New(u).
		Put("/logs-2019.10.01").
		JSON(b{"settings": b{"number_of_shards": 1}}).
		Reply(http.StatusOK).
		JSON(b{"acknowledged": true, "index": "logs-2019.10.01"})
	err := cmd.CreateIndex(ctx, action.CreateIndexOptions{
		Name:          "logs-%Y.%m.%d",
		ExtraSettings: map[string]interface{}{"settings": map[string]interface{}{"number_of_shards": 1}},
	})
	assert.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestCommand_DeleteIndices(t *testing.T) {
	ctx, u, cmd, teardown := newTestCommand(t)
	defer teardown()

	gock.New(u).
		Delete("/a,b").
		MatchParam("master_timeout", "30s").
		Reply(http.StatusOK).
		JSON(b{"acknowledged": true})
	err := cmd.DeleteIndices(ctx, []string{"a", "b"}, action.DeleteIndicesOptions{MasterTimeout: 30 * time.Second})
	assert.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestCommand_ForceMerge(t *testing.T) {
	ctx, u, cmd, teardown := newTestCommand(t)
	defer teardown()

	var slept []time.Duration
	cmd.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	for _, index := range []string{"a", "b", "c"} {
		gock.New(u).
			Post("/" + index + "/_forcemerge").
			MatchParam("max_num_segments", "1").
			Reply(http.StatusOK).
			JSON(b{"_shards": b{"total": 1, "successful": 1, "failed": 0}})
	}
	err := cmd.ForceMerge(ctx, []string{"a", "b", "c"}, action.ForceMergeOptions{
		MaxNumSegments: 1,
		Delay:          time.Minute,
	})
	assert.NoError(t, err)
	assert.True(t, gock.IsDone())
	assert.Equal(t, []time.Duration{time.Minute, time.Minute}, slept, "delay only between indices")
}

func TestCommand_IndexSettings(t *testing.T) {
	ctx, u, cmd, teardown := newTestCommand(t)
	defer teardown()

	settings := b{"index": b{"refresh_interval": "30s"}}
	gock.New(u).
		Put("/a,b/_settings").
		MatchParam("preserve_existing", "true").
		MatchParam("ignore_unavailable", "true").
		JSON(settings).
		Reply(http.StatusOK).
		JSON(b{"acknowledged": true})
	err := cmd.IndexSettings(ctx, []string{"a", "b"}, action.IndexSettingsOptions{
		IndexSettings:     settings,
		IgnoreUnavailable: true,
		PreserveExisting:  true,
	})
	assert.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestCommand_Replicas(t *testing.T) {
	ctx, u, cmd, teardown := newTestCommand(t)
	defer teardown()

	gock.New(u).
		Put("/a/_settings").
		JSON(b{"index.number_of_replicas": 2}).
		Reply(http.StatusOK).
		JSON(b{"acknowledged": true})
	gock.New(u).
		Get("/_cluster/health/a").
		Reply(http.StatusOK).
		JSON(b{"status": "yellow", "relocating_shards": 0, "initializing_shards": 3})
	gock.New(u).
		Get("/_cluster/health/a").
		Reply(http.StatusOK).
		JSON(b{"status": "green", "relocating_shards": 0, "initializing_shards": 0})
	err := cmd.Replicas(ctx, []string{"a"}, action.ReplicasOptions{
		Count:             2,
		WaitForCompletion: true,
		Timeout:           time.Minute,
	})
	assert.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestCommand_Restore(t *testing.T) {
	t.Run("latest", func(t *testing.T) {
		ctx, u, cmd, teardown := newTestCommand(t)
		defer teardown()

		gock.New(u).
			Get("/_snapshot/backups/").
			Reply(http.StatusOK).
			JSON(b{"snapshots": []b{
				{"snapshot": "curator-1", "state": "SUCCESS", "start_time_in_millis": 1000},
				{"snapshot": "curator-3", "state": "FAILED", "start_time_in_millis": 3000},
				{"snapshot": "curator-2", "state": "SUCCESS", "start_time_in_millis": 2000},
			}})
		gock.New(u).
			Post("/_snapshot/backups/curator-2/_restore").
			MatchParam("wait_for_completion", "true").
			BodyString(`"indices":"a,b"`).
			Reply(http.StatusOK).
			JSON(b{"snapshot": b{"snapshot": "curator-2", "indices": []string{"a", "b"}, "shards": b{"total": 2, "failed": 0, "successful": 2}}})
		err := cmd.Restore(ctx, []string{"a", "b"}, action.RestoreOptions{
			Repository:        "backups",
			WaitForCompletion: true,
		})
		assert.NoError(t, err)
		assert.True(t, gock.IsDone())
	})

	t.Run("no-snapshot", func(t *testing.T) {
		ctx, u, cmd, teardown := newTestCommand(t)
		defer teardown()

		gock.New(u).
			Get("/_snapshot/backups/").
			Reply(http.StatusOK).
			JSON(b{"snapshots": []b{}})
		err := cmd.Restore(ctx, nil, action.RestoreOptions{Repository: "backups"})
		assert.Equal(t, ErrNoSnapshot, err)
	})
}

func TestCommand_Rollover(t *testing.T) {
	ctx, u, cmd, teardown := newTestCommand(t)
	defer teardown()

	gock.New(u).
		Post("/logs/_rollover").
		JSON(b{"conditions": b{"max_age": "1d"}}).
		Reply(http.StatusOK).
		JSON(b{
			"acknowledged": true,
			"old_index":    "logs-000001",
			"new_index":    "logs-000002",
			"rolled_over":  true,
			"dry_run":      false,
			"conditions":   b{"[max_age: 1d]": true},
		})
	err := cmd.Rollover(ctx, action.RolloverOptions{
		Name:       "logs",
		Conditions: map[string]interface{}{"max_age": "1d"},
	})
	assert.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestCommand_Shrink(t *testing.T) {
	ctx, u, cmd, teardown := newTestCommand(t)
	defer teardown()

	gock.New(u).
		Put("/a/_settings").
		JSON(b{"index.routing.allocation.require._name": "node-1", "index.blocks.write": true}).
		Reply(http.StatusOK).
		JSON(b{"acknowledged": true})
	gock.New(u).
		Get("/_cluster/health/a").
		Reply(http.StatusOK).
		JSON(b{"status": "green", "relocating_shards": 0, "initializing_shards": 0})
	gock.New(u).
		Post("/a/_shrink/a-shrink").
		BodyString(`"index.number_of_shards":1`).
		Reply(http.StatusOK).
		JSON(b{"acknowledged": true, "shards_acknowledged": true, "index": "a-shrink"})
	gock.New(u).
		Delete("/a").
		Reply(http.StatusOK).
		JSON(b{"acknowledged": true})
	err := cmd.Shrink(ctx, []string{"a"}, action.ShrinkOptions{
		ShrinkNode:       "node-1",
		NumberOfShards:   1,
		NumberOfReplicas: 1,
		ShrinkSuffix:     "-shrink",
		DeleteAfter:      true,
	})
	assert.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestCommand_Snapshot(t *testing.T) {
	ctx, u, cmd, teardown := newTestCommand(t)
	defer teardown()

	gock.New(u).
		Put("/_snapshot/backups/curator-20191001040001").
		MatchParam("wait_for_completion", "true").
		BodyString(`"indices":"a,b"`).
		Reply(http.StatusOK).
		JSON(b{"snapshot": b{"snapshot": "curator-20191001040001", "state": "SUCCESS"}})
	err := cmd.Snapshot(ctx, []string{"a", "b"}, action.SnapshotOptions{
		Repository:         "backups",
		Name:               "curator-%Y%m%d%H%M%S",
		IncludeGlobalState: true,
		WaitForCompletion:  true,
	})
	assert.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestCommand_Snapshot_failed(t *testing.T) {
	ctx, u, cmd, teardown := newTestCommand(t)
	defer teardown()

	gock.New(u).
		Put("/_snapshot/backups/nightly").
		Reply(http.StatusOK).
		JSON(b{"snapshot": b{"snapshot": "nightly", "state": "PARTIAL"}})
	err := cmd.Snapshot(ctx, []string{"a"}, action.SnapshotOptions{
		Repository:        "backups",
		Name:              "nightly",
		WaitForCompletion: true,
	})
	assert.Error(t, err)
}

func TestCommand_Execute(t *testing.T) {
	t.Run("delete-snapshots", func(t *testing.T) {
		ctx, u, cmd, teardown := newTestCommand(t)
		defer teardown()

		gock.New(u).
			Delete("/_snapshot/backups/curator-1").
			Reply(http.StatusOK).
			JSON(b{"acknowledged": true})
		err := cmd.Execute(ctx, action.DeleteSnapshots, []string{"curator-1"}, action.Options{"repository": "backups"})
		assert.NoError(t, err)
		assert.True(t, gock.IsDone())
	})

	t.Run("bad-options", func(t *testing.T) {
		ctx, _, cmd, teardown := newTestCommand(t)
		defer teardown()

		err := cmd.Execute(ctx, action.Replicas, []string{"a"}, action.Options{})
		require.Error(t, err)
		assert.IsType(t, &action.OptionError{}, err)
	})

	t.Run("error", func(t *testing.T) {
		ctx, u, cmd, teardown := newTestCommand(t)
		defer teardown()

		gock.New(u).
			Post("/a/_open").
			Reply(http.StatusNotFound).
			JSON(b{"error": b{"type": "index_not_found_exception"}, "status": 404})
		err := cmd.Execute(ctx, action.Open, []string{"a"}, nil)
		assert.Error(t, err)
		assert.True(t, gock.IsDone())
	})
}
