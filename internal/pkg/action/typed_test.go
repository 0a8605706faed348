package action

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	testCases := []struct {
		desc   string
		action string
		opts   Options
		want   interface{}
	}{
		{
			desc:   "alias",
			action: Alias,
			opts:   Options{"name": "current", "remove": true},
			want:   AliasOptions{Name: "current", Remove: true},
		},
		{
			desc:   "allocation rule",
			action: Allocation,
			opts:   Options{"rule": "box_type=warm"},
			want: AllocationOptions{
				Key:            "box_type",
				Value:          "warm",
				AllocationType: DefaultAllocationType,
				Timeout:        DefaultTimeout,
			},
		},
		{
			desc:   "replicas",
			action: Replicas,
			opts:   Options{"count": 2, "wait_for_completion": "true", "timeout": "10m"},
			want:   ReplicasOptions{Count: 2, WaitForCompletion: true, Timeout: 10 * time.Minute},
		},
		{
			desc:   "forcemerge defaults",
			action: ForceMerge,
			opts:   Options{"delay": 5},
			want:   ForceMergeOptions{MaxNumSegments: DefaultMaxNumSegments, Delay: 5 * time.Second, Timeout: DefaultTimeout},
		},
		{
			desc:   "snapshot prefix",
			action: Snapshot,
			opts:   Options{"repository": "backups", "prefix": "nightly-"},
			want: SnapshotOptions{
				Repository:         "backups",
				Name:               "nightly-%Y%m%d%H%M%S",
				IncludeGlobalState: true,
				WaitForCompletion:  true,
				Timeout:            DefaultTimeout,
			},
		},
		{
			desc:   "cluster routing",
			action: ClusterRouting,
			opts:   Options{"routing_type": "rebalance", "value": "replicas"},
			want: ClusterRoutingOptions{
				RoutingType: "rebalance",
				Setting:     DefaultRoutingSetting,
				Value:       "replicas",
				Timeout:     DefaultTimeout,
			},
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			got, err := Decode(tC.action, tC.opts)
			require.NoError(t, err)
			assert.Equal(t, tC.want, got)
		})
	}
}

func TestDecode_invalid(t *testing.T) {
	testCases := []struct {
		desc   string
		action string
		opts   Options
		key    string
	}{
		{"alias without name", Alias, Options{}, "name"},
		{"allocation bad type", Allocation, Options{"key": "k", "allocation_type": "prefer"}, "allocation_type"},
		{"allocation bad rule", Allocation, Options{"rule": "novalue"}, "rule"},
		{"replicas negative", Replicas, Options{"count": -1}, "count"},
		{"routing bad value", ClusterRouting, Options{"value": "replicas"}, "value"},
		{"reindex without dest", Reindex, Options{}, "dest"},
		{"shrink without node", Shrink, Options{}, "shrink_node"},
		{"shrink same name", Shrink, Options{"shrink_node": "n1", "shrink_suffix": ""}, "shrink_suffix"},
		{"snapshot without repository", Snapshot, Options{}, "repository"},
		{"forcemerge zero segments", ForceMerge, Options{"max_num_segments": 0}, "max_num_segments"},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			_, err := Decode(tC.action, tC.opts)
			oe, ok := err.(*OptionError)
			if assert.True(t, ok, "want *OptionError, got %v", err) {
				assert.Equal(t, tC.key, oe.Key)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	del, err := Default.Resolve(Snapshots, "delete")
	require.NoError(t, err)
	assert.NoError(t, Validate(del, Options{}))

	snap, err := Default.Resolve(Snapshots, "snapshot")
	require.NoError(t, err)
	assert.Error(t, Validate(snap, Options{}))
	assert.NoError(t, Validate(snap, Options{"repository": "backups"}))
}

func TestShrinkOptions_Target(t *testing.T) {
	o := ShrinkOptions{ShrinkPrefix: "s-", ShrinkSuffix: DefaultShrinkSuffix}
	assert.Equal(t, "s-logs-shrink", o.Target("logs"))
}
