package elasticsearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"           // Polling for shard movement
	elastic "github.com/olivere/elastic/v7" // Elasticsearch client
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap" // Logging

	"github.com/mintel/elasticsearch-curator/internal/pkg/action"  // Action identifiers and options
	"github.com/mintel/elasticsearch-curator/internal/pkg/metrics" // Prometheus metrics
	"github.com/mintel/elasticsearch-curator/pkg/ctxlog"           // Logger from context
	"github.com/mintel/elasticsearch-curator/pkg/es"               // Elasticsearch client extensions
	ctime "github.com/mintel/elasticsearch-curator/pkg/time"       // strftime
)

const commandSubsystem = "command"

var (
	// ErrNoSnapshot is returned by Command.Restore when no snapshot name
	// is given and the repository has no successful snapshot.
	ErrNoSnapshot = errors.New("no successful snapshot to restore")

	errShardsMoving = errors.New("shards are still relocating or initializing")
)

// CommandDuration is the Prometheus metric for Command action durations.
var CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: metrics.Namespace,
	Subsystem: commandSubsystem,
	Name:      "request_duration_seconds",
	Help:      "Duration of the Elasticsearch requests that carry out one action call.",
	Buckets:   prometheus.ExponentialBuckets(0.05, 4, 9),
}, []string{metrics.LabelCommand, metrics.LabelStatus})

// Command implements methods that write to Elasticsearch endpoints.
type Command struct {
	client     *elastic.Client
	settingsMu sync.Mutex // Elasticsearch doesn't provide an atomic way to modify settings

	// Overridden in tests.
	now          func() time.Time
	pollInterval time.Duration
	sleep        func(context.Context, time.Duration) error
}

// NewCommand returns a new Command.
func NewCommand(client *elastic.Client) *Command {
	return &Command{
		client:       client,
		now:          time.Now,
		pollInterval: time.Second,
		sleep:        sleepContext,
	}
}

// Execute decodes opts for the action identified by a and calls the
// matching method with targets. Actions that run against the cluster
// ignore targets. DeleteSnapshots takes snapshot names as targets.
func (cmd *Command) Execute(ctx context.Context, a string, targets []string, opts action.Options) error {
	typed, err := action.Decode(a, opts)
	if err != nil {
		return err
	}
	switch o := typed.(type) {
	case action.AliasOptions:
		return cmd.Alias(ctx, targets, o)
	case action.AllocationOptions:
		return cmd.Allocation(ctx, targets, o)
	case action.CloseOptions:
		return cmd.Close(ctx, targets, o)
	case action.ClusterRoutingOptions:
		return cmd.ClusterRouting(ctx, o)
	case action.CreateIndexOptions:
		return cmd.CreateIndex(ctx, o)
	case action.DeleteIndicesOptions:
		return cmd.DeleteIndices(ctx, targets, o)
	case action.ForceMergeOptions:
		return cmd.ForceMerge(ctx, targets, o)
	case action.IndexSettingsOptions:
		return cmd.IndexSettings(ctx, targets, o)
	case action.OpenOptions:
		return cmd.Open(ctx, targets, o)
	case action.ReindexOptions:
		return cmd.Reindex(ctx, targets, o)
	case action.ReplicasOptions:
		return cmd.Replicas(ctx, targets, o)
	case action.RestoreOptions:
		return cmd.Restore(ctx, targets, o)
	case action.RolloverOptions:
		return cmd.Rollover(ctx, o)
	case action.ShrinkOptions:
		return cmd.Shrink(ctx, targets, o)
	case action.SnapshotOptions:
		return cmd.Snapshot(ctx, targets, o)
	case action.DeleteSnapshotsOptions:
		for _, name := range targets {
			if err := cmd.DeleteSnapshot(ctx, o.Repository, name); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("no command for action %s", a)
}

// start returns a timer for action a and a logger named after the method.
func (cmd *Command) start(ctx context.Context, a string, targets []string) (*metrics.VecTimer, *zap.Logger) {
	timer := metrics.NewVecTimer(CommandDuration.MustCurryWith(prometheus.Labels{metrics.LabelCommand: a}))
	logger := ctxlog.L(ctx).Named("Command." + a)
	if targets != nil {
		logger = logger.With(zap.Int("target_count", len(targets)))
	}
	return timer, logger
}

// Alias adds indices to an alias, or removes them from it.
func (cmd *Command) Alias(ctx context.Context, indices []string, o action.AliasOptions) (err error) {
	timer, logger := cmd.start(ctx, action.Alias, indices)
	defer func() { timer.ObserveErr(err) }()
	logger = logger.With(zap.String("alias", o.Name), zap.Bool("remove", o.Remove))

	s := cmd.client.Alias()
	for _, index := range indices {
		if o.Remove {
			s = s.Remove(index, o.Name)
		} else {
			s = s.Add(index, o.Name)
		}
	}
	logger.Debug("updating alias")
	if _, err = s.Do(ctx); err != nil {
		logger.Error("error updating alias", zap.Error(err))
		return err
	}
	logger.Info("updated alias")
	return nil
}

// Allocation sets an index-level shard allocation filter.
//
// See: https://www.elastic.co/guide/en/elasticsearch/reference/7.x/shard-allocation-filtering.html
func (cmd *Command) Allocation(ctx context.Context, indices []string, o action.AllocationOptions) (err error) {
	timer, logger := cmd.start(ctx, action.Allocation, indices)
	defer func() { timer.ObserveErr(err) }()
	logger = logger.With(zap.String("setting", o.Setting()), zap.String("value", o.Value))

	logger.Debug("setting shard allocation")
	_, err = cmd.client.IndexPutSettings(indices...).
		BodyJson(map[string]interface{}{o.Setting(): o.Value}).
		Do(ctx)
	if err != nil {
		logger.Error("error setting shard allocation", zap.Error(err))
		return err
	}
	if o.WaitForCompletion {
		if err = cmd.waitForShards(ctx, indices, o.Timeout); err != nil {
			logger.Error("error waiting for shards to move", zap.Error(err))
			return err
		}
	}
	logger.Info("set shard allocation")
	return nil
}

// Close closes indices, flushing them first unless told not to.
func (cmd *Command) Close(ctx context.Context, indices []string, o action.CloseOptions) (err error) {
	timer, logger := cmd.start(ctx, action.Close, indices)
	defer func() { timer.ObserveErr(err) }()

	if o.DeleteAliases {
		logger.Debug("removing aliases")
		s := cmd.client.Alias()
		for _, index := range indices {
			s = s.Remove(index, "*")
		}
		if _, err = s.Do(ctx); err != nil && !elastic.IsNotFound(err) {
			logger.Error("error removing aliases", zap.Error(err))
			return err
		}
	}
	if !o.SkipFlush {
		logger.Debug("flushing")
		if _, ferr := cmd.client.Flush(indices...).Do(ctx); ferr != nil {
			// Closing without a flush only costs recovery time.
			logger.Warn("error flushing", zap.Error(ferr))
		}
	}

	logger.Debug("closing indices")
	if _, err = cmd.client.CloseIndex(strings.Join(indices, ",")).Do(ctx); err != nil {
		logger.Error("error closing indices", zap.Error(err))
		return err
	}
	logger.Info("closed indices")
	return nil
}

// ClusterRouting sets a cluster-wide shard routing setting, such as
// cluster.routing.allocation.enable. Nothing is written if the setting
// already has the wanted value.
//
// See: https://www.elastic.co/guide/en/elasticsearch/reference/7.x/modules-cluster.html
func (cmd *Command) ClusterRouting(ctx context.Context, o action.ClusterRoutingOptions) (err error) {
	timer, logger := cmd.start(ctx, action.ClusterRouting, nil)
	defer func() { timer.ObserveErr(err) }()
	logger = logger.With(zap.String("setting", o.SettingName()), zap.String("value", o.Value))

	cmd.settingsMu.Lock()
	defer cmd.settingsMu.Unlock()

	logger.Debug("getting cluster settings")
	var resp *es.ClusterSettingsResponse
	resp, err = es.NewClusterGetSettingsService(cmd.client).Do(ctx)
	if err != nil {
		logger.Error("error getting cluster settings", zap.Error(err))
		return err
	}
	if resp.Effective(o.SettingName()).String() == o.Value {
		logger.Debug("setting already has value")
		return nil
	}

	logger.Debug("putting cluster settings")
	_, err = es.NewClusterPutSettingsService(cmd.client).Transient(o.SettingName(), o.Value).Do(ctx)
	if err != nil {
		logger.Error("error putting cluster settings", zap.Error(err))
		return err
	}
	if o.WaitForCompletion {
		if err = cmd.waitForShards(ctx, nil, o.Timeout); err != nil {
			logger.Error("error waiting for shards to move", zap.Error(err))
			return err
		}
	}
	logger.Info("set cluster routing")
	return nil
}

// CreateIndex creates an index. strftime patterns in the name are expanded
// with the current UTC time.
func (cmd *Command) CreateIndex(ctx context.Context, o action.CreateIndexOptions) (err error) {
	timer, logger := cmd.start(ctx, action.CreateIndex, nil)
	defer func() { timer.ObserveErr(err) }()

	name := ctime.Strftime(cmd.now().UTC(), o.Name)
	logger = logger.With(zap.String("index", name))

	s := cmd.client.CreateIndex(name)
	if o.ExtraSettings != nil {
		s = s.BodyJson(o.ExtraSettings)
	}
	logger.Debug("creating index")
	if _, err = s.Do(ctx); err != nil {
		logger.Error("error creating index", zap.Error(err))
		return err
	}
	logger.Info("created index")
	return nil
}

// DeleteIndices deletes indices.
func (cmd *Command) DeleteIndices(ctx context.Context, indices []string, o action.DeleteIndicesOptions) (err error) {
	timer, logger := cmd.start(ctx, action.DeleteIndices, indices)
	defer func() { timer.ObserveErr(err) }()

	s := cmd.client.DeleteIndex(indices...)
	if o.MasterTimeout > 0 {
		s = s.MasterTimeout(ctime.FormatES(o.MasterTimeout))
	}
	logger.Debug("deleting indices")
	if _, err = s.Do(ctx); err != nil {
		logger.Error("error deleting indices", zap.Error(err))
		return err
	}
	logger.Info("deleted indices")
	return nil
}

// ForceMerge merges the segments of each index in turn, pausing
// o.Delay between indices.
func (cmd *Command) ForceMerge(ctx context.Context, indices []string, o action.ForceMergeOptions) (err error) {
	timer, logger := cmd.start(ctx, action.ForceMerge, indices)
	defer func() { timer.ObserveErr(err) }()
	logger = logger.With(zap.Int("max_num_segments", o.MaxNumSegments))

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	for i, index := range indices {
		if i > 0 && o.Delay > 0 {
			logger.Debug("pausing between indices", zap.Duration("delay", o.Delay))
			if err = cmd.sleep(ctx, o.Delay); err != nil {
				return err
			}
		}
		logger.Debug("force merging", zap.String("index", index))
		if _, err = cmd.client.Forcemerge(index).MaxNumSegments(o.MaxNumSegments).Do(ctx); err != nil {
			logger.Error("error force merging", zap.String("index", index), zap.Error(err))
			return err
		}
	}
	logger.Info("force merged indices")
	return nil
}

// IndexSettings updates the settings of indices.
func (cmd *Command) IndexSettings(ctx context.Context, indices []string, o action.IndexSettingsOptions) (err error) {
	timer, logger := cmd.start(ctx, action.IndexSettings, indices)
	defer func() { timer.ObserveErr(err) }()

	logger.Debug("putting index settings")
	_, err = es.NewIndicesPutSettingsService(cmd.client).
		Index(indices...).
		BodyJSON(o.IndexSettings).
		IgnoreUnavailable(o.IgnoreUnavailable).
		PreserveExisting(o.PreserveExisting).
		Do(ctx)
	if err != nil {
		logger.Error("error putting index settings", zap.Error(err))
		return err
	}
	logger.Info("put index settings")
	return nil
}

// Open opens closed indices.
func (cmd *Command) Open(ctx context.Context, indices []string, o action.OpenOptions) (err error) {
	timer, logger := cmd.start(ctx, action.Open, indices)
	defer func() { timer.ObserveErr(err) }()

	s := cmd.client.OpenIndex(strings.Join(indices, ","))
	if o.MasterTimeout > 0 {
		s = s.MasterTimeout(ctime.FormatES(o.MasterTimeout))
	}
	logger.Debug("opening indices")
	if _, err = s.Do(ctx); err != nil {
		logger.Error("error opening indices", zap.Error(err))
		return err
	}
	logger.Info("opened indices")
	return nil
}

// Reindex copies documents from indices into another index.
// When o.RequestBody has no source index the target indices are used.
func (cmd *Command) Reindex(ctx context.Context, indices []string, o action.ReindexOptions) (err error) {
	timer, logger := cmd.start(ctx, action.Reindex, indices)
	defer func() { timer.ObserveErr(err) }()

	body := make(map[string]interface{}, len(o.RequestBody)+2)
	for k, v := range o.RequestBody {
		body[k] = v
	}
	source, _ := body["source"].(map[string]interface{})
	if source == nil {
		source = make(map[string]interface{})
	}
	if _, ok := source["index"]; !ok {
		source["index"] = indices
	}
	body["source"] = source
	if o.Dest != "" {
		body["dest"] = map[string]interface{}{"index": o.Dest}
	}

	refresh := "false"
	if o.Refresh {
		refresh = "true"
	}
	s := cmd.client.Reindex().
		Body(body).
		WaitForCompletion(o.WaitForCompletion).
		Refresh(refresh).
		Slices(o.Slices)
	if o.RequestsPerSecond > 0 {
		s = s.RequestsPerSecond(int(o.RequestsPerSecond))
	}

	logger.Debug("reindexing")
	var resp *elastic.BulkIndexByScrollResponse
	if resp, err = s.Do(ctx); err != nil {
		logger.Error("error reindexing", zap.Error(err))
		return err
	}
	if len(resp.Failures) > 0 {
		err = fmt.Errorf("reindex had %d failures", len(resp.Failures))
		logger.Error("error reindexing", zap.Error(err))
		return err
	}
	logger.Info("reindexed", zap.Int64("created", resp.Created), zap.Int64("updated", resp.Updated))
	return nil
}

// Replicas sets the number of replicas of indices.
func (cmd *Command) Replicas(ctx context.Context, indices []string, o action.ReplicasOptions) (err error) {
	timer, logger := cmd.start(ctx, action.Replicas, indices)
	defer func() { timer.ObserveErr(err) }()
	logger = logger.With(zap.Int("count", o.Count))

	logger.Debug("setting replica count")
	_, err = cmd.client.IndexPutSettings(indices...).
		BodyJson(map[string]interface{}{"index.number_of_replicas": o.Count}).
		Do(ctx)
	if err != nil {
		logger.Error("error setting replica count", zap.Error(err))
		return err
	}
	if o.WaitForCompletion {
		if err = cmd.waitForShards(ctx, indices, o.Timeout); err != nil {
			logger.Error("error waiting for replicas", zap.Error(err))
			return err
		}
	}
	logger.Info("set replica count")
	return nil
}

// Restore restores indices from a snapshot. If o.Name is empty the most
// recent successful snapshot in the repository is used. o.Indices, if set,
// replaces indices.
func (cmd *Command) Restore(ctx context.Context, indices []string, o action.RestoreOptions) (err error) {
	timer, logger := cmd.start(ctx, action.Restore, indices)
	defer func() { timer.ObserveErr(err) }()
	logger = logger.With(zap.String("repository", o.Repository))

	name := o.Name
	if name == "" {
		if name, err = cmd.latestSnapshot(ctx, o.Repository); err != nil {
			logger.Error("error finding snapshot to restore", zap.Error(err))
			return err
		}
	}
	logger = logger.With(zap.String("snapshot", name))
	if len(o.Indices) > 0 {
		indices = o.Indices
	}

	s := es.NewSnapshotRestoreService(cmd.client).
		Repository(o.Repository).
		Snapshot(name).
		Indices(indices...).
		IncludeAliases(o.IncludeAliases).
		IncludeGlobalState(o.IncludeGlobalState).
		Partial(o.Partial).
		IgnoreUnavailable(o.IgnoreUnavailable).
		WaitForCompletion(o.WaitForCompletion)
	if o.RenamePattern != "" {
		s = s.Rename(o.RenamePattern, o.RenameReplacement)
	}

	logger.Debug("restoring snapshot")
	var resp *es.SnapshotRestoreResponse
	if resp, err = s.Do(ctx); err != nil {
		logger.Error("error restoring snapshot", zap.Error(err))
		return err
	}
	if resp.Snapshot != nil && resp.Snapshot.Shards.Failed > 0 {
		err = fmt.Errorf("restore of %s failed for %d shards", name, resp.Snapshot.Shards.Failed)
		logger.Error("error restoring snapshot", zap.Error(err))
		return err
	}
	logger.Info("restored snapshot")
	return nil
}

// latestSnapshot returns the most recently started successful snapshot in repo.
func (cmd *Command) latestSnapshot(ctx context.Context, repo string) (string, error) {
	resp, err := cmd.client.SnapshotGet(repo).Do(ctx)
	if err != nil {
		return "", err
	}
	var (
		name   string
		latest int64 = -1
	)
	for _, s := range resp.Snapshots {
		if s.State == "SUCCESS" && s.StartTimeInMillis > latest {
			name, latest = s.Snapshot, s.StartTimeInMillis
		}
	}
	if name == "" {
		return "", ErrNoSnapshot
	}
	return name, nil
}

// Rollover rolls an alias over to a new index when any condition is met.
// With no conditions the rollover is unconditional.
func (cmd *Command) Rollover(ctx context.Context, o action.RolloverOptions) (err error) {
	timer, logger := cmd.start(ctx, action.Rollover, nil)
	defer func() { timer.ObserveErr(err) }()
	logger = logger.With(zap.String("alias", o.Name))

	body := make(map[string]interface{}, len(o.ExtraSettings)+1)
	for k, v := range o.ExtraSettings {
		body[k] = v
	}
	if len(o.Conditions) > 0 {
		body["conditions"] = o.Conditions
	}

	s := cmd.client.RolloverIndex(o.Name).BodyJson(body)
	if o.NewIndex != "" {
		s = s.NewIndex(ctime.Strftime(cmd.now().UTC(), o.NewIndex))
	}
	logger.Debug("rolling over")
	var resp *elastic.IndicesRolloverResponse
	if resp, err = s.Do(ctx); err != nil {
		logger.Error("error rolling over", zap.Error(err))
		return err
	}
	if !resp.RolledOver {
		logger.Info("no rollover conditions met", zap.Any("conditions", resp.Conditions))
		return nil
	}
	logger.Info("rolled over", zap.String("old_index", resp.OldIndex), zap.String("new_index", resp.NewIndex))
	return nil
}

// Shrink copies each index into a new index with fewer primary shards.
// The source is first moved onto o.ShrinkNode and made read-only.
//
// See: https://www.elastic.co/guide/en/elasticsearch/reference/7.x/indices-shrink-index.html
func (cmd *Command) Shrink(ctx context.Context, indices []string, o action.ShrinkOptions) (err error) {
	timer, logger := cmd.start(ctx, action.Shrink, indices)
	defer func() { timer.ObserveErr(err) }()
	logger = logger.With(zap.String("shrink_node", o.ShrinkNode))

	for _, index := range indices {
		target := o.Target(index)
		logger := logger.With(zap.String("index", index), zap.String("target", target))

		logger.Debug("preparing index for shrink")
		_, err = cmd.client.IndexPutSettings(index).
			BodyJson(map[string]interface{}{
				"index.routing.allocation.require._name": o.ShrinkNode,
				"index.blocks.write":                     true,
			}).
			Do(ctx)
		if err != nil {
			logger.Error("error preparing index for shrink", zap.Error(err))
			return err
		}
		if err = cmd.waitForShards(ctx, []string{index}, action.DefaultTimeout); err != nil {
			logger.Error("error waiting for shards to move", zap.Error(err))
			return err
		}

		logger.Debug("shrinking index")
		_, err = cmd.client.ShrinkIndex(index, target).
			BodyJson(map[string]interface{}{
				"settings": map[string]interface{}{
					"index.number_of_shards":                 o.NumberOfShards,
					"index.number_of_replicas":               o.NumberOfReplicas,
					"index.routing.allocation.require._name": nil,
					"index.blocks.write":                     nil,
				},
			}).
			Do(ctx)
		if err != nil {
			logger.Error("error shrinking index", zap.Error(err))
			return err
		}

		if o.DeleteAfter {
			logger.Debug("deleting source index")
			if _, err = cmd.client.DeleteIndex(index).Do(ctx); err != nil {
				logger.Error("error deleting source index", zap.Error(err))
				return err
			}
		}
		logger.Info("shrunk index")
	}
	return nil
}

// Snapshot creates a snapshot of indices. strftime patterns in the
// name are expanded with the current UTC time.
func (cmd *Command) Snapshot(ctx context.Context, indices []string, o action.SnapshotOptions) (err error) {
	timer, logger := cmd.start(ctx, action.Snapshot, indices)
	defer func() { timer.ObserveErr(err) }()

	name := ctime.Strftime(cmd.now().UTC(), o.Name)
	logger = logger.With(zap.String("repository", o.Repository), zap.String("snapshot", name))

	body := map[string]interface{}{
		"ignore_unavailable":   o.IgnoreUnavailable,
		"include_global_state": o.IncludeGlobalState,
		"partial":              o.Partial,
	}
	if len(indices) > 0 {
		body["indices"] = strings.Join(indices, ",")
	}

	if o.WaitForCompletion && o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	logger.Debug("creating snapshot")
	var resp *elastic.SnapshotCreateResponse
	resp, err = cmd.client.SnapshotCreate(o.Repository, name).
		BodyJson(body).
		WaitForCompletion(o.WaitForCompletion).
		Do(ctx)
	if err != nil {
		logger.Error("error creating snapshot", zap.Error(err))
		return err
	}
	if resp.Snapshot != nil && resp.Snapshot.State != "" && resp.Snapshot.State != "SUCCESS" {
		err = fmt.Errorf("snapshot %s finished in state %s", name, resp.Snapshot.State)
		logger.Error("error creating snapshot", zap.Error(err))
		return err
	}
	logger.Info("created snapshot")
	return nil
}

// DeleteSnapshot deletes a snapshot.
func (cmd *Command) DeleteSnapshot(ctx context.Context, repo, name string) (err error) {
	timer, logger := cmd.start(ctx, action.DeleteSnapshots, nil)
	defer func() { timer.ObserveErr(err) }()
	logger = logger.With(zap.String("repository", repo), zap.String("snapshot", name))

	logger.Debug("deleting snapshot")
	if _, err = cmd.client.SnapshotDelete(repo, name).Do(ctx); err != nil {
		logger.Error("error deleting snapshot", zap.Error(err))
		return err
	}
	logger.Info("deleted snapshot")
	return nil
}

// waitForShards polls cluster health until no shards of indices (or of
// the whole cluster, if indices is empty) are relocating or initializing.
// A timeout of 0 waits until ctx is done.
func (cmd *Command) waitForShards(ctx context.Context, indices []string, timeout time.Duration) error {
	logger := ctxlog.L(ctx)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cmd.pollInterval
	b.MaxInterval = 30 * cmd.pollInterval
	b.MaxElapsedTime = timeout
	b.Reset()

	op := func() error {
		s := cmd.client.ClusterHealth()
		if len(indices) > 0 {
			s = s.Index(indices...)
		}
		resp, err := s.Do(ctx)
		if err != nil {
			return err
		}
		if resp.RelocatingShards > 0 || resp.InitializingShards > 0 {
			return errShardsMoving
		}
		return nil
	}
	notify := func(err error, d time.Duration) {
		logger.Debug("waiting for shards", zap.Error(err), zap.Duration("retry_in", d))
	}
	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
}

// sleepContext sleeps for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
