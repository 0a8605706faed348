// Package dispatch carries out a resolved command against a filtered
// working list, one call at a time, collecting every failure.
package dispatch

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/multierr" // Failure aggregation
	"go.uber.org/zap"      // Logging

	"github.com/mintel/elasticsearch-curator/internal/pkg/action"   // Descriptors and options
	"github.com/mintel/elasticsearch-curator/internal/pkg/metrics"  // Prometheus metrics
	"github.com/mintel/elasticsearch-curator/internal/pkg/worklist" // Working lists
	"github.com/mintel/elasticsearch-curator/pkg/ctxlog"            // Logger from context
)

// Calls is the Prometheus metric for dispatched action calls.
var Calls = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: metrics.Namespace,
	Subsystem: "dispatch",
	Name:      "calls_total",
	Help:      "Action calls issued by the dispatcher.",
}, []string{metrics.LabelCommand, metrics.LabelStatus})

// Executor carries out one action call. It is implemented by
// *elasticsearch.Command.
type Executor interface {
	Execute(ctx context.Context, action string, targets []string, opts action.Options) error
}

// ExecutionError is the error of one failed action call.
type ExecutionError struct {
	Action  string
	Targets []string
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Targets == nil {
		return fmt.Sprintf("%s failed: %s", e.Action, e.Err)
	}
	return fmt.Sprintf("%s on %d targets failed: %s", e.Action, len(e.Targets), e.Err)
}

// Cause returns the underlying error, for github.com/pkg/errors.
func (e *ExecutionError) Cause() error {
	return e.Err
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Outcome is the result of one action call. Targets is nil for calls
// against the cluster.
type Outcome struct {
	Action  string
	Targets []string
	Err     error // an *ExecutionError, or nil
}

// Result lists the outcome of every call of one dispatch, in order.
type Result struct {
	Outcomes []Outcome
}

// OK reports whether every call succeeded.
func (r Result) OK() bool {
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return false
		}
	}
	return true
}

// Err returns every failure combined, or nil if there are none.
func (r Result) Err() error {
	var err error
	for _, o := range r.Outcomes {
		err = multierr.Append(err, o.Err)
	}
	return err
}

// Failed returns the number of calls that failed.
func (r Result) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// clusterActions run against the cluster instead of the working list.
var clusterActions = map[string]bool{
	action.ClusterRouting: true,
	action.CreateIndex:    true,
	action.Rollover:       true,
}

// indexActions take chunks of index names.
var indexActions = map[string]bool{
	action.Alias:         true,
	action.Allocation:    true,
	action.Close:         true,
	action.DeleteIndices: true,
	action.ForceMerge:    true,
	action.IndexSettings: true,
	action.Open:          true,
	action.Reindex:       true,
	action.Replicas:      true,
	action.Restore:       true,
	action.Shrink:        true,
}

// Dispatcher issues the action calls of a resolved command.
type Dispatcher struct {
	exec        Executor
	maxChunkLen int
}

// New returns a Dispatcher that makes calls with exec.
func New(exec Executor) *Dispatcher {
	return &Dispatcher{exec: exec, maxChunkLen: MaxChunkLen}
}

// Dispatch makes the calls that carry out desc on wl. How wl is split
// into calls depends on the command:
//
//   - index commands get wl's names in chunks of at most MaxChunkLen
//     comma-joined characters, one call per chunk;
//   - cluster routing, create index and rollover are one call without targets;
//   - indices snapshot is one call with every name of wl;
//   - snapshots snapshot is one call with allIndices, which should be
//     every index in the cluster;
//   - snapshots delete is one call per snapshot.
//
// A failed call does not stop the calls after it. Commands of the cluster
// domain fail with action.ErrNotImplemented.
//
// Dispatch panics if desc is not a command of the action registry.
func (d *Dispatcher) Dispatch(ctx context.Context, desc action.Descriptor, wl *worklist.WorkingList, allIndices []string, opts action.Options) Result {
	logger := ctxlog.L(ctx).Named("Dispatcher.Dispatch").With(
		zap.String("domain", string(desc.Domain)),
		zap.String("action", desc.Action),
	)
	ctx = ctxlog.WithLogger(ctx, logger)

	var r Result
	switch desc.Domain {
	case action.Cluster:
		err := &ExecutionError{Action: desc.Action, Err: action.ErrNotImplemented}
		logger.Error("cluster commands are not implemented", zap.Error(err))
		r.Outcomes = append(r.Outcomes, Outcome{Action: desc.Action, Err: err})
		Calls.With(prometheus.Labels{metrics.LabelCommand: desc.Action, metrics.LabelStatus: metrics.Status(err)}).Inc()

	case action.Indices:
		switch {
		case clusterActions[desc.Action]:
			d.call(ctx, &r, desc.Action, nil, opts)
		case desc.Action == action.Snapshot:
			d.call(ctx, &r, desc.Action, wl.Names(), opts)
		case indexActions[desc.Action]:
			names := wl.Names()
			chunks := Chunk(names, d.maxChunkLen)
			if len(chunks) > 1 {
				logger.Warn("very large list of indices, breaking it up into smaller chunks",
					zap.Int("length", csvLen(names)),
					zap.Int("chunks", len(chunks)),
				)
			}
			for _, chunk := range chunks {
				d.call(ctx, &r, desc.Action, chunk, opts)
			}
		default:
			panic(fmt.Sprintf("dispatch: no dispatch rule for %s (%s)", desc, desc.Action))
		}

	case action.Snapshots:
		switch desc.Action {
		case action.Snapshot:
			d.call(ctx, &r, desc.Action, allIndices, opts)
		case action.DeleteSnapshots:
			for _, e := range wl.Entries {
				o := opts
				if _, ok := o["repository"]; !ok && e.Repository != "" {
					o = o.With("repository", e.Repository)
				}
				d.call(ctx, &r, desc.Action, []string{e.Name}, o)
			}
		default:
			panic(fmt.Sprintf("dispatch: no dispatch rule for %s (%s)", desc, desc.Action))
		}

	default:
		panic(fmt.Sprintf("dispatch: unknown domain %q", desc.Domain))
	}

	if failed := r.Failed(); failed > 0 {
		logger.Error("some calls failed", zap.Int("failed", failed), zap.Int("calls", len(r.Outcomes)))
	} else {
		logger.Info("all calls succeeded", zap.Int("calls", len(r.Outcomes)))
	}
	return r
}

// call makes one call and appends its outcome to r.
func (d *Dispatcher) call(ctx context.Context, r *Result, a string, targets []string, opts action.Options) {
	logger := ctxlog.L(ctx)
	if targets != nil {
		logger = logger.With(zap.Int("target_count", len(targets)))
	}
	logger.Debug("calling action", zap.Strings("options", opts.Keys()))

	o := Outcome{Action: a, Targets: targets}
	if err := d.exec.Execute(ctx, a, targets, opts); err != nil {
		o.Err = &ExecutionError{Action: a, Targets: targets, Err: err}
		logger.Error("action call failed", zap.Error(err))
	}
	Calls.With(prometheus.Labels{metrics.LabelCommand: a, metrics.LabelStatus: metrics.Status(o.Err)}).Inc()
	r.Outcomes = append(r.Outcomes, o)
}

// DryRun is an Executor that logs the calls it would make and makes none.
type DryRun struct{}

// Execute logs the call.
func (DryRun) Execute(ctx context.Context, a string, targets []string, opts action.Options) error {
	fields := []zap.Field{
		zap.String("action", a),
		zap.Any("options", opts),
	}
	if targets != nil {
		fields = append(fields, zap.Strings("targets", targets))
	}
	ctxlog.L(ctx).Info("dry run: skipping action call", fields...)
	return nil
}
