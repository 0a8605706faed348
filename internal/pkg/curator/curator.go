// Package curator runs curator invocations: it resolves a command, builds
// and filters a working list, then dispatches the command's action calls.
package curator

import (
	"context"
	"fmt"

	"github.com/google/uuid" // Invocation IDs
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap" // Logging

	"github.com/mintel/elasticsearch-curator/internal/pkg/action"   // Command resolution
	"github.com/mintel/elasticsearch-curator/internal/pkg/dispatch" // Action calls
	"github.com/mintel/elasticsearch-curator/internal/pkg/filter"   // Filter chain
	"github.com/mintel/elasticsearch-curator/internal/pkg/metrics"  // Prometheus metrics
	"github.com/mintel/elasticsearch-curator/internal/pkg/worklist" // Working lists
	"github.com/mintel/elasticsearch-curator/pkg/ctxlog"            // Logger from context
)

// InvokeDuration is the Prometheus metric for Invoker.Invoke durations.
var InvokeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: metrics.Namespace,
	Name:      "invocation_duration_seconds",
	Help:      "Duration of curator invocations, from resolving the command to the last action call.",
	Buckets:   prometheus.ExponentialBuckets(0.1, 4, 9),
}, []string{metrics.LabelDomain, metrics.LabelCommand, metrics.LabelStatus})

// Source lists the entities of a cluster and the field stats of indices.
// It is implemented by *elasticsearch.Query.
type Source interface {
	worklist.Source
	filter.FieldStatter
}

// Invocation is one request to run a command.
type Invocation struct {
	Domain  string
	Command string

	// Filters narrow the working list. Nil means filter.PassThrough.
	Filters filter.Spec

	// Options are the raw options given by the user. Keys the command
	// doesn't accept are dropped.
	Options map[string]interface{}
}

// Report is the outcome of an invocation that reached dispatch.
type Report struct {
	Descriptor action.Descriptor

	// Selected is the filtered working list the command acted on.
	// It is nil for cluster commands.
	Selected *worklist.WorkingList

	dispatch.Result
}

// Invoker runs invocations.
type Invoker struct {
	registry *action.Registry
	builder  *worklist.Builder
	chain    *filter.Chain
	dispatch *dispatch.Dispatcher
}

// NewInvoker returns an Invoker that reads the cluster with source and
// makes action calls with exec.
func NewInvoker(source Source, exec dispatch.Executor) *Invoker {
	return &Invoker{
		registry: action.Default,
		builder:  worklist.NewBuilder(source),
		chain:    filter.NewChain(source),
		dispatch: dispatch.New(exec),
	}
}

// Invoke runs in. Errors that stop the invocation before any action call
// is made are returned: *action.DomainError, *action.UnsupportedCommandError,
// *action.OptionError, *filter.ConfigurationError, *filter.NoMatchError,
// or an error from listing entities. Failed action calls are in the Report.
func (inv *Invoker) Invoke(ctx context.Context, in Invocation) (report *Report, err error) {
	ctx = ctxlog.WithFields(ctx, zap.String("invocation_id", uuid.New().String()))
	logger := ctxlog.L(ctx).Named("Invoker.Invoke").With(
		zap.String("domain", in.Domain),
		zap.String("command", in.Command),
	)

	desc, opts, err := inv.Resolve(in.Domain, in.Command, in.Options)
	if err != nil {
		logger.Error("invalid invocation", zap.Error(err))
		return nil, err
	}

	timer := metrics.NewVecTimer(InvokeDuration.MustCurryWith(prometheus.Labels{
		metrics.LabelDomain:  string(desc.Domain),
		metrics.LabelCommand: desc.Command,
	}))
	defer func() {
		status := err
		if status == nil && report != nil {
			status = report.Err()
		}
		timer.ObserveErr(status)
	}()

	report = &Report{Descriptor: desc}
	switch {
	case !desc.Domain.HasEntities():
		report.Result = inv.dispatch.Dispatch(ctx, desc, nil, nil, opts)
		return report, nil

	case desc.Domain == action.Snapshots && desc.Action == action.Snapshot:
		// Snapshots are taken of every index.
		indices, err := inv.builder.Build(ctx, action.Indices)
		if err != nil {
			return nil, err
		}
		if indices.Len() == 0 {
			err := &filter.NoMatchError{Domain: action.Indices, Options: in.Options}
			logger.Warn("nothing to do", zap.Error(err))
			return nil, err
		}
		report.Selected = indices
		report.Result = inv.dispatch.Dispatch(ctx, desc, indices, indices.Names(), opts)
		return report, nil
	}

	wl, selected, err := inv.selectEntities(ctx, desc, in.Filters, in.Options, opts)
	if err != nil {
		if _, ok := err.(*filter.NoMatchError); ok {
			logger.Warn("nothing to do", zap.Error(err))
		} else {
			logger.Error("error selecting entities", zap.Error(err))
		}
		return nil, err
	}
	logger.Info("selected entities",
		zap.Int("count", selected.Len()),
		zap.Int("of", wl.Len()),
	)

	report.Selected = selected
	report.Result = inv.dispatch.Dispatch(ctx, desc, selected, wl.Names(), opts)
	return report, nil
}

// Select returns the working list of domain narrowed by filters, for
// showing what a command would act on. No command is run, so kibana's
// indices are not protected.
func (inv *Invoker) Select(ctx context.Context, domain string, filters filter.Spec) (*worklist.WorkingList, error) {
	d, err := action.ParseDomain(domain)
	if err != nil {
		return nil, err
	}
	_, selected, err := inv.selectEntities(ctx, action.Descriptor{Domain: d}, filters, nil, nil)
	return selected, err
}

// Resolve returns the descriptor of command in domain and raw compacted
// to the options it accepts. The options are validated, except in the
// cluster domain, whose commands are not carried out.
func (inv *Invoker) Resolve(domain, command string, raw map[string]interface{}) (action.Descriptor, action.Options, error) {
	d, err := action.ParseDomain(domain)
	if err != nil {
		return action.Descriptor{}, nil, err
	}
	desc, err := inv.registry.Resolve(d, command)
	if err != nil {
		return action.Descriptor{}, nil, err
	}
	opts := desc.Compact(raw)
	if desc.Domain == action.Cluster {
		return desc, opts, nil
	}
	if err := action.Validate(desc, opts); err != nil {
		return action.Descriptor{}, nil, err
	}
	return desc, opts, nil
}

// selectEntities builds the working list of desc's domain and narrows it
// for desc's command.
func (inv *Invoker) selectEntities(ctx context.Context, desc action.Descriptor, filters filter.Spec, raw map[string]interface{}, opts action.Options) (wl, selected *worklist.WorkingList, err error) {
	wl, err = inv.builder.Build(ctx, desc.Domain)
	if err != nil {
		return nil, nil, err
	}

	// Snapshot commands given a repository only see its snapshots.
	if repo, ok := opts["repository"]; ok && desc.Domain == action.Snapshots {
		wl = wl.Clone()
		wl.Retain(func(_ int, e worklist.Entry) bool { return e.Repository == fmt.Sprint(repo) })
	}

	if filters == nil {
		filters = filter.PassThrough
	}
	selected, err = inv.chain.Select(ctx, wl, desc.Command, filters, raw)
	if err != nil {
		return nil, nil, err
	}
	return wl, selected, nil
}
