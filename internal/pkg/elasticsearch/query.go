package elasticsearch

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client
	cache "github.com/patrickmn/go-cache"    // Field stats memo
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"            // Logging
	"golang.org/x/sync/errgroup" // Concurrent snapshot listing
	tomb "gopkg.in/tomb.v2"      // Concurrent cat requests

	"github.com/mintel/elasticsearch-curator/internal/pkg/metrics" // Prometheus metrics
	"github.com/mintel/elasticsearch-curator/pkg/ctxlog"           // Logger from context
	"github.com/mintel/elasticsearch-curator/pkg/es"               // Elasticsearch client extensions
)

// ErrNoFieldStats is returned by Query.FieldStats when the index has
// no values for the field.
var ErrNoFieldStats = errors.New("no field stats")

const querySubsystem = "query"

var (
	// QueryIndicesDuration is the Prometheus metric for Query.Indices() durations.
	QueryIndicesDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Subsystem: querySubsystem,
		Name:      "indices_request_duration_seconds",
		Help:      "Requests to list Elasticsearch indices and their aliases.",
		Buckets:   prometheus.DefBuckets,
	}, []string{metrics.LabelStatus})

	// QueryRepositoriesDuration is the Prometheus metric for Query.Repositories() durations.
	QueryRepositoriesDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Subsystem: querySubsystem,
		Name:      "repositories_request_duration_seconds",
		Help:      "Requests to list Elasticsearch snapshot repositories.",
		Buckets:   prometheus.DefBuckets,
	}, []string{metrics.LabelStatus})

	// QuerySnapshotsDuration is the Prometheus metric for Query.Snapshots() durations.
	QuerySnapshotsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Subsystem: querySubsystem,
		Name:      "snapshots_request_duration_seconds",
		Help:      "Requests to list Elasticsearch snapshots.",
		Buckets:   prometheus.DefBuckets,
	}, []string{metrics.LabelStatus})

	// QueryFieldStatsDuration is the Prometheus metric for Query.FieldStats() durations.
	// Cached results are not observed.
	QueryFieldStatsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Subsystem: querySubsystem,
		Name:      "field_stats_request_duration_seconds",
		Help:      "Requests to get the min and max value of a date field.",
		Buckets:   prometheus.DefBuckets,
	}, []string{metrics.LabelStatus})

	// QuerySearchDuration is the Prometheus metric for Query.Search() durations.
	QuerySearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Subsystem: querySubsystem,
		Name:      "search_request_duration_seconds",
		Help:      "Search requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{metrics.LabelStatus})
)

// Index is an index as listed by Query.Indices.
type Index struct {
	Name      string
	Open      bool
	Health    string
	Created   time.Time
	SizeBytes int64 // including replicas
	Shards    int   // primaries
	Replicas  int
	Segments  int
	Docs      int64
	Aliases   []string
}

// Snapshot is a snapshot as listed by Query.Snapshots.
type Snapshot struct {
	Repository string
	Name       string
	State      string
	Indices    []string
	Started    time.Time
}

// FieldStats holds the range of a date field in one index.
type FieldStats struct {
	Min time.Time
	Max time.Time
}

// SearchRequest describes a Query.Search call.
// Body, if set, is a Query DSL request and replaces the query string options.
type SearchRequest struct {
	Indices         []string
	Query           string // Lucene query string
	DefaultField    string
	DefaultOperator string // AND or OR
	From            int
	Size            int
	Body            string
}

// Query implements methods that read from Elasticsearch endpoints.
type Query struct {
	client *elastic.Client
	stats  *cache.Cache // index+field -> FieldStats
}

// NewQuery returns a new Query.
// Field stats are memoized for the life of the Query.
func NewQuery(client *elastic.Client) *Query {
	return &Query{
		client: client,
		stats:  cache.New(cache.NoExpiration, 0),
	}
}

// Indices returns every index in the cluster, open or closed, with its aliases.
// The result is sorted by name.
func (q *Query) Indices(ctx context.Context) (indices []Index, err error) {
	timer := metrics.NewVecTimer(QueryIndicesDuration)
	defer func() { timer.ObserveErr(err) }()

	logger := ctxlog.L(ctx).Named("Query.Indices")

	var (
		rows    es.CatIndicesResponse
		aliases elastic.CatAliasesResponse
	)
	t, tctx := tomb.WithContext(ctx)
	t.Go(func() error {
		// Started from inside the first goroutine so the tomb is still alive.
		t.Go(func() error {
			var err error
			logger.Debug("getting aliases")
			aliases, err = q.client.CatAliases().Do(tctx)
			if err != nil {
				logger.Error("error getting aliases", zap.Error(err))
				return err
			}
			logger.Debug("got aliases", zap.Int("count", len(aliases)))
			return nil
		})

		var err error
		logger.Debug("getting indices")
		rows, err = es.NewCatIndicesService(q.client).Do(tctx)
		if err != nil {
			logger.Error("error getting indices", zap.Error(err))
			return err
		}
		logger.Debug("got indices", zap.Int("count", len(rows)))
		return nil
	})
	if err = t.Wait(); err != nil {
		return nil, err
	}

	byIndex := make(map[string][]string)
	for _, a := range aliases {
		byIndex[a.Index] = append(byIndex[a.Index], a.Alias)
	}

	indices = make([]Index, 0, len(rows))
	for _, r := range rows {
		aliases := byIndex[r.Index]
		sort.Strings(aliases)
		indices = append(indices, Index{
			Name:      r.Index,
			Open:      r.Status != "close",
			Health:    r.Health,
			Created:   r.Created(),
			SizeBytes: r.SizeBytes(),
			Shards:    r.Shards(),
			Replicas:  int(atoi64(r.Replicas)),
			Segments:  r.Segments(),
			Docs:      atoi64(r.DocsCount),
			Aliases:   aliases,
		})
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i].Name < indices[j].Name })
	return indices, nil
}

// IsLocalMaster reports whether the node the client is connected to is
// the elected master. It only makes sense for clients of a single node.
func (q *Query) IsLocalMaster(ctx context.Context) (bool, error) {
	logger := ctxlog.L(ctx).Named("Query.IsLocalMaster")

	state, err := q.client.ClusterState().Metric("master_node").Do(ctx)
	if err != nil {
		logger.Error("error getting elected master", zap.Error(err))
		return false, err
	}
	local, err := q.client.NodesInfo().NodeId("_local").Do(ctx)
	if err != nil {
		logger.Error("error getting local node", zap.Error(err))
		return false, err
	}
	_, ok := local.Nodes[state.MasterNode]
	logger.Debug("checked elected master", zap.String("master_node", state.MasterNode), zap.Bool("local", ok))
	return ok, nil
}

// Repositories returns the names of the registered snapshot repositories, sorted.
func (q *Query) Repositories(ctx context.Context) (names []string, err error) {
	timer := metrics.NewVecTimer(QueryRepositoriesDuration)
	defer func() { timer.ObserveErr(err) }()

	logger := ctxlog.L(ctx).Named("Query.Repositories")

	logger.Debug("getting snapshot repositories")
	var resp elastic.SnapshotGetRepositoryResponse
	resp, err = q.client.SnapshotGetRepository().Do(ctx)
	if err != nil {
		logger.Error("error getting snapshot repositories", zap.Error(err))
		return nil, err
	}
	names = make([]string, 0, len(resp))
	for name := range resp {
		names = append(names, name)
	}
	sort.Strings(names)
	logger.Debug("got snapshot repositories", zap.Strings("repositories", names))
	return names, nil
}

// Snapshots returns the snapshots in the given repositories, or in every
// registered repository if none are given. Repositories are listed
// concurrently. The result is ordered by repository, then start time.
func (q *Query) Snapshots(ctx context.Context, repos ...string) (snapshots []Snapshot, err error) {
	timer := metrics.NewVecTimer(QuerySnapshotsDuration)
	defer func() { timer.ObserveErr(err) }()

	logger := ctxlog.L(ctx).Named("Query.Snapshots")

	if len(repos) == 0 {
		if repos, err = q.Repositories(ctx); err != nil {
			return nil, err
		}
	}

	perRepo := make([][]Snapshot, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	for i, repo := range repos {
		i, repo := i, repo
		g.Go(func() error {
			logger := logger.With(zap.String("repository", repo))
			logger.Debug("getting snapshots")
			resp, err := q.client.SnapshotGet(repo).Do(gctx)
			if err != nil {
				logger.Error("error getting snapshots", zap.Error(err))
				return err
			}
			out := make([]Snapshot, 0, len(resp.Snapshots))
			for _, s := range resp.Snapshots {
				out = append(out, Snapshot{
					Repository: repo,
					Name:       s.Snapshot,
					State:      s.State,
					Indices:    s.Indices,
					Started:    time.Unix(0, s.StartTimeInMillis*int64(time.Millisecond)).UTC(),
				})
			}
			sort.SliceStable(out, func(i, j int) bool { return out[i].Started.Before(out[j].Started) })
			perRepo[i] = out
			logger.Debug("got snapshots", zap.Int("count", len(out)))
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	for _, s := range perRepo {
		snapshots = append(snapshots, s...)
	}
	return snapshots, nil
}

// FieldStats returns the earliest and latest values of a date field in index.
// The first result for each index and field is remembered, so every caller
// sees the same value for the life of the Query.
func (q *Query) FieldStats(ctx context.Context, index, field string) (stats FieldStats, err error) {
	key := index + "\x00" + field
	if v, ok := q.stats.Get(key); ok {
		return v.(FieldStats), nil
	}

	timer := metrics.NewVecTimer(QueryFieldStatsDuration)
	defer func() { timer.ObserveErr(err) }()

	logger := ctxlog.L(ctx).Named("Query.FieldStats").With(
		zap.String("index", index),
		zap.String("field", field),
	)

	logger.Debug("getting field stats")
	var resp *elastic.SearchResult
	resp, err = q.client.Search(index).
		Size(0).
		Aggregation("min", elastic.NewMinAggregation().Field(field)).
		Aggregation("max", elastic.NewMaxAggregation().Field(field)).
		Do(ctx)
	if err != nil {
		logger.Error("error getting field stats", zap.Error(err))
		return FieldStats{}, err
	}

	min, okMin := resp.Aggregations.Min("min")
	max, okMax := resp.Aggregations.Max("max")
	if !okMin || !okMax || min.Value == nil || max.Value == nil {
		logger.Debug("index has no values for field")
		return FieldStats{}, ErrNoFieldStats
	}
	stats = FieldStats{
		Min: millisToTime(*min.Value),
		Max: millisToTime(*max.Value),
	}
	q.stats.Set(key, stats, cache.NoExpiration)
	logger.Debug("got field stats", zap.Time("min", stats.Min), zap.Time("max", stats.Max))
	return stats, nil
}

// Search runs a search request.
func (q *Query) Search(ctx context.Context, req SearchRequest) (resp *elastic.SearchResult, err error) {
	timer := metrics.NewVecTimer(QuerySearchDuration)
	defer func() { timer.ObserveErr(err) }()

	logger := ctxlog.L(ctx).Named("Query.Search").With(zap.Strings("indices", req.Indices))

	s := q.client.Search(req.Indices...)
	if req.Body != "" {
		if !json.Valid([]byte(req.Body)) {
			return nil, errors.New("search body is not valid JSON")
		}
		s = s.Source(json.RawMessage(req.Body))
	} else {
		if req.Query != "" {
			qs := elastic.NewQueryStringQuery(req.Query)
			if req.DefaultField != "" {
				qs = qs.DefaultField(req.DefaultField)
			}
			if req.DefaultOperator != "" {
				qs = qs.DefaultOperator(req.DefaultOperator)
			}
			s = s.Query(qs)
		}
		if req.From > 0 {
			s = s.From(req.From)
		}
		if req.Size > 0 {
			s = s.Size(req.Size)
		}
	}

	logger.Debug("searching")
	resp, err = s.Do(ctx)
	if err != nil {
		logger.Error("error searching", zap.Error(err))
		return nil, err
	}
	logger.Debug("searched", zap.Int64("hits", resp.TotalHits()))
	return resp, nil
}

func millisToTime(ms float64) time.Time {
	return time.Unix(0, int64(ms)*int64(time.Millisecond)).UTC()
}

// atoi64 parses a cat column, treating nulls and garbage as 0.
func atoi64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
