package curator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mintel/elasticsearch-curator/internal/pkg/action"
	"github.com/mintel/elasticsearch-curator/internal/pkg/elasticsearch"
	"github.com/mintel/elasticsearch-curator/internal/pkg/filter"
	"github.com/mintel/elasticsearch-curator/internal/pkg/testutil"
	"github.com/mintel/elasticsearch-curator/pkg/ctxlog"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Indices(ctx context.Context) ([]elasticsearch.Index, error) {
	args := m.Called(ctx)
	return args.Get(0).([]elasticsearch.Index), args.Error(1)
}

func (m *mockSource) Snapshots(ctx context.Context, repos ...string) ([]elasticsearch.Snapshot, error) {
	args := m.Called(ctx, repos)
	return args.Get(0).([]elasticsearch.Snapshot), args.Error(1)
}

func (m *mockSource) FieldStats(ctx context.Context, index, field string) (elasticsearch.FieldStats, error) {
	args := m.Called(ctx, index, field)
	return args.Get(0).(elasticsearch.FieldStats), args.Error(1)
}

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Execute(ctx context.Context, a string, targets []string, opts action.Options) error {
	args := m.Called(ctx, a, targets, opts)
	return args.Error(0)
}

var testIndices = []elasticsearch.Index{
	{Name: "logs-2023.01.01", Open: true, Created: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
	{Name: "logs-2023.06.01", Open: true, Created: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
	{Name: ".kibana", Open: true, Created: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)},
}

func setup(t *testing.T) (context.Context, *mockSource, *mockExecutor, *Invoker, func()) {
	logger, teardown := testutil.TestLogger(t)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	source, exec := &mockSource{}, &mockExecutor{}
	return ctx, source, exec, NewInvoker(source, exec), teardown
}

func TestInvoker_Invoke_deleteProtectsKibana(t *testing.T) {
	ctx, source, exec, inv, teardown := setup(t)
	defer teardown()

	source.On("Indices", mock.Anything).Return(testIndices, nil).Once()
	exec.On("Execute", mock.Anything, action.DeleteIndices, []string{"logs-2023.01.01", "logs-2023.06.01"}, action.Options{}).
		Return(nil).Once()

	report, err := inv.Invoke(ctx, Invocation{Domain: "indices", Command: "delete"})
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, action.DeleteIndices, report.Descriptor.Action)
	assert.Equal(t, []string{"logs-2023.01.01", "logs-2023.06.01"}, report.Selected.Names())
	source.AssertExpectations(t)
	exec.AssertExpectations(t)
}

func TestInvoker_Invoke_noMatch(t *testing.T) {
	ctx, source, exec, inv, teardown := setup(t)
	defer teardown()

	source.On("Indices", mock.Anything).Return(testIndices, nil).Once()

	raw := map[string]interface{}{"delete_aliases": true}
	_, err := inv.Invoke(ctx, Invocation{
		Domain:  "indices",
		Command: "close",
		Filters: filter.Spec{{FilterType: filter.TypePattern, Kind: "prefix", Value: "metrics-"}},
		Options: raw,
	})
	require.Error(t, err)
	nm, ok := err.(*filter.NoMatchError)
	require.True(t, ok)
	assert.Equal(t, action.Indices, nm.Domain)
	assert.Equal(t, raw, nm.Options)
	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoker_Invoke_rollover(t *testing.T) {
	ctx, source, exec, inv, teardown := setup(t)
	defer teardown()

	source.On("Indices", mock.Anything).Return(testIndices, nil).Once()
	conditions := map[string]interface{}{"max_age": "1d"}
	exec.On("Execute", mock.Anything, action.Rollover, []string(nil), action.Options{"name": "logs", "conditions": conditions}).
		Return(nil).Once()

	report, err := inv.Invoke(ctx, Invocation{
		Domain:  "indices",
		Command: "rollover",
		Filters: filter.Spec{{FilterType: filter.TypePattern, Kind: "prefix", Value: "logs-"}},
		Options: map[string]interface{}{"name": "logs", "conditions": conditions, "count": 2, "remove": ""},
	})
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Len(t, report.Selected.Names(), 2, "filters matched indices")
	require.Len(t, report.Outcomes, 1)
	assert.Nil(t, report.Outcomes[0].Targets)
	exec.AssertExpectations(t)
}

func TestInvoker_Invoke_failedCall(t *testing.T) {
	ctx, source, exec, inv, teardown := setup(t)
	defer teardown()

	source.On("Indices", mock.Anything).Return(testIndices, nil).Once()
	exec.On("Execute", mock.Anything, action.Open, mock.Anything, mock.Anything).Return(errors.New("boom")).Once()

	report, err := inv.Invoke(ctx, Invocation{Domain: "indices", Command: "open"})
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.EqualError(t, report.Err(), "Open on 3 targets failed: boom")
}

func TestInvoker_Invoke_structuralErrors(t *testing.T) {
	ctx, source, exec, inv, teardown := setup(t)
	defer teardown()

	_, err := inv.Invoke(ctx, Invocation{Domain: "nodes", Command: "close"})
	assert.True(t, errors.Is(err, action.ErrInvalidDomain))

	_, err = inv.Invoke(ctx, Invocation{Domain: "indices", Command: "frobnicate"})
	assert.IsType(t, &action.UnsupportedCommandError{}, err)

	_, err = inv.Invoke(ctx, Invocation{Domain: "snapshots", Command: "close"})
	assert.IsType(t, &action.UnsupportedCommandError{}, err)

	_, err = inv.Invoke(ctx, Invocation{Domain: "indices", Command: "replicas"})
	assert.IsType(t, &action.OptionError{}, err)

	source.On("Indices", mock.Anything).Return(testIndices, nil).Once()
	_, err = inv.Invoke(ctx, Invocation{
		Domain:  "indices",
		Command: "close",
		Filters: filter.Spec{{FilterType: "bogus"}},
	})
	assert.IsType(t, &filter.ConfigurationError{}, err)

	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	source.AssertNotCalled(t, "Snapshots", mock.Anything, mock.Anything)
}

func TestInvoker_Invoke_snapshotsSnapshot(t *testing.T) {
	ctx, source, exec, inv, teardown := setup(t)
	defer teardown()

	source.On("Indices", mock.Anything).Return(testIndices, nil).Once()
	opts := action.Options{"repository": "backups", "name": "nightly"}
	exec.On("Execute", mock.Anything, action.Snapshot, []string{"logs-2023.01.01", "logs-2023.06.01", ".kibana"}, opts).
		Return(nil).Once()

	report, err := inv.Invoke(ctx, Invocation{
		Domain:  "snapshots",
		Command: "snapshot",
		Filters: filter.Spec{{FilterType: filter.TypeKibana}},
		Options: map[string]interface{}{"repository": "backups", "name": "nightly"},
	})
	require.NoError(t, err)
	assert.True(t, report.OK())
	exec.AssertExpectations(t)
	source.AssertNotCalled(t, "Snapshots", mock.Anything, mock.Anything)
}

func TestInvoker_Invoke_deleteSnapshots(t *testing.T) {
	ctx, source, exec, inv, teardown := setup(t)
	defer teardown()

	source.On("Snapshots", mock.Anything, []string(nil)).Return([]elasticsearch.Snapshot{
		{Repository: "a", Name: "curator-1", State: "SUCCESS"},
		{Repository: "b", Name: "curator-2", State: "SUCCESS"},
		{Repository: "a", Name: "curator-3", State: "FAILED"},
	}, nil).Twice()

	// Without a repository each snapshot is deleted from its own.
	exec.On("Execute", mock.Anything, action.DeleteSnapshots, []string{"curator-1"}, action.Options{"repository": "a"}).Return(nil).Once()
	exec.On("Execute", mock.Anything, action.DeleteSnapshots, []string{"curator-2"}, action.Options{"repository": "b"}).Return(nil).Once()
	report, err := inv.Invoke(ctx, Invocation{
		Domain:  "snapshots",
		Command: "delete",
		Filters: filter.Spec{{FilterType: filter.TypeState, State: "success"}},
	})
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Len(t, report.Outcomes, 2)

	// With one, only its snapshots are seen.
	exec.On("Execute", mock.Anything, action.DeleteSnapshots, []string{"curator-3"}, action.Options{"repository": "a"}).Return(nil).Once()
	report, err = inv.Invoke(ctx, Invocation{
		Domain:  "snapshots",
		Command: "deletesnapshots",
		Filters: filter.Spec{{FilterType: filter.TypeState, State: "failed"}},
		Options: map[string]interface{}{"repository": "a"},
	})
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Len(t, report.Outcomes, 1)

	exec.AssertExpectations(t)
	source.AssertExpectations(t)
}

func TestInvoker_Invoke_cluster(t *testing.T) {
	ctx, source, exec, inv, teardown := setup(t)
	defer teardown()

	report, err := inv.Invoke(ctx, Invocation{
		Domain:  "cluster",
		Command: "clusterrouting",
		Options: map[string]interface{}{"value": "all"},
	})
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Nil(t, report.Selected)
	assert.True(t, errors.Is(report.Err(), action.ErrNotImplemented))
	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	source.AssertNotCalled(t, "Indices", mock.Anything)
}

func TestInvoker_Invoke_clusterWithoutOptions(t *testing.T) {
	ctx, _, exec, inv, teardown := setup(t)
	defer teardown()

	// Cluster options go unchecked, so the command reaches dispatch.
	report, err := inv.Invoke(ctx, Invocation{Domain: "cluster", Command: "clusterrouting"})
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.True(t, errors.Is(report.Err(), action.ErrNotImplemented))
	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoker_Resolve_indicesClusterRouting(t *testing.T) {
	_, _, _, inv, teardown := setup(t)
	defer teardown()

	// Outside the cluster domain the options are still checked.
	_, _, err := inv.Resolve("indices", "clusterrouting", nil)
	var optErr *action.OptionError
	assert.True(t, errors.As(err, &optErr))
}

func TestInvoker_Select(t *testing.T) {
	ctx, source, _, inv, teardown := setup(t)
	defer teardown()

	source.On("Indices", mock.Anything).Return(testIndices, nil).Once()
	wl, err := inv.Select(ctx, "indices", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"logs-2023.01.01", "logs-2023.06.01", ".kibana"}, wl.Names(), "nothing is protected")

	_, err = inv.Select(ctx, "cluster", nil)
	assert.True(t, errors.Is(err, action.ErrInvalidDomain))
}
