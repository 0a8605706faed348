package metrics

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus" // Prometheus metrics.
	"github.com/stretchr/testify/assert"             // Test assertions e.g. equality.
	"github.com/stretchr/testify/require"
)

func TestMustRegisterOnce(t *testing.T) {
	r := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "foo",
		Subsystem: "bar",
		Name:      "baz",
		Help:      "Example counter",
	})

	originalR := prometheus.DefaultRegisterer
	defer func() {
		prometheus.DefaultRegisterer = originalR
	}()

	prometheus.DefaultRegisterer = r
	mfs, err := r.Gather()
	assert.NoError(t, err)
	assert.Empty(t, mfs)

	MustRegisterOnce(c)
	MustRegisterOnce(c)
	mfs, err = r.Gather()
	assert.NoError(t, err)
	if assert.Len(t, mfs, 1) {
		assert.Equal(t, "Example counter", mfs[0].GetHelp())
	}
}

func TestWriteTextfile(t *testing.T) {
	dir, err := ioutil.TempDir("", "curator-metrics")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	r := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "curator_test_total",
		Help: "Example counter",
	})
	r.MustRegister(c)
	c.Inc()

	path := filepath.Join(dir, "curator.prom")
	require.NoError(t, WriteTextfile(path, r))
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "curator_test_total 1")

	assert.NoError(t, WriteTextfile("", r))
}
