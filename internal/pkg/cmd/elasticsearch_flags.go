package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client.

	"github.com/mintel/elasticsearch-curator/pkg/es" // Extensions to the Elasticsearch client.
)

// ElasticsearchFlags represents a base set of flags for
// connecting to Elasticsearch.
type ElasticsearchFlags struct {
	// URL(s) of Elasticsearch nodes to connect to.
	// If empty, a single URL is built from the other flags.
	URLs []*url.URL

	Host       string
	Port       uint16
	URLPrefix  string
	UseSSL     bool
	HTTPAuth   string        // user:password
	MasterOnly bool          // only act if the node is the elected master
	Timeout    time.Duration // per request

	// Exponential backoff retries flags.
	Retry es.Backoff
}

// NewElasticsearchFlags returns a new ElasticsearchFlags.
func NewElasticsearchFlags(app Flagger, retryInit, retryMax time.Duration) *ElasticsearchFlags {
	var f ElasticsearchFlags

	app.Flag("elasticsearch.url", "URL(s) of Elasticsearch. Overrides host, port, url-prefix and use-ssl.").
		Short('e').
		Envar("ELASTICSEARCH_URL").
		URLListVar(&f.URLs)

	app.Flag("host", "Elasticsearch host.").
		Envar("ELASTICSEARCH_HOST").
		Default("localhost").
		StringVar(&f.Host)

	app.Flag("port", "Elasticsearch port.").
		Envar("ELASTICSEARCH_PORT").
		Default("9200").
		Uint16Var(&f.Port)

	app.Flag("url-prefix", "Elasticsearch HTTP url prefix.").
		Envar("ELASTICSEARCH_URL_PREFIX").
		StringVar(&f.URLPrefix)

	app.Flag("use-ssl", "Connect to Elasticsearch through SSL.").
		Envar("ELASTICSEARCH_USE_SSL").
		BoolVar(&f.UseSSL)

	app.Flag("http-auth", "Use basic authentication, as user:password.").
		Envar("ELASTICSEARCH_HTTP_AUTH").
		StringVar(&f.HTTPAuth)

	app.Flag("master-only", "Only operate on the elected master node.").
		Envar("ELASTICSEARCH_MASTER_ONLY").
		BoolVar(&f.MasterOnly)

	app.Flag("timeout", "Elasticsearch request timeout.").
		Envar("ELASTICSEARCH_TIMEOUT").
		Default("30s").
		DurationVar(&f.Timeout)

	app.Flag("elasticsearch.retry.init", "Initial duration of Elasticsearch exponential backoff retries.").
		Hidden().
		Default(retryInit.String()).
		DurationVar(&f.Retry.Init)

	app.Flag("elasticsearch.retry.max", "Max duration of Elasticsearch exponential backoff retries.").
		Hidden().
		Default(retryMax.String()).
		DurationVar(&f.Retry.Max)

	return &f
}

// Addresses returns the URLs of the Elasticsearch nodes to connect to.
func (f *ElasticsearchFlags) Addresses() []string {
	if len(f.URLs) > 0 {
		urls := make([]string, len(f.URLs))
		for i, u := range f.URLs {
			urls[i] = u.String()
		}
		return urls
	}
	u := url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", f.Host, f.Port),
		Path:   "/" + strings.Trim(f.URLPrefix, "/"),
	}
	if f.UseSSL {
		u.Scheme = "https"
	}
	return []string{strings.TrimSuffix(u.String(), "/")}
}

// HTTPClient returns the base HTTP client for Elasticsearch requests,
// with the request timeout.
func (f *ElasticsearchFlags) HTTPClient() *http.Client {
	return &http.Client{Timeout: f.Timeout}
}

// ClientOptions returns the Elasticsearch client options set by the
// flags, followed by options. Sniffing is disabled so requests only
// go to the given nodes.
func (f *ElasticsearchFlags) ClientOptions(options ...elastic.ClientOptionFunc) ([]elastic.ClientOptionFunc, error) {
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(f.Addresses()...),
		elastic.SetSniff(false),
	}
	if f.HTTPAuth != "" {
		parts := strings.SplitN(f.HTTPAuth, ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("--http-auth must look like user:password")
		}
		opts = append(opts, elastic.SetBasicAuth(parts[0], parts[1]))
	}
	return append(opts, options...), nil
}
