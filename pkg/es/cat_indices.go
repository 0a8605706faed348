package es

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	elastic "github.com/olivere/elastic/v7"
	"github.com/olivere/elastic/v7/uritemplates"
)

// DefaultCatIndicesColumns are the columns requested when none are set.
var DefaultCatIndicesColumns = []string{
	"index",
	"status",
	"health",
	"creation.date",
	"store.size",
	"pri",
	"rep",
	"docs.count",
	"segments.count",
}

// CatIndicesService returns the list of indices plus some additional
// information about them.
//
// olivere/elastic has its own CatIndicesService, but it doesn't let us
// ask for creation dates or segment counts in a machine-readable form.
//
// See https://www.elastic.co/guide/en/elasticsearch/reference/7.0/cat-indices.html
// for details.
type CatIndicesService struct {
	client        *elastic.Client
	pretty        bool
	index         string
	expandWild    string
	local         *bool
	masterTimeout string
	columns       []string
	sort          []string // list of columns for sort order
}

// NewCatIndicesService creates a new CatIndicesService.
func NewCatIndicesService(client *elastic.Client) *CatIndicesService {
	return &CatIndicesService{
		client:  client,
		columns: DefaultCatIndicesColumns,
	}
}

// Index limits the response to indices matching this pattern
// (by default all indices are returned).
func (s *CatIndicesService) Index(index string) *CatIndicesService {
	s.index = index
	return s
}

// ExpandWildcards controls which kinds of indices wildcard patterns
// expand to: "open", "closed", "all", or "none". Defaults to "all".
func (s *CatIndicesService) ExpandWildcards(expand string) *CatIndicesService {
	s.expandWild = expand
	return s
}

// Local indicates to return local information, i.e. do not retrieve
// the state from master node (default: false).
func (s *CatIndicesService) Local(local bool) *CatIndicesService {
	s.local = &local
	return s
}

// MasterTimeout is the explicit operation timeout for connection to master node.
func (s *CatIndicesService) MasterTimeout(masterTimeout string) *CatIndicesService {
	s.masterTimeout = masterTimeout
	return s
}

// Columns to return in the response.
// Please use the long names for columns (i.e. `creation.date`) for JSON unmarshalling
// to work correctly.
func (s *CatIndicesService) Columns(columns ...string) *CatIndicesService {
	s.columns = columns
	return s
}

// Sort is a list of fields to sort by.
func (s *CatIndicesService) Sort(fields ...string) *CatIndicesService {
	s.sort = fields
	return s
}

// Pretty indicates that the JSON response be indented and human readable.
func (s *CatIndicesService) Pretty(pretty bool) *CatIndicesService {
	s.pretty = pretty
	return s
}

// buildURL builds the URL for the operation.
func (s *CatIndicesService) buildURL() (string, url.Values, error) {
	var (
		path string
		err  error
	)

	if s.index != "" {
		path, err = uritemplates.Expand("/_cat/indices/{index}", map[string]string{
			"index": s.index,
		})
	} else {
		path = "/_cat/indices"
	}
	if err != nil {
		return "", url.Values{}, err
	}

	params := url.Values{
		"format": []string{"json"}, // always returns as JSON
		"bytes":  []string{"b"},    // sizes are parsed as plain integers
	}
	if s.pretty {
		params.Set("pretty", "true")
	}
	if s.expandWild != "" {
		params.Set("expand_wildcards", s.expandWild)
	} else {
		params.Set("expand_wildcards", "all")
	}
	if v := s.local; v != nil {
		params.Set("local", fmt.Sprint(*v))
	}
	if s.masterTimeout != "" {
		params.Set("master_timeout", s.masterTimeout)
	}
	if len(s.columns) > 0 {
		params.Set("h", strings.Join(s.columns, ","))
	}
	if len(s.sort) > 0 {
		params.Set("s", strings.Join(s.sort, ","))
	}
	return path, params, nil
}

// Do executes the operation.
func (s *CatIndicesService) Do(ctx context.Context) (CatIndicesResponse, error) {
	path, params, err := s.buildURL()
	if err != nil {
		return nil, err
	}

	res, err := s.client.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method: "GET",
		Path:   path,
		Params: params,
	})
	if err != nil {
		return nil, err
	}

	var ret CatIndicesResponse
	if err := (&elastic.DefaultDecoder{}).Decode(res.Body, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// -- Result of a get request.

// CatIndicesResponse is the outcome of CatIndicesService.Do.
type CatIndicesResponse []CatIndicesResponseRow

// CatIndicesResponseRow specifies the data returned for one index
// of a CatIndicesResponse. Elasticsearch returns every column as a
// string, and closed indices return nulls for most of them, so numeric
// columns are kept as strings and parsed by the accessor methods.
type CatIndicesResponseRow struct {
	Index         string `json:"index"`          // index name
	Status        string `json:"status"`         // open or close
	Health        string `json:"health"`         // green, yellow, or red
	CreationDate  string `json:"creation.date"`  // epoch millis
	StoreSize     string `json:"store.size"`     // bytes, including replicas
	Primaries     string `json:"pri"`            // number of primary shards
	Replicas      string `json:"rep"`            // number of replicas
	DocsCount     string `json:"docs.count"`     // number of documents
	SegmentsCount string `json:"segments.count"` // number of segments, including replicas
}

// Created returns the index creation time, or the zero Time if unknown.
func (r CatIndicesResponseRow) Created() time.Time {
	ms, err := strconv.ParseInt(r.CreationDate, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, ms*int64(time.Millisecond)).UTC()
}

// SizeBytes returns the total store size, or 0 if unknown.
func (r CatIndicesResponseRow) SizeBytes() int64 {
	return parseInt64(r.StoreSize)
}

// Shards returns the number of primary shards, or 0 if unknown.
func (r CatIndicesResponseRow) Shards() int {
	return int(parseInt64(r.Primaries))
}

// Segments returns the number of segments, or 0 if unknown.
func (r CatIndicesResponseRow) Segments() int {
	return int(parseInt64(r.SegmentsCount))
}

func parseInt64(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return i
}
