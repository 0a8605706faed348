package es

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client.
	"github.com/tidwall/gjson"              // Dynamic JSON parsing.
)

// ClusterGetSettingsService gets the settings of an Elasticsearch cluster.
type ClusterGetSettingsService struct {
	client          *elastic.Client
	includeDefaults bool
	flatSettings    *bool
	pretty          bool
	filterPath      []string
}

// NewClusterGetSettingsService returns a new ClusterGetSettingsService.
func NewClusterGetSettingsService(client *elastic.Client) *ClusterGetSettingsService {
	return &ClusterGetSettingsService{
		client: client,
	}
}

// Defaults indicates if Elasticsearch should include default settings values in the response.
func (s *ClusterGetSettingsService) Defaults(include bool) *ClusterGetSettingsService {
	s.includeDefaults = include
	return s
}

// FlatSettings indicates whether to return settings in flat format (default: false).
// Flat settings are keyed by their full dotted name.
func (s *ClusterGetSettingsService) FlatSettings(flat bool) *ClusterGetSettingsService {
	s.flatSettings = &flat
	return s
}

// FilterPath allows reducing the response, a mechanism known as
// response filtering and described here:
// https://www.elastic.co/guide/en/elasticsearch/reference/7.0/common-options.html#common-options-response-filtering.
func (s *ClusterGetSettingsService) FilterPath(filterPath ...string) *ClusterGetSettingsService {
	s.filterPath = append(s.filterPath, filterPath...)
	return s
}

// Pretty enables the caller to indent the JSON output.
func (s *ClusterGetSettingsService) Pretty(pretty bool) *ClusterGetSettingsService {
	s.pretty = pretty
	return s
}

func (s *ClusterGetSettingsService) buildURL() (string, url.Values, error) {
	path := "/_cluster/settings"

	params := url.Values{}
	if s.pretty {
		params.Set("pretty", "true")
	}
	if s.includeDefaults {
		params.Set("include_defaults", "true")
	}
	if s.flatSettings != nil {
		params.Set("flat_settings", fmt.Sprint(*s.flatSettings))
	}
	if len(s.filterPath) > 0 {
		params.Set("filter_path", strings.Join(s.filterPath, ","))
	}
	return path, params, nil
}

// Do executes the operation.
func (s *ClusterGetSettingsService) Do(ctx context.Context) (*ClusterSettingsResponse, error) {
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
	return parseClusterSettings(res.Body, s.includeDefaults)
}

// ClusterSettingsResponse represents the response from the Elasticsearch
// `GET /_cluster/settings` and `PUT /_cluster/settings` APIs.
type ClusterSettingsResponse struct {
	// Persistent hold the Elasticsearch settings that persist between cluster restarts.
	Persistent *gjson.Result

	// Transient hold the Elasticsearch settings that do not persist between cluster restarts.
	Transient *gjson.Result

	// Defaults is only set when requested.
	Defaults *gjson.Result
}

// Effective returns the value of a setting, looking at transient,
// then persistent, then default settings. Setting names are dotted paths;
// both flat and nested responses are handled.
func (r *ClusterSettingsResponse) Effective(setting string) gjson.Result {
	for _, group := range []*gjson.Result{r.Transient, r.Persistent, r.Defaults} {
		if group == nil {
			continue
		}
		if v := lookupSetting(*group, setting); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func lookupSetting(group gjson.Result, setting string) gjson.Result {
	if v := group.Get(escapeDots(setting)); v.Exists() {
		return v
	}
	return group.Get(setting)
}

func escapeDots(s string) string {
	return strings.Replace(s, ".", `\.`, -1)
}

func parseClusterSettings(body []byte, withDefaults bool) (*ClusterSettingsResponse, error) {
	if !gjson.Valid(string(body)) {
		return nil, errors.New("invalid json")
	}
	result := gjson.ParseBytes(body)
	persistent := result.Get("persistent")
	transient := result.Get("transient")
	ret := &ClusterSettingsResponse{
		Persistent: &persistent,
		Transient:  &transient,
	}
	if withDefaults {
		defaults := result.Get("defaults")
		ret.Defaults = &defaults
	}
	return ret, nil
}
