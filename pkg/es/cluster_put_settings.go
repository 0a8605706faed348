package es

import (
	"context"
	"fmt"
	"net/url"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client.
)

// ClusterPutSettingsService updates the settings of an Elasticsearch cluster.
type ClusterPutSettingsService struct {
	client        *elastic.Client
	pretty        bool
	flatSettings  *bool
	masterTimeout string
	bodyJSON      interface{}
	transient     map[string]interface{}
	persistent    map[string]interface{}
}

// NewClusterPutSettingsService returns a new ClusterPutSettingsService.
func NewClusterPutSettingsService(client *elastic.Client) *ClusterPutSettingsService {
	return &ClusterPutSettingsService{
		client:     client,
		transient:  make(map[string]interface{}),
		persistent: make(map[string]interface{}),
	}
}

// Transient adds a transient setting to the request.
// A nil value resets the setting to its default.
func (s *ClusterPutSettingsService) Transient(setting string, value interface{}) *ClusterPutSettingsService {
	s.transient[setting] = value
	return s
}

// Persistent adds a persistent setting to the request.
// A nil value resets the setting to its default.
func (s *ClusterPutSettingsService) Persistent(setting string, value interface{}) *ClusterPutSettingsService {
	s.persistent[setting] = value
	return s
}

// FlatSettings indicates whether to return settings in flat format (default: false).
func (s *ClusterPutSettingsService) FlatSettings(flatSettings bool) *ClusterPutSettingsService {
	s.flatSettings = &flatSettings
	return s
}

// MasterTimeout is the timeout for connection to master.
func (s *ClusterPutSettingsService) MasterTimeout(masterTimeout string) *ClusterPutSettingsService {
	s.masterTimeout = masterTimeout
	return s
}

// Pretty indicates that the JSON response be indented and human readable.
func (s *ClusterPutSettingsService) Pretty(pretty bool) *ClusterPutSettingsService {
	s.pretty = pretty
	return s
}

// BodyJSON sets the whole request body, overriding Transient and Persistent.
func (s *ClusterPutSettingsService) BodyJSON(body interface{}) *ClusterPutSettingsService {
	s.bodyJSON = body
	return s
}

// buildURL builds the URL for the operation.
func (s *ClusterPutSettingsService) buildURL() (string, url.Values, error) {
	path := "/_cluster/settings"

	params := url.Values{}
	if s.pretty {
		params.Set("pretty", "true")
	}
	if s.flatSettings != nil {
		params.Set("flat_settings", fmt.Sprintf("%v", *s.flatSettings))
	}
	if s.masterTimeout != "" {
		params.Set("master_timeout", s.masterTimeout)
	}
	return path, params, nil
}

// Validate checks if the operation is valid.
func (s *ClusterPutSettingsService) Validate() error {
	if s.bodyJSON == nil && len(s.transient) == 0 && len(s.persistent) == 0 {
		return fmt.Errorf("missing required fields: %v", []string{"Transient", "Persistent"})
	}
	return nil
}

// Do executes the operation.
func (s *ClusterPutSettingsService) Do(ctx context.Context) (*ClusterSettingsResponse, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	path, params, err := s.buildURL()
	if err != nil {
		return nil, err
	}

	body := s.bodyJSON
	if body == nil {
		// Empty sections are left out.
		settings := make(map[string]interface{}, 2)
		if len(s.persistent) > 0 {
			settings["persistent"] = s.persistent
		}
		if len(s.transient) > 0 {
			settings["transient"] = s.transient
		}
		body = settings
	}

	res, err := s.client.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method: "PUT",
		Path:   path,
		Params: params,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	return parseClusterSettings(res.Body, false)
}
