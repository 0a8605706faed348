package es

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	elastic "github.com/olivere/elastic/v7"
	"github.com/olivere/elastic/v7/uritemplates"
)

// IndicesPutSettingsService updates the settings of indices.
// Unlike elastic.IndicesPutSettingsService it supports preserve_existing.
//
// See https://www.elastic.co/guide/en/elasticsearch/reference/7.x/indices-update-settings.html
// for details.
type IndicesPutSettingsService struct {
	client            *elastic.Client
	pretty            bool
	indices           []string
	ignoreUnavailable *bool
	preserveExisting  *bool
	masterTimeout     string
	bodyJSON          interface{}
}

// NewIndicesPutSettingsService returns a new IndicesPutSettingsService.
func NewIndicesPutSettingsService(client *elastic.Client) *IndicesPutSettingsService {
	return &IndicesPutSettingsService{
		client: client,
	}
}

// Index adds indices to update. No indices means all indices.
func (s *IndicesPutSettingsService) Index(indices ...string) *IndicesPutSettingsService {
	s.indices = append(s.indices, indices...)
	return s
}

// IgnoreUnavailable skips requested indices that are missing or closed.
func (s *IndicesPutSettingsService) IgnoreUnavailable(ignore bool) *IndicesPutSettingsService {
	s.ignoreUnavailable = &ignore
	return s
}

// PreserveExisting leaves settings that are already set unchanged.
func (s *IndicesPutSettingsService) PreserveExisting(preserve bool) *IndicesPutSettingsService {
	s.preserveExisting = &preserve
	return s
}

// MasterTimeout is the timeout for connection to master.
func (s *IndicesPutSettingsService) MasterTimeout(masterTimeout string) *IndicesPutSettingsService {
	s.masterTimeout = masterTimeout
	return s
}

// Pretty indicates that the JSON response be indented and human readable.
func (s *IndicesPutSettingsService) Pretty(pretty bool) *IndicesPutSettingsService {
	s.pretty = pretty
	return s
}

// BodyJSON sets the settings to put.
func (s *IndicesPutSettingsService) BodyJSON(body interface{}) *IndicesPutSettingsService {
	s.bodyJSON = body
	return s
}

// buildURL builds the URL for the operation.
func (s *IndicesPutSettingsService) buildURL() (string, url.Values, error) {
	path := "/_settings"
	if len(s.indices) > 0 {
		var err error
		path, err = uritemplates.Expand("/{index}/_settings", map[string]string{
			"index": strings.Join(s.indices, ","),
		})
		if err != nil {
			return "", url.Values{}, err
		}
	}

	params := url.Values{}
	if s.pretty {
		params.Set("pretty", "true")
	}
	if v := s.ignoreUnavailable; v != nil {
		params.Set("ignore_unavailable", fmt.Sprint(*v))
	}
	if v := s.preserveExisting; v != nil {
		params.Set("preserve_existing", fmt.Sprint(*v))
	}
	if s.masterTimeout != "" {
		params.Set("master_timeout", s.masterTimeout)
	}
	return path, params, nil
}

// Validate checks if the operation is valid.
func (s *IndicesPutSettingsService) Validate() error {
	if s.bodyJSON == nil {
		return fmt.Errorf("missing required fields: %v", []string{"BodyJSON"})
	}
	return nil
}

// Do executes the operation.
func (s *IndicesPutSettingsService) Do(ctx context.Context) (*elastic.IndicesPutSettingsResponse, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	path, params, err := s.buildURL()
	if err != nil {
		return nil, err
	}

	res, err := s.client.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method: "PUT",
		Path:   path,
		Params: params,
		Body:   s.bodyJSON,
	})
	if err != nil {
		return nil, err
	}

	ret := new(elastic.IndicesPutSettingsResponse)
	if err := (&elastic.DefaultDecoder{}).Decode(res.Body, ret); err != nil {
		return nil, err
	}
	return ret, nil
}
