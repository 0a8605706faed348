package es

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	elastic "github.com/olivere/elastic/v7"
	"github.com/olivere/elastic/v7/uritemplates"
)

// SnapshotRestoreService restores a snapshot from a repository.
//
// See https://www.elastic.co/guide/en/elasticsearch/reference/7.0/modules-snapshots.html#restore-snapshot
// for details.
type SnapshotRestoreService struct {
	client            *elastic.Client
	pretty            bool
	repository        string
	snapshot          string
	masterTimeout     string
	waitForCompletion *bool
	indices           []string
	renamePattern     string
	renameReplacement string
	includeAliases    *bool
	includeGlobal     *bool
	partial           *bool
	ignoreUnavailable *bool
	indexSettings     map[string]interface{}
}

// NewSnapshotRestoreService returns a new SnapshotRestoreService.
func NewSnapshotRestoreService(client *elastic.Client) *SnapshotRestoreService {
	return &SnapshotRestoreService{
		client: client,
	}
}

// Repository is the name of the snapshot repository.
func (s *SnapshotRestoreService) Repository(repository string) *SnapshotRestoreService {
	s.repository = repository
	return s
}

// Snapshot is the name of the snapshot to restore.
func (s *SnapshotRestoreService) Snapshot(snapshot string) *SnapshotRestoreService {
	s.snapshot = snapshot
	return s
}

// Indices limits the restore to these indices. Defaults to all indices in the snapshot.
func (s *SnapshotRestoreService) Indices(indices ...string) *SnapshotRestoreService {
	s.indices = append(s.indices, indices...)
	return s
}

// Rename restored indices matching pattern with replacement.
func (s *SnapshotRestoreService) Rename(pattern, replacement string) *SnapshotRestoreService {
	s.renamePattern = pattern
	s.renameReplacement = replacement
	return s
}

// IncludeAliases restores aliases along with indices.
func (s *SnapshotRestoreService) IncludeAliases(include bool) *SnapshotRestoreService {
	s.includeAliases = &include
	return s
}

// IncludeGlobalState restores the cluster global state.
func (s *SnapshotRestoreService) IncludeGlobalState(include bool) *SnapshotRestoreService {
	s.includeGlobal = &include
	return s
}

// Partial allows restoring indices whose snapshot is missing shards.
func (s *SnapshotRestoreService) Partial(partial bool) *SnapshotRestoreService {
	s.partial = &partial
	return s
}

// IgnoreUnavailable skips requested indices that are missing from the snapshot.
func (s *SnapshotRestoreService) IgnoreUnavailable(ignore bool) *SnapshotRestoreService {
	s.ignoreUnavailable = &ignore
	return s
}

// IndexSettings overrides settings of the restored indices.
func (s *SnapshotRestoreService) IndexSettings(settings map[string]interface{}) *SnapshotRestoreService {
	s.indexSettings = settings
	return s
}

// WaitForCompletion blocks until the restore has finished.
func (s *SnapshotRestoreService) WaitForCompletion(wait bool) *SnapshotRestoreService {
	s.waitForCompletion = &wait
	return s
}

// MasterTimeout is the explicit operation timeout for connection to master node.
func (s *SnapshotRestoreService) MasterTimeout(masterTimeout string) *SnapshotRestoreService {
	s.masterTimeout = masterTimeout
	return s
}

// Pretty indicates that the JSON response be indented and human readable.
func (s *SnapshotRestoreService) Pretty(pretty bool) *SnapshotRestoreService {
	s.pretty = pretty
	return s
}

// buildURL builds the URL for the operation.
func (s *SnapshotRestoreService) buildURL() (string, url.Values, error) {
	path, err := uritemplates.Expand("/_snapshot/{repository}/{snapshot}/_restore", map[string]string{
		"repository": s.repository,
		"snapshot":   s.snapshot,
	})
	if err != nil {
		return "", url.Values{}, err
	}

	params := url.Values{}
	if s.pretty {
		params.Set("pretty", "true")
	}
	if s.masterTimeout != "" {
		params.Set("master_timeout", s.masterTimeout)
	}
	if v := s.waitForCompletion; v != nil {
		params.Set("wait_for_completion", fmt.Sprint(*v))
	}
	return path, params, nil
}

func (s *SnapshotRestoreService) body() map[string]interface{} {
	body := make(map[string]interface{})
	if len(s.indices) > 0 {
		body["indices"] = strings.Join(s.indices, ",")
	}
	if s.renamePattern != "" {
		body["rename_pattern"] = s.renamePattern
		body["rename_replacement"] = s.renameReplacement
	}
	if v := s.includeAliases; v != nil {
		body["include_aliases"] = *v
	}
	if v := s.includeGlobal; v != nil {
		body["include_global_state"] = *v
	}
	if v := s.partial; v != nil {
		body["partial"] = *v
	}
	if v := s.ignoreUnavailable; v != nil {
		body["ignore_unavailable"] = *v
	}
	if len(s.indexSettings) > 0 {
		body["index_settings"] = s.indexSettings
	}
	return body
}

// Validate checks if the operation is valid.
func (s *SnapshotRestoreService) Validate() error {
	var invalid []string
	if s.repository == "" {
		invalid = append(invalid, "Repository")
	}
	if s.snapshot == "" {
		invalid = append(invalid, "Snapshot")
	}
	if len(invalid) > 0 {
		return fmt.Errorf("missing required fields: %v", invalid)
	}
	return nil
}

// Do executes the operation.
func (s *SnapshotRestoreService) Do(ctx context.Context) (*SnapshotRestoreResponse, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	path, params, err := s.buildURL()
	if err != nil {
		return nil, err
	}

	res, err := s.client.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method: "POST",
		Path:   path,
		Params: params,
		Body:   s.body(),
	})
	if err != nil {
		return nil, err
	}

	ret := new(SnapshotRestoreResponse)
	if err := (&elastic.DefaultDecoder{}).Decode(res.Body, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// SnapshotRestoreResponse is the response of SnapshotRestoreService.Do.
// Accepted is set when not waiting for completion; Snapshot is set otherwise.
type SnapshotRestoreResponse struct {
	Accepted *bool `json:"accepted,omitempty"`
	Snapshot *struct {
		Snapshot string   `json:"snapshot"`
		Indices  []string `json:"indices"`
		Shards   struct {
			Total      int `json:"total"`
			Failed     int `json:"failed"`
			Successful int `json:"successful"`
		} `json:"shards"`
	} `json:"snapshot,omitempty"`
}
