// Package regions loads the list of regional storefronts to visit.
package regions

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"tariffscout/internal/errors"
	"tariffscout/pkg/models"
)

// Source yields regions in the order they should be processed.
type Source interface {
	Regions(ctx context.Context) ([]models.Region, error)
}

// HTTPSource reads a JSON region list: either a bare array of regions or an
// object with a "regions" array.
type HTTPSource struct {
	URL    string
	client *resty.Client
}

func NewHTTPSource(client *resty.Client, url string) *HTTPSource {
	return &HTTPSource{URL: url, client: client}
}

func (s *HTTPSource) Regions(ctx context.Context) ([]models.Region, error) {
	res, err := s.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(s.URL)
	if err != nil {
		return nil, errors.Wrap(errors.TypeRegionList, "fetch region list", err).WithContext("url", s.URL)
	}
	if res.IsError() {
		return nil, errors.Newf(errors.TypeRegionList, "fetch region list: %s", res.Status()).WithContext("url", s.URL)
	}
	list, err := decodeJSON(res.Body())
	if err != nil {
		return nil, errors.Wrap(errors.TypeRegionList, "decode region list", err).WithContext("url", s.URL)
	}
	return list, nil
}

func decodeJSON(body []byte) ([]models.Region, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var list []models.Region
		err := json.Unmarshal(body, &list)
		return list, err
	}
	var wrapped struct {
		Regions *[]models.Region `json:"regions"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Regions == nil {
		return nil, fmt.Errorf("no regions array in response")
	}
	return *wrapped.Regions, nil
}

// FileSource reads a YAML region list, either a bare sequence or a mapping
// with a "regions" key.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Regions(ctx context.Context) ([]models.Region, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.Wrap(errors.TypeRegionList, "read regions file", err).WithContext("path", s.Path)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.Wrap(errors.TypeRegionList, "parse regions file", err).WithContext("path", s.Path)
	}
	list, err := decodeYAML(&node)
	if err != nil {
		return nil, errors.Wrap(errors.TypeRegionList, "parse regions file", err).WithContext("path", s.Path)
	}
	return list, nil
}

func decodeYAML(node *yaml.Node) ([]models.Region, error) {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, nil
		}
		node = node.Content[0]
	}
	var list []models.Region
	switch node.Kind {
	case yaml.SequenceNode:
		err := node.Decode(&list)
		return list, err
	case yaml.MappingNode:
		var wrapped struct {
			Regions []models.Region `yaml:"regions"`
		}
		err := node.Decode(&wrapped)
		return wrapped.Regions, err
	default:
		return nil, fmt.Errorf("expected a list of regions")
	}
}
