// Package loader reads composition templates from YAML or JSON documents
// stored on any afs location.
//
// A document holds either a single template, a sequence of templates, or a
// mapping with a "templates" sequence. Multi-document YAML streams are
// supported, and ${env.NAME} expressions are expanded before parsing.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
	"github.com/viant/composer/internal/yml"
	"github.com/viant/composer/model"
	"gopkg.in/yaml.v3"
)

// Registry receives loaded templates.
type Registry interface {
	Register(ctx context.Context, template *model.CompositionTemplate) error
}

// Service loads templates.
type Service struct {
	fs afs.Service
}

// New creates a loader backed by afs.
func New() *Service {
	return &Service{fs: afs.New()}
}

// Load reads templates from a file or, for a folder, from every .yaml, .yml
// and .json file inside it (ordered by name). Each template is validated.
func (s *Service) Load(ctx context.Context, URL string) ([]*model.CompositionTemplate, error) {
	object, err := s.fs.Object(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to locate templates %s: %w", URL, err)
	}
	if !object.IsDir() {
		return s.loadFile(ctx, object.URL())
	}
	objects, err := s.fs.List(ctx, URL, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list templates %s: %w", URL, err)
	}
	var files []storage.Object
	for _, candidate := range objects {
		if !candidate.IsDir() && isTemplateFile(candidate.Name()) {
			files = append(files, candidate)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].URL() < files[j].URL() })
	var ret []*model.CompositionTemplate
	for _, file := range files {
		templates, err := s.loadFile(ctx, file.URL())
		if err != nil {
			return nil, err
		}
		ret = append(ret, templates...)
	}
	return ret, nil
}

// LoadInto loads templates and registers them; it returns the number registered.
func (s *Service) LoadInto(ctx context.Context, registry Registry, URL string) (int, error) {
	templates, err := s.Load(ctx, URL)
	if err != nil {
		return 0, err
	}
	for i, template := range templates {
		if err := registry.Register(ctx, template); err != nil {
			return i, fmt.Errorf("failed to register template %s: %w", template.ID, err)
		}
	}
	return len(templates), nil
}

func (s *Service) loadFile(ctx context.Context, URL string) ([]*model.CompositionTemplate, error) {
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download templates %s: %w", URL, err)
	}
	templates, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode templates %s: %w", URL, err)
	}
	return templates, nil
}

// Decode parses and validates every template of a YAML or JSON payload.
func Decode(data []byte) ([]*model.CompositionTemplate, error) {
	decoder := yaml.NewDecoder(bytes.NewReader([]byte(expandEnv(string(data)))))
	var ret []*model.CompositionTemplate
	for {
		var document yaml.Node
		err := decoder.Decode(&document)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		templates, err := decodeNode((*yml.Node)(&document).Root())
		if err != nil {
			return nil, err
		}
		ret = append(ret, templates...)
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("%w: no templates found", model.ErrInvalidTemplate)
	}
	for _, template := range ret {
		if err := template.Validate(); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func decodeNode(node *yml.Node) ([]*model.CompositionTemplate, error) {
	if node.Kind == yaml.MappingNode {
		if list := node.Lookup("templates"); list != nil {
			node = list
		}
	}
	switch node.Kind {
	case yaml.SequenceNode:
		var ret []*model.CompositionTemplate
		err := node.Items(func(index int, item *yml.Node) error {
			template := &model.CompositionTemplate{}
			if err := item.Decode(template); err != nil {
				return fmt.Errorf("template[%d]: %w", index, err)
			}
			ret = append(ret, template)
			return nil
		})
		return ret, err
	case yaml.MappingNode:
		template := &model.CompositionTemplate{}
		if err := node.Decode(template); err != nil {
			return nil, err
		}
		return []*model.CompositionTemplate{template}, nil
	}
	return nil, fmt.Errorf("%w: unexpected document kind", model.ErrInvalidTemplate)
}

func isTemplateFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
