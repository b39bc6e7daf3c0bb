package model

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// CompositionTemplate is a reusable, named composition of proof components.
type CompositionTemplate struct {
	ID          string
	Name        string
	Version     string
	Description string
	Components  []*ProofComponent
	Aggregation AggregationLogic
}

// Composition is an ad-hoc component set supplied with a request.
type Composition struct {
	Components  []*ProofComponent
	Aggregation AggregationLogic
}

// CustomTemplateID identifies executions of ad-hoc compositions.
const CustomTemplateID = "custom"

// Template wraps the composition into an unregistered template.
func (c *Composition) Template() *CompositionTemplate {
	ret := &CompositionTemplate{
		ID:          CustomTemplateID,
		Name:        "Custom composition",
		Aggregation: cloneAggregation(c.Aggregation),
	}
	for _, component := range c.Components {
		ret.Components = append(ret.Components, component.Clone())
	}
	return ret
}

// Validate checks required fields, the aggregation and the dependency graph.
func (t *CompositionTemplate) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: template is nil", ErrInvalidTemplate)
	}
	if t.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidTemplate)
	}
	if t.Name == "" {
		return fmt.Errorf("%w: template %s: name is required", ErrInvalidTemplate, t.ID)
	}
	if len(t.Components) == 0 {
		return fmt.Errorf("%w: template %s: at least one component is required", ErrInvalidTemplate, t.ID)
	}
	if t.Aggregation == nil {
		return fmt.Errorf("%w: template %s: aggregation is required", ErrInvalidTemplate, t.ID)
	}
	for i, component := range t.Components {
		if component == nil {
			return fmt.Errorf("%w: template %s: component[%d] is nil", ErrInvalidTemplate, t.ID, i)
		}
		if component.ID == "" {
			return fmt.Errorf("%w: template %s: component[%d] has no id", ErrInvalidTemplate, t.ID, i)
		}
		if component.ToolName == "" {
			return fmt.Errorf("%w: template %s: component %s has no tool name", ErrInvalidTemplate, t.ID, component.ID)
		}
		if component.Timeout < 0 {
			return fmt.Errorf("%w: template %s: component %s has negative timeout", ErrInvalidTemplate, t.ID, component.ID)
		}
	}
	if err := validateAggregation(t.Aggregation); err != nil {
		return fmt.Errorf("%w: template %s: %v", ErrInvalidTemplate, t.ID, err)
	}
	return ValidateDependencies(t.Components)
}

func validateAggregation(logic AggregationLogic) error {
	switch v := logic.(type) {
	case Majority:
		if v.Threshold != nil && *v.Threshold < 0 {
			return fmt.Errorf("majority threshold must be >= 0")
		}
	case Weighted:
		if v.Threshold != nil && (*v.Threshold < 0 || *v.Threshold > 1) {
			return fmt.Errorf("weighted threshold must be within [0,1]")
		}
		for id, weight := range v.Weights {
			if weight < 0 {
				return fmt.Errorf("weight of %s must be >= 0", id)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the template.
func (t *CompositionTemplate) Clone() *CompositionTemplate {
	if t == nil {
		return nil
	}
	ret := *t
	ret.Components = make([]*ProofComponent, 0, len(t.Components))
	for _, component := range t.Components {
		ret.Components = append(ret.Components, component.Clone())
	}
	ret.Aggregation = cloneAggregation(t.Aggregation)
	return &ret
}

// Component returns a component by id.
func (t *CompositionTemplate) Component(id string) (*ProofComponent, bool) {
	for _, component := range t.Components {
		if component.ID == id {
			return component, true
		}
	}
	return nil, false
}

type templateDoc struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Version     string            `json:"version,omitempty" yaml:"version,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Components  []*ProofComponent `json:"components" yaml:"components"`
	Aggregation *AggregationDoc   `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
}

func (t *CompositionTemplate) doc() *templateDoc {
	return &templateDoc{
		ID:          t.ID,
		Name:        t.Name,
		Version:     t.Version,
		Description: t.Description,
		Components:  t.Components,
		Aggregation: EncodeAggregation(t.Aggregation),
	}
}

func (t *CompositionTemplate) fromDoc(doc *templateDoc) error {
	t.ID = doc.ID
	t.Name = doc.Name
	t.Version = doc.Version
	t.Description = doc.Description
	t.Components = doc.Components
	t.Aggregation = nil
	if doc.Aggregation == nil {
		return nil
	}
	logic, err := doc.Aggregation.Decode()
	if err != nil {
		return err
	}
	t.Aggregation = logic
	return nil
}

// MarshalJSON encodes the aggregation as a tagged document.
func (t *CompositionTemplate) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.doc())
}

// UnmarshalJSON decodes a template document.
func (t *CompositionTemplate) UnmarshalJSON(data []byte) error {
	doc := &templateDoc{}
	if err := json.Unmarshal(data, doc); err != nil {
		return err
	}
	return t.fromDoc(doc)
}

// MarshalYAML encodes the aggregation as a tagged document.
func (t *CompositionTemplate) MarshalYAML() (interface{}, error) {
	return t.doc(), nil
}

// UnmarshalYAML decodes a template document.
func (t *CompositionTemplate) UnmarshalYAML(node *yaml.Node) error {
	doc := &templateDoc{}
	if err := node.Decode(doc); err != nil {
		return err
	}
	return t.fromDoc(doc)
}

// compositionDoc is the request form of a composition; aggregation is read
// when aggregationLogic is absent.
type compositionDoc struct {
	Components       []*ProofComponent `json:"components" yaml:"components"`
	AggregationLogic *AggregationDoc   `json:"aggregationLogic,omitempty" yaml:"aggregationLogic,omitempty"`
	Aggregation      *AggregationDoc   `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
}

func (c *Composition) fromDoc(doc *compositionDoc) error {
	c.Components = doc.Components
	c.Aggregation = nil
	aggregation := doc.AggregationLogic
	if aggregation == nil {
		aggregation = doc.Aggregation
	}
	if aggregation == nil {
		return nil
	}
	logic, err := aggregation.Decode()
	if err != nil {
		return err
	}
	c.Aggregation = logic
	return nil
}

// MarshalJSON encodes the aggregation as a tagged document.
func (c *Composition) MarshalJSON() ([]byte, error) {
	return json.Marshal(&compositionDoc{Components: c.Components, AggregationLogic: EncodeAggregation(c.Aggregation)})
}

// UnmarshalJSON decodes a composition document.
func (c *Composition) UnmarshalJSON(data []byte) error {
	doc := &compositionDoc{}
	if err := json.Unmarshal(data, doc); err != nil {
		return err
	}
	return c.fromDoc(doc)
}

// MarshalYAML encodes the aggregation as a tagged document.
func (c *Composition) MarshalYAML() (interface{}, error) {
	return &compositionDoc{Components: c.Components, AggregationLogic: EncodeAggregation(c.Aggregation)}, nil
}

// UnmarshalYAML decodes a composition document.
func (c *Composition) UnmarshalYAML(node *yaml.Node) error {
	doc := &compositionDoc{}
	if err := node.Decode(doc); err != nil {
		return err
	}
	return c.fromDoc(doc)
}
