// Package criteria evaluates dao.Parameter filters against record fields.
package criteria

import (
	"github.com/viant/composer/runtime/execution"
	"github.com/viant/composer/service/dao"
)

// Field names understood by execution DAOs.
const (
	Status     = "Status"
	TemplateID = "TemplateID"
	RequestID  = "RequestID"
	ParentID   = "ParentID"
)

// Match reports whether fields satisfy every parameter. Parameters naming an
// unknown field are ignored.
func Match(fields map[string]string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		actual, ok := fields[parameter.Name]
		if !ok {
			continue
		}
		if !matchValue(actual, parameter.Value) {
			return false
		}
	}
	return true
}

func matchValue(actual string, expected interface{}) bool {
	switch v := expected.(type) {
	case string:
		return actual == v
	case []string:
		for _, candidate := range v {
			if actual == candidate {
				return true
			}
		}
		return false
	}
	return true
}

// ExecutionFields exposes the filterable fields of an execution.
func ExecutionFields(e *execution.Execution) map[string]string {
	return map[string]string{
		Status:     string(e.Status),
		TemplateID: e.TemplateID,
		RequestID:  e.RequestID,
		ParentID:   e.ParentID,
	}
}
