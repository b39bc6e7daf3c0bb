// Package memory keeps execution snapshots in process memory.
package memory

import (
	"context"

	"github.com/viant/composer/runtime/execution"
	"github.com/viant/composer/service/dao"
	"github.com/viant/composer/service/dao/criteria"
	"github.com/viant/composer/service/dao/store"
)

// Service is a thread-safe in-memory execution registry. Every call works
// on copies, so a snapshot read by a poller never changes underneath it.
type Service struct {
	*store.MemoryStore[string, execution.Execution]
}

var _ dao.Service[string, execution.Execution] = (*Service)(nil)

// List returns executions ordered by id, filtered by criteria fields
// (Status, TemplateID, RequestID, ParentID).
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Execution, error) {
	all, err := s.MemoryStore.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*execution.Execution, 0, len(all))
	for _, e := range all {
		if criteria.Match(criteria.ExecutionFields(e), parameters) {
			out = append(out, e)
		}
	}
	return out, nil
}

// New creates an empty registry.
func New() *Service {
	return &Service{
		MemoryStore: store.NewMemoryStore(
			func(e *execution.Execution) string { return e.ID },
			(*execution.Execution).Clone,
		),
	}
}
