package session

import "github.com/bi-tools/insighthub/pkg/models/domain"

// Registry maps departments to their pipeline store. Departments without a
// dedicated pipeline (marketing, general) share the general store.
type Registry struct {
	stores  map[domain.Department]*Store
	general *Store
}

func NewRegistry(stores ...*Store) *Registry {
	r := &Registry{stores: map[domain.Department]*Store{}}
	for _, s := range stores {
		r.stores[s.Department()] = s
		if s.Department() == domain.DepartmentGeneral {
			r.general = s
		}
	}
	return r
}

// Get returns the pipeline store for a department, falling back to the
// general pipeline when no dedicated one exists.
func (r *Registry) Get(dept domain.Department) *Store {
	if s, ok := r.stores[dept]; ok {
		return s
	}
	return r.general
}

// Departments lists the registered pipelines.
func (r *Registry) Departments() []domain.Department {
	out := make([]domain.Department, 0, len(r.stores))
	for dept := range r.stores {
		out = append(out, dept)
	}
	return out
}
