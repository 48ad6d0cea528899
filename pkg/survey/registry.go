package survey

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/Acsight/voiceter-website-sub002/pkg/core"
)

// Registry caches loaded questionnaire definitions by id. It is an explicit
// dependency constructed at startup; there is no process-wide instance, so
// tests can supply isolated registries.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*Questionnaire
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Questionnaire)}
}

// Add registers a definition. A later Add for the same id replaces the
// earlier one; the definitions themselves are never mutated.
func (r *Registry) Add(q *Questionnaire) error {
	if q == nil || q.ID == "" {
		return core.New(core.ErrValidation, "questionnaire must have an id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[q.ID] = q
	return nil
}

// Get returns the cached definition. A missing definition is fatal for the
// session that needs it.
func (r *Registry) Get(id string) (*Questionnaire, error) {
	r.mu.RLock()
	q, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, core.Newf(core.ErrQuestionnaireNotFound, "questionnaire %q not found", id)
	}
	return q, nil
}

// LoadFile parses a questionnaire definition from a JSON file and caches it.
func (r *Registry) LoadFile(path string) (*Questionnaire, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.Wrap(core.ErrQuestionnaireNotFound, "read questionnaire file", err)
	}
	return r.LoadBytes(data)
}

// LoadBytes parses a questionnaire definition from JSON and caches it.
func (r *Registry) LoadBytes(data []byte) (*Questionnaire, error) {
	var q Questionnaire
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, core.Wrap(core.ErrValidation, "parse questionnaire", err)
	}
	if err := r.Add(&q); err != nil {
		return nil, err
	}
	return &q, nil
}
