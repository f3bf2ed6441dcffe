package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"habitat/internal/api"
	"habitat/internal/config"
	"habitat/internal/scaler"
	"habitat/pkg/logging"
)

// templateEntityType is the storage subdirectory template files live in.
const templateEntityType = "templates"

// Registry holds the registered environment templates. All methods are safe
// for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*api.EnvironmentTemplate
	storage   *config.Storage
}

// NewRegistry creates a registry pre-populated with the seed templates.
// storage may be nil for a purely in-memory catalog.
func NewRegistry(storage *config.Storage) *Registry {
	r := &Registry{
		templates: make(map[string]*api.EnvironmentTemplate),
		storage:   storage,
	}
	for _, tmpl := range seedTemplates() {
		r.templates[tmpl.ID] = tmpl
	}
	return r
}

// LoadDefinitions reads every persisted template definition and registers it,
// replacing seeds with matching ids. Individual bad files are logged and
// skipped so one broken definition cannot take the catalog down.
func (r *Registry) LoadDefinitions() error {
	if r.storage == nil {
		return nil
	}

	names, err := r.storage.List(templateEntityType)
	if err != nil {
		return fmt.Errorf("listing template definitions: %w", err)
	}

	loaded := 0
	for _, name := range names {
		data, err := r.storage.Load(templateEntityType, name)
		if err != nil {
			logging.Warn("catalog", "Skipping template %s: %v", name, err)
			continue
		}
		var tmpl api.EnvironmentTemplate
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			logging.Warn("catalog", "Skipping template %s: %v", name, err)
			continue
		}
		if err := validateTemplate(&tmpl); err != nil {
			logging.Warn("catalog", "Skipping template %s: %v", name, err)
			continue
		}
		r.mu.Lock()
		r.templates[tmpl.ID] = &tmpl
		r.mu.Unlock()
		loaded++
	}

	logging.Info("catalog", "Loaded %d template definitions (%d total)", loaded, r.Count())
	return nil
}

// Register validates and stores a template, persisting it when storage is
// configured. An empty id gets a generated one; registering an existing id
// replaces the previous template without touching environments built from it.
func (r *Registry) Register(tmpl *api.EnvironmentTemplate) error {
	if tmpl == nil {
		return fmt.Errorf("cannot register nil template")
	}
	if tmpl.ID == "" {
		tmpl.ID = uuid.New().String()
	}
	if err := validateTemplate(tmpl); err != nil {
		return err
	}

	if r.storage != nil {
		data, err := yaml.Marshal(tmpl)
		if err != nil {
			return fmt.Errorf("marshaling template %s: %w", tmpl.ID, err)
		}
		if err := r.storage.Save(templateEntityType, tmpl.ID, data); err != nil {
			return fmt.Errorf("persisting template %s: %w", tmpl.ID, err)
		}
	}

	r.mu.Lock()
	r.templates[tmpl.ID] = tmpl
	r.mu.Unlock()

	logging.Info("catalog", "Registered template %s (%s)", tmpl.ID, tmpl.Kind)
	return nil
}

// Get returns the template for id.
func (r *Registry) Get(id string) (*api.EnvironmentTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tmpl, exists := r.templates[id]
	if !exists {
		return nil, api.NewTemplateNotFoundError(id)
	}
	return tmpl, nil
}

// List returns all templates sorted by name.
func (r *Registry) List() []*api.EnvironmentTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	templates := make([]*api.EnvironmentTemplate, 0, len(r.templates))
	for _, tmpl := range r.templates {
		templates = append(templates, tmpl)
	}
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})
	return templates
}

// Categorize groups template ids by tag. Ids within a tag are sorted.
func (r *Registry) Categorize() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make(map[string][]string)
	for _, tmpl := range r.templates {
		for _, tag := range tmpl.Tags {
			categories[tag] = append(categories[tag], tmpl.ID)
		}
	}
	for tag := range categories {
		sort.Strings(categories[tag])
	}
	return categories
}

// Count returns the number of registered templates.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// validateTemplate checks the fields a blueprint cannot function without.
func validateTemplate(tmpl *api.EnvironmentTemplate) error {
	var errs config.ValidationErrors

	if err := config.ValidateEntityName(tmpl.ID, "template"); err != nil {
		errs.Add("id", err.Error())
	}
	if err := config.ValidateRequired("name", tmpl.Name, "template"); err != nil {
		errs.Add("name", "is required")
	}
	if err := config.ValidateMaxLength("description", tmpl.Description, 1024); err != nil {
		errs.Add("description", "exceeds 1024 characters")
	}
	if !tmpl.Kind.Valid() {
		errs.Add("kind", fmt.Sprintf("must be one of %v", api.Kinds()), tmpl.Kind)
	}
	if tmpl.Resources.MemoryGi <= 0 {
		errs.Add("resources.memoryGi", "must be positive")
	}
	if tmpl.Resources.CPUMillis <= 0 {
		errs.Add("resources.cpuMillis", "must be positive")
	}
	if tmpl.Scaling.Enabled {
		if tmpl.Scaling.MinInstances < 1 {
			errs.Add("scaling.minInstances", "must be at least 1")
		}
		if tmpl.Scaling.MaxInstances < tmpl.Scaling.MinInstances {
			errs.Add("scaling.maxInstances", "must be >= minInstances")
		}
		if _, err := scaler.ParseTriggers(tmpl.Scaling.Triggers); err != nil {
			errs.Add("scaling.triggers", err.Error())
		}
	}

	if errs.HasErrors() {
		return config.FormatValidationError("template", tmpl.ID, errs)
	}
	return nil
}
