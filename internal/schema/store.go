// Package schema holds the in-memory section/field store used by one
// content-model editing session. The store is the optimistic working
// copy; the persistence layer remains the system of record and the two
// are only synchronized by explicit load/save calls.
package schema

import (
	"sync"
	"time"

	"github.com/sitegrid/portal/internal/domain"
)

// Event describes a store mutation delivered to subscribers.
type Event struct {
	Kind      string
	SectionID string
	FieldID   string
}

// Event kinds
const (
	EventSectionAdded    = "section_added"
	EventSectionUpdated  = "section_updated"
	EventSectionRemoved  = "section_removed"
	EventFieldAdded      = "field_added"
	EventFieldUpdated    = "field_updated"
	EventFieldRemoved    = "field_removed"
	EventFieldsReordered = "fields_reordered"
	EventSchemaLoaded    = "schema_loaded"
)

// Store is an explicit, constructor-injected state container for the
// sections of one editing session. Operations on unknown ids are
// silent no-ops: the editing UI tolerates stale references and the
// store reports nothing. There is no concurrency token; later writers
// win.
type Store struct {
	mu       sync.RWMutex
	sections []domain.Section
	subs     []chan Event
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Subscribe returns a channel receiving store mutation events. The
// channel is buffered; events are dropped rather than blocking a
// mutation on a slow subscriber.
func (s *Store) Subscribe() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, 64)
	s.subs = append(s.subs, ch)
	return ch
}

func (s *Store) notify(ev Event) {
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// AddSection appends a new section with no fields and returns it.
// The store does not validate the name; callers pre-validate.
func (s *Store) AddSection(name, description string) domain.Section {
	s.mu.Lock()
	defer s.mu.Unlock()

	section := domain.Section{
		ID:          domain.NewSectionID(),
		Name:        name,
		Description: description,
		Fields:      []domain.Field{},
	}
	s.sections = append(s.sections, section)
	s.notify(Event{Kind: EventSectionAdded, SectionID: section.ID})
	return copySection(section)
}

// UpdateSection merges the provided attributes into the matching
// section. Unknown ids are ignored.
func (s *Store) UpdateSection(id string, update domain.SectionUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sections {
		if s.sections[i].ID != id {
			continue
		}
		if update.Name != nil {
			s.sections[i].Name = *update.Name
		}
		if update.Description != nil {
			s.sections[i].Description = *update.Description
		}
		s.notify(Event{Kind: EventSectionUpdated, SectionID: id})
		return
	}
}

// RemoveSection removes the section by id. Its fields are embedded and
// go with it; no orphans survive in a subsequent export.
func (s *Store) RemoveSection(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sections {
		if s.sections[i].ID == id {
			s.sections = append(s.sections[:i], s.sections[i+1:]...)
			s.notify(Event{Kind: EventSectionRemoved, SectionID: id})
			return
		}
	}
}

// AddField appends a field to the named section and returns it. When
// data.Order is nil the field gets the pre-insertion field count of
// the section, i.e. append-at-end. Returns ok=false when the section
// does not exist; the field is silently not added.
func (s *Store) AddField(sectionID string, data domain.FieldData) (domain.Field, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sections {
		if s.sections[i].ID != sectionID {
			continue
		}
		order := len(s.sections[i].Fields)
		if data.Order != nil {
			order = *data.Order
		}
		field := domain.Field{
			ID:           domain.NewFieldID(),
			Name:         data.Name,
			Type:         data.Type,
			Required:     data.Required,
			DefaultValue: data.DefaultValue,
			Validation:   data.Validation,
			Order:        order,
		}
		s.sections[i].Fields = append(s.sections[i].Fields, field)
		s.notify(Event{Kind: EventFieldAdded, SectionID: sectionID, FieldID: field.ID})
		return field, true
	}
	return domain.Field{}, false
}

// UpdateField merges the provided attributes into the matching field
// within the named section. Unknown section or field ids leave the
// store unchanged.
func (s *Store) UpdateField(sectionID, fieldID string, update domain.FieldUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sections {
		if s.sections[i].ID != sectionID {
			continue
		}
		for j := range s.sections[i].Fields {
			f := &s.sections[i].Fields[j]
			if f.ID != fieldID {
				continue
			}
			if update.Name != nil {
				f.Name = *update.Name
			}
			if update.Type != nil {
				f.Type = *update.Type
			}
			if update.Required != nil {
				f.Required = *update.Required
			}
			if update.DefaultValue != nil {
				f.DefaultValue = *update.DefaultValue
			}
			if update.Validation != nil {
				f.Validation = *update.Validation
			}
			if update.Order != nil {
				f.Order = *update.Order
			}
			s.notify(Event{Kind: EventFieldUpdated, SectionID: sectionID, FieldID: fieldID})
			return
		}
		return
	}
}

// RemoveField removes a field by id from the named section.
func (s *Store) RemoveField(sectionID, fieldID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sections {
		if s.sections[i].ID != sectionID {
			continue
		}
		for j := range s.sections[i].Fields {
			if s.sections[i].Fields[j].ID == fieldID {
				s.sections[i].Fields = append(s.sections[i].Fields[:j], s.sections[i].Fields[j+1:]...)
				s.notify(Event{Kind: EventFieldRemoved, SectionID: sectionID, FieldID: fieldID})
				return
			}
		}
		return
	}
}

// ReorderFields replaces the section's field slice wholesale with the
// caller-supplied list. The caller recomputes Order indices first; the
// store does not re-derive order from slice position.
func (s *Store) ReorderFields(sectionID string, fields []domain.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sections {
		if s.sections[i].ID == sectionID {
			s.sections[i].Fields = copyFields(fields)
			s.notify(Event{Kind: EventFieldsReordered, SectionID: sectionID})
			return
		}
	}
}

// LoadSchema replaces the entire store content. Used for import and
// for loading a page's persisted schema into the session.
func (s *Store) LoadSchema(sections []domain.Section) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sections = copySections(sections)
	s.notify(Event{Kind: EventSchemaLoaded})
}

// ExportSchema returns a deep-copied snapshot of the current state.
// LoadSchema(ExportSchema().Sections) reproduces the store exactly.
func (s *Store) ExportSchema() domain.SchemaExport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.SchemaExport{
		Version:   domain.SchemaExportVersion,
		Timestamp: s.now().UTC(),
		Sections:  copySections(s.sections),
	}
}

// Sections returns a deep-copied snapshot of the current sections.
func (s *Store) Sections() []domain.Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySections(s.sections)
}

// Section returns a deep copy of one section by id.
func (s *Store) Section(id string) (domain.Section, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.sections {
		if s.sections[i].ID == id {
			return copySection(s.sections[i]), true
		}
	}
	return domain.Section{}, false
}

func copySections(sections []domain.Section) []domain.Section {
	out := make([]domain.Section, len(sections))
	for i, sec := range sections {
		out[i] = copySection(sec)
	}
	return out
}

func copySection(sec domain.Section) domain.Section {
	c := sec
	c.Fields = copyFields(sec.Fields)
	return c
}

func copyFields(fields []domain.Field) []domain.Field {
	out := make([]domain.Field, len(fields))
	copy(out, fields)
	return out
}
