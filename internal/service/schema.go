package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sitegrid/portal/internal/domain"
	"github.com/sitegrid/portal/internal/schema"
)

// SchemaService exposes the content-model operations of a page. Each
// request loads the persisted sections into a fresh in-memory store,
// applies the mutation there and writes the result back, so the store
// never outlives a request and no session state leaks between calls.
type SchemaService struct {
	schemaRepo domain.SchemaRepository
	pageRepo   domain.PageRepository
}

// NewSchemaService creates a new schema service
func NewSchemaService(schemaRepo domain.SchemaRepository, pageRepo domain.PageRepository) *SchemaService {
	return &SchemaService{
		schemaRepo: schemaRepo,
		pageRepo:   pageRepo,
	}
}

func (s *SchemaService) loadStore(ctx context.Context, pageID uuid.UUID) (*schema.Store, error) {
	page, err := s.pageRepo.GetByID(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	if page == nil {
		return nil, errors.New("page not found")
	}

	sections, err := s.schemaRepo.ListByPage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	store := schema.NewStore()
	store.LoadSchema(sections)
	return store, nil
}

func (s *SchemaService) persist(ctx context.Context, pageID uuid.UUID, store *schema.Store) error {
	if err := s.schemaRepo.ReplaceForPage(ctx, pageID, store.Sections()); err != nil {
		return fmt.Errorf("failed to persist schema: %w", err)
	}
	return nil
}

// Sections returns the sections of a page in order
func (s *SchemaService) Sections(ctx context.Context, pageID uuid.UUID) ([]domain.Section, error) {
	store, err := s.loadStore(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return store.Sections(), nil
}

// AddSection creates an empty section on the page
func (s *SchemaService) AddSection(ctx context.Context, pageID uuid.UUID, input domain.SectionCreate) (domain.Section, error) {
	store, err := s.loadStore(ctx, pageID)
	if err != nil {
		return domain.Section{}, err
	}

	section := store.AddSection(input.Name, input.Description)

	if err := s.persist(ctx, pageID, store); err != nil {
		return domain.Section{}, err
	}
	return section, nil
}

// UpdateSection merges attributes into an existing section. The store
// treats unknown ids as no-ops; the service surfaces them as errors so
// the caller gets a not-found instead of a silent success.
func (s *SchemaService) UpdateSection(ctx context.Context, pageID uuid.UUID, sectionID string, update domain.SectionUpdate) (domain.Section, error) {
	store, err := s.loadStore(ctx, pageID)
	if err != nil {
		return domain.Section{}, err
	}

	if _, ok := store.Section(sectionID); !ok {
		return domain.Section{}, errors.New("section not found")
	}

	store.UpdateSection(sectionID, update)

	if err := s.persist(ctx, pageID, store); err != nil {
		return domain.Section{}, err
	}

	section, _ := store.Section(sectionID)
	return section, nil
}

// RemoveSection deletes a section and every field it owns
func (s *SchemaService) RemoveSection(ctx context.Context, pageID uuid.UUID, sectionID string) error {
	store, err := s.loadStore(ctx, pageID)
	if err != nil {
		return err
	}

	if _, ok := store.Section(sectionID); !ok {
		return errors.New("section not found")
	}

	store.RemoveSection(sectionID)

	return s.persist(ctx, pageID, store)
}

// AddField appends a field to a section
func (s *SchemaService) AddField(ctx context.Context, pageID uuid.UUID, sectionID string, data domain.FieldData) (domain.Field, error) {
	store, err := s.loadStore(ctx, pageID)
	if err != nil {
		return domain.Field{}, err
	}

	field, ok := store.AddField(sectionID, data)
	if !ok {
		return domain.Field{}, errors.New("section not found")
	}

	if err := s.persist(ctx, pageID, store); err != nil {
		return domain.Field{}, err
	}
	return field, nil
}

// UpdateField merges attributes into an existing field
func (s *SchemaService) UpdateField(ctx context.Context, pageID uuid.UUID, sectionID, fieldID string, update domain.FieldUpdate) (domain.Field, error) {
	store, err := s.loadStore(ctx, pageID)
	if err != nil {
		return domain.Field{}, err
	}

	section, ok := store.Section(sectionID)
	if !ok {
		return domain.Field{}, errors.New("section not found")
	}
	if !hasField(section, fieldID) {
		return domain.Field{}, errors.New("field not found")
	}

	store.UpdateField(sectionID, fieldID, update)

	if err := s.persist(ctx, pageID, store); err != nil {
		return domain.Field{}, err
	}

	section, _ = store.Section(sectionID)
	for _, f := range section.Fields {
		if f.ID == fieldID {
			return f, nil
		}
	}
	return domain.Field{}, errors.New("field not found")
}

// RemoveField deletes a field from a section
func (s *SchemaService) RemoveField(ctx context.Context, pageID uuid.UUID, sectionID, fieldID string) error {
	store, err := s.loadStore(ctx, pageID)
	if err != nil {
		return err
	}

	section, ok := store.Section(sectionID)
	if !ok {
		return errors.New("section not found")
	}
	if !hasField(section, fieldID) {
		return errors.New("field not found")
	}

	store.RemoveField(sectionID, fieldID)

	return s.persist(ctx, pageID, store)
}

// ReorderFields replaces a section's field list with the supplied one
// and writes each field's new order concurrently. Order writes that
// fail are collected and reported together; successful writes stand,
// there is no rollback. The caller retries with a fresh read.
func (s *SchemaService) ReorderFields(ctx context.Context, pageID uuid.UUID, sectionID string, fields []domain.Field) ([]domain.Field, error) {
	store, err := s.loadStore(ctx, pageID)
	if err != nil {
		return nil, err
	}

	if _, ok := store.Section(sectionID); !ok {
		return nil, errors.New("section not found")
	}

	store.ReorderFields(sectionID, fields)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, field := range fields {
		wg.Add(1)
		go func(f domain.Field) {
			defer wg.Done()
			if err := s.schemaRepo.UpdateFieldOrder(ctx, pageID, sectionID, f.ID, f.Order); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("field %s: %w", f.ID, err))
				mu.Unlock()
			}
		}(field)
	}
	wg.Wait()

	if len(errs) > 0 {
		log.Warn().
			Str("page_id", pageID.String()).
			Str("section_id", sectionID).
			Int("failed", len(errs)).
			Msg("partial field reorder")
		return nil, fmt.Errorf("failed to reorder fields: %w", errors.Join(errs...))
	}

	section, _ := store.Section(sectionID)
	return section.Fields, nil
}

// Export returns a versioned snapshot of the page schema
func (s *SchemaService) Export(ctx context.Context, pageID uuid.UUID) (domain.SchemaExport, error) {
	store, err := s.loadStore(ctx, pageID)
	if err != nil {
		return domain.SchemaExport{}, err
	}
	return store.ExportSchema(), nil
}

// Import replaces the page schema with an exported snapshot
func (s *SchemaService) Import(ctx context.Context, pageID uuid.UUID, export domain.SchemaExport) ([]domain.Section, error) {
	if export.Version != domain.SchemaExportVersion {
		return nil, fmt.Errorf("unsupported schema version %q", export.Version)
	}

	store, err := s.loadStore(ctx, pageID)
	if err != nil {
		return nil, err
	}

	store.LoadSchema(export.Sections)

	if err := s.persist(ctx, pageID, store); err != nil {
		return nil, err
	}
	return store.Sections(), nil
}

func hasField(section domain.Section, fieldID string) bool {
	for _, f := range section.Fields {
		if f.ID == fieldID {
			return true
		}
	}
	return false
}
