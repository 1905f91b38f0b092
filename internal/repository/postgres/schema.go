package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sitegrid/portal/internal/domain"
)

// SchemaRepository persists sections and fields as children of a page.
// The in-memory editing store is loaded from and saved back to these
// rows; this layer is the system of record.
type SchemaRepository struct {
	db *DB
}

// NewSchemaRepository creates a new schema repository
func NewSchemaRepository(db *DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

// ListByPage loads all sections of a page, fields embedded, ordered by
// section position and field order.
func (r *SchemaRepository) ListByPage(ctx context.Context, pageID uuid.UUID) ([]domain.Section, error) {
	sectionQuery := `
		SELECT id, name, description
		FROM sections
		WHERE page_id = $1
		ORDER BY position
	`

	rows, err := r.db.Pool.Query(ctx, sectionQuery, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	var sections []domain.Section
	index := make(map[string]int)
	for rows.Next() {
		var section domain.Section
		if err := rows.Scan(&section.ID, &section.Name, &section.Description); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		section.Fields = []domain.Field{}
		index[section.ID] = len(sections)
		sections = append(sections, section)
	}
	rows.Close()

	fieldQuery := `
		SELECT f.section_id, f.id, f.name, f.type, f.required, f.default_value, f.validation, f.position
		FROM fields f
		INNER JOIN sections s ON s.id = f.section_id
		WHERE s.page_id = $1
		ORDER BY f.position
	`

	fieldRows, err := r.db.Pool.Query(ctx, fieldQuery, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	defer fieldRows.Close()

	for fieldRows.Next() {
		var sectionID string
		var field domain.Field
		if err := fieldRows.Scan(
			&sectionID,
			&field.ID,
			&field.Name,
			&field.Type,
			&field.Required,
			&field.DefaultValue,
			&field.Validation,
			&field.Order,
		); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		if i, ok := index[sectionID]; ok {
			sections[i].Fields = append(sections[i].Fields, field)
		}
	}

	return sections, nil
}

// ReplaceForPage replaces the persisted schema of a page with the
// given sections in one transaction. Deleting a section cascades to
// its fields in SQL.
func (r *SchemaRepository) ReplaceForPage(ctx context.Context, pageID uuid.UUID, sections []domain.Section) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM sections WHERE page_id = $1`, pageID); err != nil {
		return fmt.Errorf("failed to clear sections: %w", err)
	}

	sectionInsert := `
		INSERT INTO sections (id, page_id, name, description, position)
		VALUES ($1, $2, $3, $4, $5)
	`
	fieldInsert := `
		INSERT INTO fields (id, section_id, name, type, required, default_value, validation, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for pos, section := range sections {
		if _, err := tx.Exec(ctx, sectionInsert,
			section.ID, pageID, section.Name, section.Description, pos,
		); err != nil {
			return fmt.Errorf("failed to insert section %s: %w", section.ID, err)
		}

		for _, field := range section.Fields {
			if _, err := tx.Exec(ctx, fieldInsert,
				field.ID,
				section.ID,
				field.Name,
				field.Type,
				field.Required,
				field.DefaultValue,
				field.Validation,
				field.Order,
			); err != nil {
				return fmt.Errorf("failed to insert field %s: %w", field.ID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}

	return nil
}

// UpdateFieldOrder persists a single field's order index. Used by the
// concurrent reorder fan-out; each call stands alone with no
// transactional tie to its siblings.
func (r *SchemaRepository) UpdateFieldOrder(ctx context.Context, pageID uuid.UUID, sectionID, fieldID string, order int) error {
	query := `
		UPDATE fields f
		SET position = $4
		FROM sections s
		WHERE f.id = $3 AND f.section_id = s.id AND s.id = $2 AND s.page_id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, pageID, sectionID, fieldID, order)
	if err != nil {
		return fmt.Errorf("failed to update field order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("field %s not found in section %s", fieldID, sectionID)
	}

	return nil
}
