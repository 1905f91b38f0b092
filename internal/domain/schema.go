package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FieldType represents the supported field types
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeNumber    FieldType = "number"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeDate      FieldType = "date"
	FieldTypeRichText  FieldType = "richtext"
	FieldTypeImage     FieldType = "image"
	FieldTypeReference FieldType = "reference"
)

// Field is a typed attribute definition within a section
type Field struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         FieldType `json:"type"`
	Required     bool      `json:"required"`
	DefaultValue string    `json:"defaultValue,omitempty"`
	Validation   string    `json:"validation,omitempty"`
	Order        int       `json:"order"`
}

// FieldData carries field attributes for creation. A nil Order means
// append-at-end: the store assigns the pre-insertion field count.
type FieldData struct {
	Name         string    `json:"name" validate:"required,max=255"`
	Type         FieldType `json:"type" validate:"required,oneof=text number boolean date richtext image reference"`
	Required     bool      `json:"required"`
	DefaultValue string    `json:"defaultValue,omitempty"`
	Validation   string    `json:"validation,omitempty"`
	Order        *int      `json:"order,omitempty"`
}

// FieldUpdate merges the provided attributes into an existing field
type FieldUpdate struct {
	Name         *string    `json:"name,omitempty" validate:"omitempty,max=255"`
	Type         *FieldType `json:"type,omitempty" validate:"omitempty,oneof=text number boolean date richtext image reference"`
	Required     *bool      `json:"required,omitempty"`
	DefaultValue *string    `json:"defaultValue,omitempty"`
	Validation   *string    `json:"validation,omitempty"`
	Order        *int       `json:"order,omitempty"`
}

// Section is a named grouping of typed fields. A section owns its
// fields exclusively; removing the section removes them with it.
type Section struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
}

// SectionCreate represents section creation data
type SectionCreate struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description,omitempty" validate:"max=1024"`
}

// SectionUpdate merges the provided attributes into an existing section
type SectionUpdate struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1024"`
}

// SchemaExport is the serialized form of a schema snapshot
type SchemaExport struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Sections  []Section `json:"sections"`
}

// SchemaExportVersion is the static export format version
const SchemaExportVersion = "1.0"

// NewSectionID generates an opaque section identifier
func NewSectionID() string {
	return uuid.NewString()
}

// NewFieldID generates an opaque field identifier
func NewFieldID() string {
	return uuid.NewString()
}

// SchemaRepository persists the sections and fields of a page.
// Sections are children of a page; the in-memory store is an
// editing-session view over this canonical model.
type SchemaRepository interface {
	ListByPage(ctx context.Context, pageID uuid.UUID) ([]Section, error)
	ReplaceForPage(ctx context.Context, pageID uuid.UUID, sections []Section) error
	UpdateFieldOrder(ctx context.Context, pageID uuid.UUID, sectionID, fieldID string, order int) error
}
