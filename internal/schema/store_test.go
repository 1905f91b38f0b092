package schema

import (
	"testing"

	"github.com/sitegrid/portal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestStore_AddSection(t *testing.T) {
	store := NewStore()

	section := store.AddSection("Hero", "Top of page")
	assert.NotEmpty(t, section.ID)
	assert.Equal(t, "Hero", section.Name)
	assert.Equal(t, "Top of page", section.Description)
	assert.Empty(t, section.Fields)

	other := store.AddSection("Footer", "")
	assert.NotEqual(t, section.ID, other.ID)
	assert.Len(t, store.Sections(), 2)
}

func TestStore_RemoveSection_CascadesFields(t *testing.T) {
	store := NewStore()
	section := store.AddSection("Hero", "")

	_, ok := store.AddField(section.ID, domain.FieldData{Name: "title", Type: domain.FieldTypeText})
	require.True(t, ok)
	_, ok = store.AddField(section.ID, domain.FieldData{Name: "image", Type: domain.FieldTypeImage})
	require.True(t, ok)

	store.RemoveSection(section.ID)

	export := store.ExportSchema()
	assert.Empty(t, export.Sections)
	for _, sec := range export.Sections {
		assert.Empty(t, sec.Fields, "no orphaned fields may survive in the export")
	}
}

func TestStore_AddField_DefaultOrderIsPreInsertionCount(t *testing.T) {
	store := NewStore()
	section := store.AddSection("Hero", "")

	first, ok := store.AddField(section.ID, domain.FieldData{Name: "title", Type: domain.FieldTypeText})
	require.True(t, ok)
	assert.Equal(t, 0, first.Order)

	second, ok := store.AddField(section.ID, domain.FieldData{Name: "subtitle", Type: domain.FieldTypeText})
	require.True(t, ok)
	assert.Equal(t, 1, second.Order)

	// Section with 2 existing fields assigns order = 2
	third, ok := store.AddField(section.ID, domain.FieldData{Name: "cta", Type: domain.FieldTypeText})
	require.True(t, ok)
	assert.Equal(t, 2, third.Order)

	// Explicit order wins over the count
	explicit, ok := store.AddField(section.ID, domain.FieldData{
		Name:  "banner",
		Type:  domain.FieldTypeImage,
		Order: intPtr(10),
	})
	require.True(t, ok)
	assert.Equal(t, 10, explicit.Order)
}

func TestStore_AddField_UnknownSectionIsNoOp(t *testing.T) {
	store := NewStore()
	store.AddSection("Hero", "")

	_, ok := store.AddField("nonexistent-id", domain.FieldData{Name: "x", Type: domain.FieldTypeText})
	assert.False(t, ok)

	sections := store.Sections()
	require.Len(t, sections, 1)
	assert.Empty(t, sections[0].Fields)
}

func TestStore_UpdateField(t *testing.T) {
	store := NewStore()
	section := store.AddSection("Hero", "")
	field, _ := store.AddField(section.ID, domain.FieldData{Name: "title", Type: domain.FieldTypeText})

	required := true
	store.UpdateField(section.ID, field.ID, domain.FieldUpdate{
		Name:     strPtr("headline"),
		Required: &required,
	})

	got, ok := store.Section(section.ID)
	require.True(t, ok)
	require.Len(t, got.Fields, 1)
	assert.Equal(t, "headline", got.Fields[0].Name)
	assert.True(t, got.Fields[0].Required)
	// Untouched attributes survive the merge
	assert.Equal(t, domain.FieldTypeText, got.Fields[0].Type)
}

func TestStore_UpdateField_UnknownIDLeavesStateUnchanged(t *testing.T) {
	store := NewStore()
	section := store.AddSection("Hero", "About")
	store.AddField(section.ID, domain.FieldData{
		Name:         "title",
		Type:         domain.FieldTypeText,
		DefaultValue: "Welcome",
		Validation:   "len(value) > 0",
	})

	before := store.Sections()
	store.UpdateField(section.ID, "nonexistent-id", domain.FieldUpdate{Name: strPtr("changed")})
	after := store.Sections()

	assert.Equal(t, before, after)

	store.UpdateField("nonexistent-section", "nonexistent-id", domain.FieldUpdate{Name: strPtr("changed")})
	assert.Equal(t, before, store.Sections())
}

func TestStore_UpdateSection_UnknownIDIsSilent(t *testing.T) {
	store := NewStore()
	store.AddSection("Hero", "")

	before := store.Sections()
	store.UpdateSection("nonexistent-id", domain.SectionUpdate{Name: strPtr("changed")})
	assert.Equal(t, before, store.Sections())
}

func TestStore_RemoveField(t *testing.T) {
	store := NewStore()
	section := store.AddSection("Hero", "")
	keep, _ := store.AddField(section.ID, domain.FieldData{Name: "title", Type: domain.FieldTypeText})
	drop, _ := store.AddField(section.ID, domain.FieldData{Name: "subtitle", Type: domain.FieldTypeText})

	store.RemoveField(section.ID, drop.ID)

	got, _ := store.Section(section.ID)
	require.Len(t, got.Fields, 1)
	assert.Equal(t, keep.ID, got.Fields[0].ID)
}

func TestStore_ReorderFields_ReplacesVerbatim(t *testing.T) {
	store := NewStore()
	section := store.AddSection("Hero", "")
	a, _ := store.AddField(section.ID, domain.FieldData{Name: "a", Type: domain.FieldTypeText})
	b, _ := store.AddField(section.ID, domain.FieldData{Name: "b", Type: domain.FieldTypeText})

	// Caller supplies the reordered list with recomputed order indices.
	// The store must take it verbatim and not renumber.
	reordered := []domain.Field{
		{ID: b.ID, Name: "b", Type: domain.FieldTypeText, Order: 7},
		{ID: a.ID, Name: "a", Type: domain.FieldTypeText, Order: 3},
	}
	store.ReorderFields(section.ID, reordered)

	got, _ := store.Section(section.ID)
	assert.Equal(t, reordered, got.Fields)
}

func TestStore_ExportImportRoundTrip(t *testing.T) {
	store := NewStore()
	hero := store.AddSection("Hero", "Top of page")
	store.AddField(hero.ID, domain.FieldData{
		Name:         "title",
		Type:         domain.FieldTypeText,
		Required:     true,
		DefaultValue: "Welcome",
		Validation:   "len(value) <= 80",
	})
	store.AddField(hero.ID, domain.FieldData{Name: "image", Type: domain.FieldTypeImage})
	footer := store.AddSection("Footer", "")
	store.AddField(footer.ID, domain.FieldData{Name: "copyright", Type: domain.FieldTypeText, Order: intPtr(5)})

	export := store.ExportSchema()
	assert.Equal(t, domain.SchemaExportVersion, export.Version)
	assert.False(t, export.Timestamp.IsZero())

	restored := NewStore()
	restored.LoadSchema(export.Sections)

	assert.Equal(t, store.Sections(), restored.Sections())
}

func TestStore_ExportIsDeepCopy(t *testing.T) {
	store := NewStore()
	section := store.AddSection("Hero", "")
	store.AddField(section.ID, domain.FieldData{Name: "title", Type: domain.FieldTypeText})

	export := store.ExportSchema()
	export.Sections[0].Fields[0].Name = "mutated"

	got, _ := store.Section(section.ID)
	assert.Equal(t, "title", got.Fields[0].Name)
}

func TestStore_SubscribeReceivesEvents(t *testing.T) {
	store := NewStore()
	events := store.Subscribe()

	section := store.AddSection("Hero", "")
	field, _ := store.AddField(section.ID, domain.FieldData{Name: "title", Type: domain.FieldTypeText})
	store.RemoveField(section.ID, field.ID)

	assert.Equal(t, Event{Kind: EventSectionAdded, SectionID: section.ID}, <-events)
	assert.Equal(t, Event{Kind: EventFieldAdded, SectionID: section.ID, FieldID: field.ID}, <-events)
	assert.Equal(t, Event{Kind: EventFieldRemoved, SectionID: section.ID, FieldID: field.ID}, <-events)
}
