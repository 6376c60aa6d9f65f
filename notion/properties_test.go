package notion

import (
	"reflect"
	"testing"
	"time"

	"github.com/jomei/notionapi"
)

func richText(parts ...string) []notionapi.RichText {
	runs := make([]notionapi.RichText, 0, len(parts))
	for _, p := range parts {
		runs = append(runs, notionapi.RichText{PlainText: p})
	}
	return runs
}

func sampleProperties() notionapi.Properties {
	start := notionapi.Date(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	return notionapi.Properties{
		"Title":   &notionapi.TitleProperty{Title: richText("Hello", " World")},
		"Empty":   &notionapi.TitleProperty{},
		"Slug":    &notionapi.RichTextProperty{RichText: richText("hello")},
		"Status":  &notionapi.SelectProperty{Select: notionapi.Option{Name: "Published"}},
		"Tags":    &notionapi.MultiSelectProperty{MultiSelect: []notionapi.Option{{Name: "go"}, {Name: "life"}}},
		"NoTags":  &notionapi.MultiSelectProperty{},
		"Date":    &notionapi.DateProperty{Date: &notionapi.DateObject{Start: &start}},
		"NoDate":  &notionapi.DateProperty{},
		"Checked": &notionapi.CheckboxProperty{Checkbox: true},
	}
}

func TestExtract(t *testing.T) {
	props := sampleProperties()

	tests := []struct {
		name  string
		field string
		typ   FieldType
		want  any
	}{
		{"title first run only", "Title", FieldTitle, "Hello"},
		{"title empty runs", "Empty", FieldTitle, ""},
		{"rich text", "Slug", FieldRichText, "hello"},
		{"select", "Status", FieldSelect, "Published"},
		{"multi select keeps order", "Tags", FieldMultiSelect, []string{"go", "life"}},
		{"multi select empty", "NoTags", FieldMultiSelect, []string{}},
		{"date", "Date", FieldDate, "2024-03-05"},
		{"date without value", "NoDate", FieldDate, ""},
		{"missing property", "Nope", FieldTitle, nil},
		{"unsupported type", "Checked", FieldType("checkbox"), nil},
		{"type mismatch yields empty", "Checked", FieldSelect, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(props, tt.field, tt.typ)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q, %q) = %#v, want %#v", tt.field, tt.typ, got, tt.want)
			}
		})
	}
}

func TestExtract_NilProperties(t *testing.T) {
	if got := Extract(nil, "Title", FieldTitle); got != nil {
		t.Errorf("Extract(nil) = %#v, want nil", got)
	}
}

func TestTypedAccessorsReportPresence(t *testing.T) {
	props := sampleProperties()

	if _, ok := Title(props, "Missing"); ok {
		t.Error("Title(Missing) ok = true, want false")
	}
	if v, ok := Select(props, "Status"); !ok || v != "Published" {
		t.Errorf("Select(Status) = %q, %v", v, ok)
	}
	if v, ok := MultiSelect(props, "Missing"); ok || v != nil {
		t.Errorf("MultiSelect(Missing) = %#v, %v, want nil, false", v, ok)
	}
}
