package ui

import (
	"strings"
	"testing"

	"github.com/aidanlsb/cmisq/internal/model"
	"github.com/aidanlsb/cmisq/internal/repository"
)

func TestResultsTableRender(t *testing.T) {
	tbl := NewResultsTable(NewDisplayContextWithWidth(80), "cmis:name", "dc:title")
	tbl.AddRow("testfile1_Title", "first")
	tbl.AddRow("testfile2_Title")

	out := tbl.Render()
	for _, want := range []string{"cmis:name", "dc:title", "testfile1_Title", "first", "testfile2_Title"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
	if tbl.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", tbl.Len())
	}
}

func TestResultsTableFitsWidth(t *testing.T) {
	tbl := NewResultsTable(NewDisplayContextWithWidth(40), "a", "b")
	tbl.AddRow(strings.Repeat("x", 60), "short")

	widths := tbl.calculateWidths()
	if widths[0]+widths[1]+2 > 40 {
		t.Errorf("widths %v exceed the terminal", widths)
	}
	if widths[1] != 5 {
		t.Errorf("narrow column should keep its width, got %d", widths[1])
	}
	if out := tbl.Render(); !strings.Contains(out, "…") {
		t.Errorf("expected a truncated cell:\n%s", out)
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer value", 8, "a longe…"},
		{"café au lait", 5, "café…"},
	}
	for _, tt := range tests {
		if got := TruncateWithEllipsis(tt.in, tt.max); got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTSV(t *testing.T) {
	got := TSV([]string{"a", "b"}, [][]string{{"1", "two\twords"}, {"x\ny", ""}})
	want := "a\tb\n1\ttwo words\nx y\t\n"
	if got != want {
		t.Errorf("TSV = %q, want %q", got, want)
	}
}

func TestCell(t *testing.T) {
	if got := Cell(model.PropertyValue{}); got != "" {
		t.Errorf("absent cell = %q", got)
	}
	if got := Cell(model.Single(model.Integer(42))); got != "42" {
		t.Errorf("integer cell = %q", got)
	}
	if got := Cell(model.Strings("bob", "pete")); got != "bob, pete" {
		t.Errorf("multi cell = %q", got)
	}
	if got := Cell(model.Strings()); got != "" {
		t.Errorf("empty multi cell = %q", got)
	}
}

func TestRenderTree(t *testing.T) {
	folder := func(name string) *model.Object {
		return &model.Object{ID: name, BaseTypeID: model.BaseFolder, Properties: map[string]model.PropertyValue{
			"cmis:name": model.Single(model.String(name)),
		}}
	}
	doc := &model.Object{ID: "doc-id", BaseTypeID: model.BaseDocument, Properties: map[string]model.PropertyValue{}}

	out := RenderTree("/", []*repository.Node{
		{Object: folder("testfolder1"), Children: []*repository.Node{{Object: doc}}},
		{Object: folder("testfolder2")},
	})
	for _, want := range []string{"/", "testfolder1", "doc-id", "testfolder2", "…"} {
		if !strings.Contains(out, want) {
			t.Errorf("tree missing %q:\n%s", want, out)
		}
	}
}
