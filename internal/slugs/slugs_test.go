package slugs

import "testing"

func TestSegment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"testfolder1", "testfolder1"},
		{"My Awesome Project", "my-awesome-project"},
		{"UPPER CASE", "upper-case"},
		{"doc1.txt", "doc1.txt"},
		{"Quarterly Report.PDF", "quarterly-report.pdf"},
		{"Special: Characters!", "special-characters"},
		{".profile", "profile"},
		{"archive.tar.gz", "archive-tar.gz"},
		{"", Fallback},
		{"!!!", Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Segment(tt.in); got != tt.want {
				t.Fatalf("Segment(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnique(t *testing.T) {
	taken := map[string]bool{"notes.txt": true, "notes-2.txt": true, "draft": true}
	has := func(s string) bool { return taken[s] }

	tests := []struct {
		in   string
		want string
	}{
		{"fresh", "fresh"},
		{"draft", "draft-2"},
		{"notes.txt", "notes-3.txt"},
	}
	for _, tt := range tests {
		if got := Unique(tt.in, has); got != tt.want {
			t.Errorf("Unique(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitJoin(t *testing.T) {
	parts := Split("/testfolder2//testfolder3/")
	if len(parts) != 2 || parts[0] != "testfolder2" || parts[1] != "testfolder3" {
		t.Fatalf("Split = %q", parts)
	}
	if got := Join(parts...); got != "/testfolder2/testfolder3" {
		t.Errorf("Join = %q", got)
	}
	if got := Split("/"); len(got) != 0 {
		t.Errorf("Split(/) = %q, want none", got)
	}
	if got := Join(); got != "/" {
		t.Errorf("Join() = %q, want /", got)
	}
}
