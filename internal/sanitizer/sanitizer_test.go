package sanitizer

import "testing"

func TestHTMLStripsTags(t *testing.T) {
	got := HTML{}.Sanitize("<a href=\"x\">hello</a> <b>world</b>")
	if got == "" {
		t.Fatal("expected non-empty sanitized output")
	}
	for _, bad := range []string{"<a", "<b>", "</b>"} {
		if contains(got, bad) {
			t.Errorf("expected tags stripped, found %q in %q", bad, got)
		}
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
