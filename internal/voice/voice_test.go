package voice

import "testing"

func TestReadableName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"en-US-Standard-A", "English US - Female (A)"},
		{"en-US-Standard-B", "English US - Male (B)"},
		{"en-US-Standard-C", "English US - Female (C)"},
		{"en-US-Standard-J", "English US - Male (J)"},
		{"en-GB-Wavenet-A", "en-GB-Wavenet-A"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := ReadableName(tt.id); got != tt.want {
				t.Errorf("ReadableName(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	voices := All()
	if len(voices) != 10 {
		t.Fatalf("expected 10 voices, got %d", len(voices))
	}
	if voices[0].ID != DefaultVoice {
		t.Errorf("first voice is %s, want the default", voices[0].ID)
	}

	seen := make(map[string]bool)
	for i, v := range voices {
		if seen[v.ID] {
			t.Errorf("duplicate voice %s", v.ID)
		}
		seen[v.ID] = true
		if Index(v.ID) != i {
			t.Errorf("Index(%s) = %d, want %d", v.ID, Index(v.ID), i)
		}
	}

	voices[0].ID = "changed"
	if All()[0].ID != DefaultVoice {
		t.Error("All returned the catalog itself")
	}
}

func TestLookup(t *testing.T) {
	v, ok := Lookup("en-US-Standard-I")
	if !ok || v.Gender != Male {
		t.Errorf("Lookup = %+v, %v", v, ok)
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("found an unknown voice")
	}
	if Index("nope") != -1 {
		t.Error("Index of an unknown voice should be -1")
	}
}
