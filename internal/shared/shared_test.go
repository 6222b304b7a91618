package shared

import "testing"

func TestSlugify(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "basic name",
			in:   "Fall Show",
			want: "fall-show",
		},
		{
			name: "punctuation collapses",
			in:   "Go, Bears! (2026)",
			want: "go-bears-2026",
		},
		{
			name: "extra whitespace",
			in:   "  Pregame   Show  ",
			want: "pregame-show",
		},
		{
			name: "already a slug",
			in:   "pregame-show",
			want: "pregame-show",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.in)
			if got != tt.want {
				t.Errorf("Slugify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateToken(t *testing.T) {
	a := GenerateToken()
	b := GenerateToken()

	if a == b {
		t.Error("tokens should be unique")
	}

	if len(a) != 32 {
		t.Errorf("expected 32-character token, got %d", len(a))
	}

	for _, r := range a {
		if r == '-' {
			t.Error("token should not contain dashes")
		}
	}
}
