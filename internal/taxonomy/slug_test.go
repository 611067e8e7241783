package taxonomy

import "testing"

func TestGenerateFallbackID(t *testing.T) {
	cases := []struct {
		parts []string
		want  string
	}{
		{[]string{"Foo Bar!"}, "foo-bar"},
		{[]string{"Foo Bar!"}, "foo-bar"}, // deterministic across calls
		{[]string{"How do you manage keys?", "Use KMS"}, "how-do-you-manage-keys-use-kms"},
		{[]string{"  Lots   of   spaces  "}, "lots-of-spaces"},
		{[]string{"---"}, ""},
	}
	for _, tc := range cases {
		if got := GenerateFallbackID(tc.parts...); got != tc.want {
			t.Errorf("GenerateFallbackID(%v) = %q, want %q", tc.parts, got, tc.want)
		}
	}
}

func TestGenerateFallbackIDIdempotent(t *testing.T) {
	once := GenerateFallbackID("Foo Bar!")
	if twice := GenerateFallbackID(once); twice != once {
		t.Fatalf("slug not idempotent: %q then %q", once, twice)
	}
}

func TestPillarSlug(t *testing.T) {
	if got := PillarSlug("Operational  Excellence"); got != "operational-excellence" {
		t.Fatalf("PillarSlug = %q", got)
	}
	if PillarSlug("Security") != PillarSlug("security") {
		t.Fatal("pillar slug should be case-insensitive")
	}
}
