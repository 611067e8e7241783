package parser

import "testing"

func TestCleanJSONTrimsToOuterBraces(t *testing.T) {
	raw := "Here is the assessment you asked for:\n```json\n{ \"applied\" : True }\n```\nLet me know if you need more."
	got, err := CleanJSON(raw)
	if err != nil {
		t.Fatalf("CleanJSON: %v", err)
	}
	want := `{"applied":true}`
	if got != want {
		t.Fatalf("CleanJSON = %q, want %q", got, want)
	}
}

func TestCleanJSONIdempotent(t *testing.T) {
	raw := `{
		"bestPractices" : [ { "name" : "Use multiple AZs" , "applied" : False } ]
	}`
	once, err := CleanJSON(raw)
	if err != nil {
		t.Fatalf("CleanJSON first pass: %v", err)
	}
	twice, err := CleanJSON(once)
	if err != nil {
		t.Fatalf("CleanJSON second pass: %v", err)
	}
	if once != twice {
		t.Fatalf("cleanup not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestCleanJSONNoBraces(t *testing.T) {
	if _, err := CleanJSON("no json here"); err == nil {
		t.Fatal("expected error for input without braces")
	}
}

func TestLowercaseBooleans(t *testing.T) {
	cases := map[string]string{
		": True":       ": true",
		": False":      ": false",
		`"TrueNorth"`:  `"TrueNorth"`,
		"True, False":  "true, false",
	}
	for in, want := range cases {
		if got := lowercaseBooleans(in); got != want {
			t.Errorf("lowercaseBooleans(%q) = %q, want %q", in, got, want)
		}
	}
}
