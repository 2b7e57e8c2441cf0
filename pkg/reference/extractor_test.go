package reference

import "testing"

func refTexts(refs []Reference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Text
	}
	return out
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "explicit section",
			text: "Personnel requirements are defined in Section 4.2 of this manual.",
			want: []string{"Section 4.2"},
		},
		{
			name: "section and regulation part",
			text: "See Section 4.2 and Part-145.A.30 for certifying staff duties.",
			want: []string{"Section 4.2", "Part-145.A.30"},
		},
		{
			name: "abbreviated section",
			text: "Refer to Sect. 3.1.4 for tooling control.",
			want: []string{"Sect. 3.1.4"},
		},
		{
			name: "chapter",
			text: "Training records are kept as described in Chapter 7.",
			want: []string{"Chapter 7"},
		},
		{
			name: "part with space",
			text: "Compliance with Part 145.A.30 is mandatory.",
			want: []string{"Part 145.A.30"},
		},
		{
			name: "finnish osa",
			text: "Katso OSA 5.2 lisätietoja varten.",
			want: []string{"OSA 5.2"},
		},
		{
			name: "finnish kohdassa",
			text: "Kuten kohdassa 3.4 on kuvattu.",
			want: []string{"kohdassa 3.4"},
		},
		{
			name: "bare number with section context",
			text: "The limits in part 8 apply, see also 4.5 of this appendix.",
			want: []string{"4.5"},
		},
		{
			name: "date excluded",
			text: "This revision was approved on 3.11.2025 by the quality manager.",
			want: nil,
		},
		{
			name: "organization id excluded",
			text: "Approval certificate FI.145.9999 covers this facility.",
			want: nil,
		},
		{
			name: "ip address excluded",
			text: "The server at 10.0.0.1 stores the records.",
			want: nil,
		},
		{
			name: "version number without context excluded",
			text: "Software release 2.1.3 introduced the export feature.",
			want: nil,
		},
		{
			name: "duplicate references collapse",
			text: "Section 4.2 applies. Section 4.2 also covers subcontracting.",
			want: []string{"Section 4.2"},
		},
		{
			name: "bare duplicate of explicit section collapses",
			text: "Section 4.2 describes the process and 4.2 lists the roles.",
			want: []string{"Section 4.2"},
		},
		{
			name: "no references",
			text: "All maintenance staff shall wear protective equipment.",
			want: nil,
		},
	}

	extractor := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := refTexts(extractor.Extract(tt.text))
			if len(got) != len(tt.want) {
				t.Fatalf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Extract(%q)[%d] = %q, want %q", tt.text, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Section 4.2", "4.2"},
		{"  SECT. 3.1 ", "3.1"},
		{"Part-145.A.30", "145.a.30"},
		{"4.2", "4.2"},
		{"Chapter 7", "7"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSectionNumberCapture(t *testing.T) {
	extractor := NewExtractor()
	refs := extractor.Extract("See Section 4.2 for details.")
	if len(refs) != 1 {
		t.Fatalf("expected one reference, got %d", len(refs))
	}
	if refs[0].SectionNumber != "4.2" {
		t.Errorf("SectionNumber = %q, want %q", refs[0].SectionNumber, "4.2")
	}
}
