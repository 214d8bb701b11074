package service

import "testing"

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain name unchanged",
			input: "Wilbur",
			want:  "Wilbur",
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  Wilbur\t",
			want:  "Wilbur",
		},
		{
			name:  "curly double quotes folded",
			input: "“Big” Pig",
			want:  "\"Big\" Pig",
		},
		{
			name:  "curly single quotes folded",
			input: "Wilbur’s Friend",
			want:  "Wilbur's Friend",
		},
		{
			name:  "en and em dashes folded",
			input: "Salt – Pepper — Paprika",
			want:  "Salt - Pepper - Paprika",
		},
		{
			name:  "figure dash and long dashes folded",
			input: "A‒B⸺C⸻D",
			want:  "A-B-C-D",
		},
		{
			name:  "whitespace only becomes empty",
			input: "   ",
			want:  "",
		},
		{
			name:  "interior whitespace preserved",
			input: "Peppa  Pig",
			want:  "Peppa  Pig",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeName(tc.input); got != tc.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
