package model

import "testing"

func TestNormalizeLeafVerdict(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"true", "true"},
		{"False", "false"},
		{"  TRUE ", "true"},
		{"partially true", "partially_true"},
		{"partially_true", "partially_true"},
		{"mostly_true", "partially_true"},
		{"uncertain", "unverifiable"},
		{"unknown", "unverifiable"},
		{"inconclusive", "unverifiable"},
		{"banana", "unverifiable"},
		{"", "unverifiable"},
	}

	for _, tt := range tests {
		got := NormalizeLeafVerdict(tt.in)
		if got != tt.want {
			t.Errorf("NormalizeLeafVerdict(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeSynthesisVerdict(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mostly_true", "mostly_true"},
		{"mostly true", "mostly_true"},
		{"mixed", "mixed"},
		{"partially_true", "mostly_true"},
		{"partially_false", "mostly_false"},
		{"uncertain", "unverifiable"},
		{"nonsense", "unverifiable"},
	}

	for _, tt := range tests {
		got := NormalizeSynthesisVerdict(tt.in)
		if got != tt.want {
			t.Errorf("NormalizeSynthesisVerdict(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPromoteLeafVerdict(t *testing.T) {
	if got := PromoteLeafVerdict("partially_true"); got != "mixed" {
		t.Errorf("Expected partially_true to promote to mixed, got %q", got)
	}
	if got := PromoteLeafVerdict("true"); got != "true" {
		t.Errorf("Expected true to stay true, got %q", got)
	}
	if got := PromoteLeafVerdict("unverifiable"); got != "unverifiable" {
		t.Errorf("Expected unverifiable to stay unverifiable, got %q", got)
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.5, 0.5},
		{1.4, 1.0},
		{-0.3, 0.0},
		{0.0, 0.0},
		{1.0, 1.0},
	}

	for _, tt := range tests {
		if got := ClampConfidence(tt.in); got != tt.want {
			t.Errorf("ClampConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
