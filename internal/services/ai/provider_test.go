package ai

import "testing"

func TestRiskLevelForCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		count int
		want  string
	}{
		{count: 0, want: "low"},
		{count: 1, want: "medium"},
		{count: 2, want: "medium"},
		{count: 3, want: "high"},
		{count: 50, want: "high"},
	}

	for _, tt := range tests {
		if got := RiskLevelForCount(tt.count); got != tt.want {
			t.Errorf("RiskLevelForCount(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestUnmarshalLenient(t *testing.T) {
	t.Parallel()

	type payload struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}

	tests := []struct {
		name    string
		content string
		wantErr bool
		want    payload
	}{
		{
			name:    "clean json",
			content: `{"category": "office_supplies", "confidence": 0.9}`,
			want:    payload{Category: "office_supplies", Confidence: 0.9},
		},
		{
			name:    "fenced json",
			content: "```json\n{\"category\": \"travel\", \"confidence\": 0.75}\n```",
			want:    payload{Category: "travel", Confidence: 0.75},
		},
		{
			name:    "prose around json",
			content: `Here is the result: {"category": "rent", "confidence": 1} hope that helps`,
			want:    payload{Category: "rent", Confidence: 1},
		},
		{
			name:    "no json at all",
			content: "I could not categorize that transaction.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got payload
			err := unmarshalLenient(tt.content, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unmarshalLenient() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("unmarshalLenient() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClampConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{in: -0.5, want: 0},
		{in: 0, want: 0},
		{in: 0.42, want: 0.42},
		{in: 1, want: 1},
		{in: 1.7, want: 1},
	}

	for _, tt := range tests {
		if got := clampConfidence(tt.in); got != tt.want {
			t.Errorf("clampConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeRiskLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "low", want: "low"},
		{in: "MEDIUM", want: "medium"},
		{in: "High", want: "high"},
		{in: "critical", want: "low"},
		{in: "", want: "low"},
	}

	for _, tt := range tests {
		if got := normalizeRiskLevel(tt.in); got != tt.want {
			t.Errorf("normalizeRiskLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
