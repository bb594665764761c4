package validation

import "testing"

func TestValidateGSTIN(t *testing.T) {
	t.Parallel()

	valid := []string{
		"27AAPFU0939F1ZV",
		"29AABCU9603R1ZM",
	}
	for _, gstin := range valid {
		if err := ValidateGSTIN(gstin); err != nil {
			t.Errorf("ValidateGSTIN(%q) = %v, want nil", gstin, err)
		}
	}

	invalid := []string{
		"",
		"27AAPFU0939F1Z",    // too short
		"27aapfu0939f1zv",   // lowercase
		"XXAAPFU0939F1ZV",   // state code must be digits
		"27AAPFU0939F1AV",   // 14th character must be Z
		"27AAPFU0939F1ZVX",  // too long
	}
	for _, gstin := range invalid {
		if err := ValidateGSTIN(gstin); err == nil {
			t.Errorf("ValidateGSTIN(%q) = nil, want error", gstin)
		}
	}
}

func TestStructValidationTags(t *testing.T) {
	t.Parallel()

	type subject struct {
		GSTIN string `validate:"omitempty,gstin"`
		PAN   string `validate:"omitempty,pan"`
		Role  string `validate:"omitempty,user_role"`
	}

	tests := []struct {
		name    string
		input   subject
		wantErr bool
	}{
		{name: "empty is allowed", input: subject{}},
		{name: "valid values", input: subject{GSTIN: "27AAPFU0939F1ZV", PAN: "AAPFU0939F", Role: "accountant"}},
		{name: "bad PAN", input: subject{PAN: "12345ABCDE"}, wantErr: true},
		{name: "bad role", input: subject{Role: "root"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate.Struct(&tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate.Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trims whitespace", input: "  Sharma & Co  ", want: "Sharma & Co"},
		{name: "strips control characters", input: "Sharma\x00 & Co\x07", want: "Sharma & Co"},
		{name: "keeps newline and tab", input: "line1\n\tline2", want: "line1\n\tline2"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateRole(t *testing.T) {
	t.Parallel()

	if err := ValidateRole("admin"); err != nil {
		t.Errorf("ValidateRole(admin) = %v", err)
	}
	if err := ValidateRole("root"); err == nil {
		t.Error("ValidateRole(root) should fail")
	}
}
