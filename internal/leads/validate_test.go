package leads

import (
	"errors"
	"testing"
)

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"jane@example.com", true},
		{"a@b.co", true},
		{"first.last+tag@sub.example.org", true},
		{"", false},
		{"jane.example.com", false},
		{"jane@", false},
		{"jane@example", false},
		{"@example.com", false},
		{"jane doe@example.com", false},
		{"jane@exa mple.com", false},
		{"jane@example.", false},
	}
	for _, tt := range tests {
		if got := ValidEmail(tt.email); got != tt.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"5551234567", true},
		{"+1 (555) 123-4567", true},
		{"555.123.4567", true},
		{"555-123-456", false},
		{"(555) 123", false},
		{"phone", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidPhone(tt.phone); got != tt.want {
			t.Errorf("ValidPhone(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
	if got := PhoneDigits("+1 (555) 123-4567"); got != "15551234567" {
		t.Fatalf("unexpected digits %q", got)
	}
}

func TestValidateContact(t *testing.T) {
	tests := []struct {
		name, email string
		want        error
	}{
		{"Jane Doe", "jane@example.com", nil},
		{"", "jane@example.com", ErrNameEmailRequired},
		{"   ", "jane@example.com", ErrNameEmailRequired},
		{"Jane", "", ErrNameEmailRequired},
		{"Jane", "jane", ErrInvalidEmail},
		{"Jane", "jane@example", ErrInvalidEmail},
	}
	for _, tt := range tests {
		err := ValidateContact(tt.name, tt.email)
		if !errors.Is(err, tt.want) {
			t.Errorf("ValidateContact(%q, %q) = %v, want %v", tt.name, tt.email, err, tt.want)
		}
	}
}

func TestValidateIntake(t *testing.T) {
	tests := []struct {
		first, last, phone, email string
		want                      error
	}{
		{"Jane", "Doe", "5551234567", "", nil},
		{"Jane", "Doe", "+1 (555) 123-4567", "jane@example.com", nil},
		{"", "Doe", "5551234567", "", ErrIntakeRequired},
		{"Jane", " ", "5551234567", "", ErrIntakeRequired},
		{"Jane", "Doe", "", "", ErrIntakeRequired},
		{"Jane", "Doe", "555-123-456", "", ErrInvalidPhone},
		{"Jane", "Doe", "5551234567", "not-an-email", ErrInvalidEmail},
	}
	for _, tt := range tests {
		err := ValidateIntake(tt.first, tt.last, tt.phone, tt.email)
		if !errors.Is(err, tt.want) {
			t.Errorf("ValidateIntake(%q, %q, %q, %q) = %v, want %v", tt.first, tt.last, tt.phone, tt.email, err, tt.want)
		}
	}
}

func TestValidationErrorMessages(t *testing.T) {
	if ErrNameEmailRequired.Error() != "Name and email are required" {
		t.Fatalf("unexpected message %q", ErrNameEmailRequired.Error())
	}
	if !IsValidation(ErrInvalidPhone) {
		t.Fatal("expected ErrInvalidPhone to be a validation error")
	}
	if IsValidation(ErrLeadNotFound) {
		t.Fatal("ErrLeadNotFound is not a validation error")
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Qualified ")
	if err != nil || st != StatusQualified {
		t.Fatalf("expected qualified, got %q (%v)", st, err)
	}
	if _, err := ParseStatus("archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
