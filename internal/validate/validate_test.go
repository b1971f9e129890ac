package validate

import "testing"

func TestStudentID(t *testing.T) {
	cases := []struct {
		year int
		id   string
		want bool
	}{
		{1, "2025123456", true},
		{2, "2024123456", true},
		{3, "2023123456", true},
		{1, "2024123456", false}, // wrong intake prefix for year
		{2, "2025123456", false},
		{1, "202512345", false},   // 9 digits
		{1, "20251234567", false}, // 11 digits
		{1, "2025abc456", false},  // letters
		{4, "HU22ABCD1234567", true},
		{4, "hu22abcd1234567", false}, // lowercase not accepted
		{4, "HU23ABCD1234567", false}, // wrong literal prefix
		{4, "HU22ABC1234567", false},  // 3 letters
		{4, "HU22ABCD123456", false},  // 6 digits
		{5, "2025123456", false},      // unknown year
		{0, "2025123456", false},
		{1, " 2025123456 ", true}, // surrounding space trimmed
	}
	for _, tc := range cases {
		if got := StudentID(tc.year, tc.id); got != tc.want {
			t.Fatalf("StudentID(%d, %q) = %v, want %v", tc.year, tc.id, got, tc.want)
		}
	}
}

func TestPassword(t *testing.T) {
	cases := []struct {
		pw   string
		want bool
	}{
		{"Abcdef1!", true},
		{"Str0ng@pass", true},
		{"short1A!", true},
		{"Abcde1!", false},    // 7 chars
		{"abcdefg1!", false},  // no uppercase
		{"Abcdefgh!", false},  // no digit
		{"Abcdefg12", false},  // no special
		{"", false},
	}
	for _, tc := range cases {
		if got := Password(tc.pw); got != tc.want {
			t.Fatalf("Password(%q) = %v, want %v", tc.pw, got, tc.want)
		}
	}
}

func TestEmail(t *testing.T) {
	const domain = "@student.gitam.edu"
	cases := []struct {
		email string
		want  bool
	}{
		{"john@student.gitam.edu", true},
		{"JOHN@STUDENT.GITAM.EDU", true}, // case-insensitive
		{"  a@student.gitam.edu  ", true},
		{"@student.gitam.edu", false}, // no local part
		{"john@gmail.com", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Email(tc.email, domain); got != tc.want {
			t.Fatalf("Email(%q) = %v, want %v", tc.email, got, tc.want)
		}
	}
}

func TestPhone(t *testing.T) {
	cases := []struct {
		phone string
		want  bool
	}{
		{"9876543210", true},
		{" 9876543210 ", true},
		{"987654321", false},   // 9 digits
		{"98765432101", false}, // 11 digits
		{"98765a3210", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Phone(tc.phone); got != tc.want {
			t.Fatalf("Phone(%q) = %v, want %v", tc.phone, got, tc.want)
		}
	}
}
