// Package validate holds the registration input rules: student-ID
// formats per study year, the password complexity policy, the campus
// email domain and the phone number shape.  All checks are pure
// functions so they can be reused by both the student and admin auth
// handlers and tested without a database.
package validate

import (
    "regexp"
    "strings"
)

// specialChars is the set of accepted password special characters.
const specialChars = "@#$%&*!?"

// yearPrefix maps study years 1–3 to the numeric prefix their 10-digit
// registration numbers must carry.  Year 4 uses the lateral-entry
// pattern instead.
var yearPrefix = map[int]string{
    1: "2025",
    2: "2024",
    3: "2023",
}

// year4Pattern matches lateral-entry registration numbers: HU22, four
// uppercase letters, seven digits.
var year4Pattern = regexp.MustCompile(`^HU22[A-Z]{4}[0-9]{7}$`)

var allDigits = regexp.MustCompile(`^[0-9]+$`)

// StudentID reports whether the registration number is valid for the
// claimed study year.  Years 1–3 require exactly 10 digits starting
// with the intake-year prefix; year 4 must match year4Pattern.  Any
// other year is invalid.
func StudentID(year int, id string) bool {
    id = strings.TrimSpace(id)
    switch {
    case year >= 1 && year <= 3:
        prefix, ok := yearPrefix[year]
        if !ok {
            return false
        }
        return len(id) == 10 && allDigits.MatchString(id) && strings.HasPrefix(id, prefix)
    case year == 4:
        return year4Pattern.MatchString(id)
    }
    return false
}

// Password enforces the campus policy: at least 8 characters with at
// least one uppercase letter, one digit and one character from
// specialChars.
func Password(pw string) bool {
    if len(pw) < 8 {
        return false
    }
    var upper, digit, special bool
    for _, r := range pw {
        switch {
        case r >= 'A' && r <= 'Z':
            upper = true
        case r >= '0' && r <= '9':
            digit = true
        case strings.ContainsRune(specialChars, r):
            special = true
        }
    }
    return upper && digit && special
}

// Email requires the address to end with the campus domain suffix
// (e.g. "@student.gitam.edu").  Comparison is case-insensitive.
func Email(email, domain string) bool {
    email = strings.ToLower(strings.TrimSpace(email))
    return strings.HasSuffix(email, strings.ToLower(domain)) && len(email) > len(domain)
}

// Phone requires exactly 10 digits.
func Phone(phone string) bool {
    phone = strings.TrimSpace(phone)
    return len(phone) == 10 && allDigits.MatchString(phone)
}
