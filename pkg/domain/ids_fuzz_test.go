package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseUserID checks that parsing never panics on arbitrary input and
// that accepted values round-trip unchanged.
func FuzzParseUserID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE users;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		parsed, err := ParseUserID(input)
		if err == nil {
			roundTrip, err2 := ParseUserID(parsed.String())
			if err2 != nil {
				t.Errorf("accepted id failed round-trip: %v", err2)
			}
			if roundTrip != parsed {
				t.Error("round-trip changed id value")
			}
		}
		if !utf8.ValidString(input) && err == nil {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzParseAllIDs keeps validation behavior identical across the ID types;
// they share one underlying parser and must never drift.
func FuzzParseAllIDs(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errUser := ParseUserID(input)
		_, errList := ParseListID(input)
		_, errItem := ParseItemID(input)

		if (errUser == nil) != (errList == nil) || (errUser == nil) != (errItem == nil) {
			t.Error("inconsistent validation across id types")
		}
	})
}
