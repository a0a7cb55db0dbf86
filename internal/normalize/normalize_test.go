package normalize

import (
	"math/rand"
	"strings"
	"testing"
)

func randomDigits(r *rand.Rand, n int, first byte) string {
	var b strings.Builder
	if first != 0 {
		b.WriteByte(first)
		n--
	}
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + r.Intn(10)))
	}
	return b.String()
}

func TestPhoneDigitStringProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		ten := randomDigits(r, 10, 0)
		if got, ok := Phone(ten); !ok || got != ten {
			t.Fatalf("10 digits %q: got %q %v", ten, got, ok)
		}

		for _, lead := range []byte{'7', '8'} {
			eleven := randomDigits(r, 11, lead)
			if got, ok := Phone(eleven); !ok || got != eleven[1:] {
				t.Fatalf("11 digits %q: got %q %v", eleven, got, ok)
			}
		}

		twelve := randomDigits(r, 12, '7')
		if got, ok := Phone(twelve); !ok || got != twelve[2:] {
			t.Fatalf("12 digits %q: got %q %v", twelve, got, ok)
		}
	}
}

func TestPhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"8(901)547-78-37", "9015477837", true},
		{"+7 (926) 123-45-67", "9261234567", true},
		{"7-901-547-78-37", "9015477837", true},
		{"мой номер 8 901 547 78 37 сбербанк", "9015477837", true},
		{"карта 4276 0000 звонить 89015477837 и 1", "4276000089", true},
		{"текст без номера", "", false},
		{"8901547837", "8901547837", true},
		{"901547", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := Phone(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Phone(%q) = %q %v, want %q %v", tc.in, got, ok, tc.want, tc.ok)
		}
		if ok && !IsPhone(got) {
			t.Fatalf("Phone(%q) returned a partial number %q", tc.in, got)
		}
	}
}

func TestIsPhone(t *testing.T) {
	if !IsPhone("9015477837") {
		t.Fatalf("expected valid phone")
	}
	for _, s := range []string{"901547783", "90154778371", "901547783a", "null"} {
		if IsPhone(s) {
			t.Fatalf("IsPhone(%q) should be false", s)
		}
	}
}

func TestDocumentNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"99 24 621263", "9924621263", true},
		{"9924621263", "9924621263", true},
		{"45 12 № 345678", "4512345678", true},
		{"99 24 62126", "", false},
		{"не указан", "", false},
	}
	for _, tc := range cases {
		got, ok := DocumentNumber(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("DocumentNumber(%q) = %q %v", tc.in, got, ok)
		}
	}
}

func TestPatentNumber(t *testing.T) {
	cases := []struct {
		in         string
		primary    string
		wellFormed bool
	}{
		{"401828285 / 772997561656", "401828285", true},
		{"77AB123456/0012", "77AB123456", true},
		{"401828285", "401828285", false},
		{"12345/67890/1", "12345", false},
		{"4018 28285 / 7729", "4018 28285", false},
		{"401828285 / 77-29", "401828285", false},
		{"ПА123/45", "ПА123", false},
	}
	for _, tc := range cases {
		primary, ok := PatentNumber(tc.in)
		if primary != tc.primary || ok != tc.wellFormed {
			t.Fatalf("PatentNumber(%q) = %q %v, want %q %v", tc.in, primary, ok, tc.primary, tc.wellFormed)
		}
	}
}

func TestName(t *testing.T) {
	cases := map[string]string{
		"иванов  иван\tиванович ": "ИВАНОВ ИВАН ИВАНОВИЧ",
		"  Петров\nПётр":          "ПЕТРОВ ПЁТР",
		"Сергеи\u0306":            "СЕРГЕЙ",
		"":                        "",
	}
	for in, want := range cases {
		if got := Name(in); got != want {
			t.Fatalf("Name(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsAbsent(t *testing.T) {
	for _, v := range []string{"", "  ", "null", "NULL", "не указано", "Не указан", "неизвестно"} {
		if !IsAbsent(v) {
			t.Fatalf("IsAbsent(%q) should be true", v)
		}
	}
	if IsAbsent("Сбербанк") {
		t.Fatalf("bank name treated as absent")
	}
}
