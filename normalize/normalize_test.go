package normalize

import "testing"

func TestText(t *testing.T) {
	got := Text("  37,1 – 45,3   млн\n₽ ")
	if got != "37,1 – 45,3 млн ₽" {
		t.Fatalf("unexpected normalized text %q", got)
	}
	if Text("") != "" {
		t.Fatalf("expected empty string")
	}
}

func TestNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"52,7 м²", 52.7},
		{"2,64 м", 2.64},
		{"12 500 000 ₽", 12500000},
		{"1,234,567", 1234567},
		{"45.3", 45.3},
		{"-2,5", -2.5},
		{"−3,1", -3.1},
		{"Год постройки: 1968", 1968},
		{"17,05 млн", 17.05},
	}
	for _, c := range cases {
		got := Number(c.in)
		if got == nil {
			t.Fatalf("Number(%q) = nil, want %v", c.in, c.want)
		}
		if *got != c.want {
			t.Errorf("Number(%q) = %v, want %v", c.in, *got, c.want)
		}
	}
}

func TestNumberUnparsable(t *testing.T) {
	for _, in := range []string{"", "нет данных", "-", ".", ",,"} {
		if got := Number(in); got != nil {
			t.Errorf("Number(%q) = %v, want nil", in, *got)
		}
	}
}

func TestNumberIdempotent(t *testing.T) {
	for _, in := range []string{"37,1", "12 500 000", "-2,5", "0,05", "1,234,567", "3.14159"} {
		first := Number(in)
		if first == nil {
			t.Fatalf("Number(%q) = nil", in)
		}
		second := Number(Format(*first))
		if second == nil || *second != *first {
			t.Fatalf("re-parsing %q: got %v, want %v", Format(*first), second, *first)
		}
	}
}

func TestRange(t *testing.T) {
	min, max := Range("37,1 – 45,3 млн ₽")
	if min == nil || max == nil {
		t.Fatalf("expected both bounds, got %v %v", min, max)
	}
	if *min != 37.1 || *max != 45.3 {
		t.Fatalf("expected 37.1..45.3, got %v..%v", *min, *max)
	}

	min, max = Range("10—12")
	if min == nil || max == nil || *min != 10 || *max != 12 {
		t.Fatalf("em dash range not parsed: %v %v", min, max)
	}

	min, max = Range("от — 45,3 млн")
	if min != nil {
		t.Fatalf("expected nil min, got %v", *min)
	}
	if max == nil || *max != 45.3 {
		t.Fatalf("expected max 45.3, got %v", max)
	}

	min, max = Range("нет оценки")
	if min != nil || max != nil {
		t.Fatalf("expected nil bounds")
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"+2,5%", 2.5},
		{"-2,5%", -2.5},
		{"Рост 3.75% за год", 3.75},
		{"−1%", -1},
	}
	for _, c := range cases {
		got := Percent(c.in)
		if got == nil {
			t.Fatalf("Percent(%q) = nil", c.in)
		}
		if *got != c.want {
			t.Errorf("Percent(%q) = %v, want %v", c.in, *got, c.want)
		}
	}
	if got := Percent("2,5 млн"); got != nil {
		t.Fatalf("expected nil for text without percent, got %v", *got)
	}
}

func TestYesNo(t *testing.T) {
	cases := []struct {
		in   string
		want *bool
	}{
		{"Да", boolPtr(true)},
		{"есть", boolPtr(true)},
		{"Нет", boolPtr(false)},
		{"ОТСУТСТВУЕТ", boolPtr(false)},
		{"Неизвестно", nil},
		{"", nil},
		{"Да, частично", nil},
	}
	for _, c := range cases {
		got := YesNo(c.in)
		switch {
		case c.want == nil && got != nil:
			t.Errorf("YesNo(%q) = %v, want nil", c.in, *got)
		case c.want != nil && (got == nil || *got != *c.want):
			t.Errorf("YesNo(%q) = %v, want %v", c.in, got, *c.want)
		}
	}
}

func TestCountBefore(t *testing.T) {
	text := "14 пассажирских, 18 грузовых"
	p := CountBefore(text, "пассажир")
	f := CountBefore(text, "грузов")
	if p == nil || *p != 14 {
		t.Fatalf("expected 14 passenger elevators, got %v", p)
	}
	if f == nil || *f != 18 {
		t.Fatalf("expected 18 freight elevators, got %v", f)
	}

	if got := CountBefore("2 пассажирских", "грузов"); got != nil {
		t.Fatalf("expected nil freight count, got %v", *got)
	}
}

func boolPtr(b bool) *bool { return &b }
