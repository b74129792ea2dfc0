package backend

import (
	"testing"
	"time"
)

func TestFormatDateTimeEnglish(t *testing.T) {
	// Tuesday 2024-03-05 14:07 UTC.
	at := time.Date(2024, time.March, 5, 14, 7, 0, 0, time.UTC)
	got := FormatDateTime(at, "en")
	want := "Tuesday, March 5, 14:07"
	if got != want {
		t.Fatalf("FormatDateTime() = %q, want %q", got, want)
	}
}

func TestFormatDateTimeGerman(t *testing.T) {
	at := time.Date(2024, time.March, 5, 9, 3, 0, 0, time.UTC)
	got := FormatDateTime(at, "de")
	want := "Dienstag, 5. März, 09:03"
	if got != want {
		t.Fatalf("FormatDateTime() = %q, want %q", got, want)
	}
}

func TestFormatDateTimeItalian(t *testing.T) {
	at := time.Date(2024, time.March, 5, 9, 3, 0, 0, time.UTC)
	got := FormatDateTime(at, "it")
	want := "martedì 5 marzo, 09:03"
	if got != want {
		t.Fatalf("FormatDateTime() = %q, want %q", got, want)
	}
}

func TestFormatDateTimeUnknownLanguageFallsBack(t *testing.T) {
	at := time.Date(2024, time.March, 5, 14, 7, 0, 0, time.UTC)
	if got := FormatDateTime(at, "xx"); got != FormatDateTime(at, "en") {
		t.Fatalf("unknown language = %q, want English fallback", got)
	}
}

func TestResolveTemplateContextFillsDeclaredVariable(t *testing.T) {
	at := time.Date(2024, time.March, 5, 14, 7, 0, 0, time.UTC)
	in := map[string]string{
		DateTimeVariable: "",
		"callerId":       "abc",
	}
	out := ResolveTemplateContext(in, at, time.UTC, "en")
	if out[DateTimeVariable] != "Tuesday, March 5, 14:07" {
		t.Fatalf("%s = %q, want resolved datetime", DateTimeVariable, out[DateTimeVariable])
	}
	if out["callerId"] != "abc" {
		t.Fatalf("callerId = %q, want untouched", out["callerId"])
	}
	if in[DateTimeVariable] != "" {
		t.Fatalf("input map was mutated")
	}
}

func TestResolveTemplateContextIgnoresUndeclaredVariable(t *testing.T) {
	out := ResolveTemplateContext(map[string]string{"callerId": "abc"}, time.Now(), time.UTC, "en")
	if _, present := out[DateTimeVariable]; present {
		t.Fatalf("datetime variable appeared without being declared")
	}
}

func TestResolveTemplateContextAppliesTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}
	// 2024-03-05 is before the DST switch, so Rome is UTC+1.
	at := time.Date(2024, time.March, 5, 14, 7, 0, 0, time.UTC)
	out := ResolveTemplateContext(map[string]string{DateTimeVariable: ""}, at, loc, "en")
	want := "Tuesday, March 5, 15:07"
	if out[DateTimeVariable] != want {
		t.Fatalf("%s = %q, want %q", DateTimeVariable, out[DateTimeVariable], want)
	}
}
