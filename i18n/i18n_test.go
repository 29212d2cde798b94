package i18n

import (
	"testing"
	"time"
)

func TestDetectLanguage(t *testing.T) {
	tests := map[string]string{
		"en-US,en;q=0.9":       "en",
		"EN-gb":                "en",
		"fr-FR,fr;q=0.8":       "fr",
		"de-DE,en;q=0.5":       "en",
		"es":                   "fr",
		"":                     "fr",
		"fr;q=0.2,en-US;q=0.9": "en",
	}
	for header, want := range tests {
		if got := DetectLanguage(header); got != want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "Required" {
		t.Fatalf("expected Required")
	}
	if T("fr", "required") != "Requis" {
		t.Fatalf("expected Requis")
	}
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	if T("es", "rented") != "Loué" {
		t.Fatalf("expected fr fallback for es lang")
	}
}

func TestChartLabels(t *testing.T) {
	june := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if got := MonthLabel("fr", june); got != "juin 2025" {
		t.Errorf("MonthLabel fr = %q", got)
	}
	if got := MonthLabel("en", june); got != "Jun 2025" {
		t.Errorf("MonthLabel en = %q", got)
	}
	if got := DayLabel("fr", june); got != "15/06" {
		t.Errorf("DayLabel fr = %q", got)
	}
	if got := DayLabel("en", june); got != "06/15" {
		t.Errorf("DayLabel en = %q", got)
	}
}
