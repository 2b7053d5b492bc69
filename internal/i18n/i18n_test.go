package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateNorwegian(t *testing.T) {
	ctx := initLang(t, "nb")

	got := T(ctx, "AppTitle")
	if got != "Førerkortet" {
		t.Errorf("T(AppTitle) = %q, want 'Førerkortet'", got)
	}

	got = T(ctx, "ScoreTierPerfect")
	if got != "Perfekt! Du mestrer stoffet! 🌟" {
		t.Errorf("T(ScoreTierPerfect) = %q", got)
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "Driving Theory" {
		t.Errorf("T(AppTitle) = %q, want 'Driving Theory'", got)
	}
}

func TestDefaultWithoutLocalizer(t *testing.T) {
	if err := Init(DefaultLanguage); err != nil {
		t.Fatalf("Init: %v", err)
	}
	got := T(context.Background(), "AppTitle")
	if got != "Førerkortet" {
		t.Errorf("T(AppTitle) without localizer = %q, want default language", got)
	}
}

func TestUnsupportedLanguageFallsBack(t *testing.T) {
	if err := Init(DefaultLanguage); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ctx := WithLocalizer(context.Background(), NewLocalizer("de"))
	if got := T(ctx, "AppTitle"); got != "Førerkortet" {
		t.Errorf("T(AppTitle) with de = %q, want fallback to nb", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "QuestionsAvailable", 1)
	if got1 != "1 question available." {
		t.Errorf("Tp(QuestionsAvailable, 1) = %q, want '1 question available.'", got1)
	}

	got5 := Tp(ctx, "QuestionsAvailable", 5)
	if got5 != "5 questions available." {
		t.Errorf("Tp(QuestionsAvailable, 5) = %q, want '5 questions available.'", got5)
	}

	ctx = initLang(t, "nb")
	if got := Tp(ctx, "StreakDays", 3); got != "3 dager på rad" {
		t.Errorf("Tp(StreakDays, 3) = %q, want '3 dager på rad'", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "nb")

	got := Td(ctx, "DurationMinSec", map[string]any{"Minutes": 2, "Seconds": 5})
	if got != "2 min 5 sek" {
		t.Errorf("Td(DurationMinSec) = %q, want '2 min 5 sek'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestMiddlewareAcceptLanguage(t *testing.T) {
	if err := Init(DefaultLanguage); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	h := Middleware("nb")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "AppTitle")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Førerkortet" {
		t.Errorf("no header: got %q, want nb", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Driving Theory" {
		t.Errorf("Accept-Language en: got %q, want en", got)
	}
}

func TestSupported(t *testing.T) {
	initLang(t, "nb")
	tests := []struct {
		lang string
		want bool
	}{
		{"nb", true},
		{"en", true},
		{"en-GB", true},
		{"nb-NO", true},
		{"de", false},
		{"", false},
		{"not a tag", false},
	}
	for _, tt := range tests {
		if got := Supported(tt.lang); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.lang, got, tt.want)
		}
	}
}
