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

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NavQuiz"); got != "Quiz" {
		t.Errorf("T(NavQuiz) = %q, want 'Quiz'", got)
	}
	if got := T(ctx, "SectionKeyPoints"); got != "Key Points" {
		t.Errorf("T(SectionKeyPoints) = %q, want 'Key Points'", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	if got := T(ctx, "NavQuiz"); got != "Тест" {
		t.Errorf("T(NavQuiz) = %q, want 'Тест'", got)
	}
	if got := T(ctx, "PerfExcellent"); got != "Отлично!" {
		t.Errorf("T(PerfExcellent) = %q, want 'Отлично!'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	tests := []struct {
		lang  string
		count int
		want  string
	}{
		{"en", 1, "1 card"},
		{"en", 5, "5 cards"},
		{"ru", 1, "1 карточка"},
		{"ru", 3, "3 карточки"},
		{"ru", 5, "5 карточек"},
		{"ru", 21, "21 карточка"},
	}
	for _, tt := range tests {
		ctx := initLang(t, tt.lang)
		if got := Tp(ctx, "CardsInDeck", tt.count); got != tt.want {
			t.Errorf("[%s] Tp(CardsInDeck, %d) = %q, want %q", tt.lang, tt.count, got, tt.want)
		}
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "QuestionNofM", map[string]any{"N": 2, "Total": 5})
	if got != "Question 2 of 5" {
		t.Errorf("Td(QuestionNofM) = %q, want 'Question 2 of 5'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestLocalesHaveSameKeys(t *testing.T) {
	en := initLang(t, "en")
	ru := WithLocalizer(context.Background(), NewLocalizer("ru"))

	for _, id := range []string{"AppTagline", "ErrBusy", "ErrTextTooShort", "NoticeMarkersMissing", "StyleBulletPoints", "DeckSimple"} {
		if T(en, id) == id {
			t.Errorf("en is missing %s", id)
		}
		if T(ru, id) == id {
			t.Errorf("ru is missing %s", id)
		}
	}
}

func TestSupportedDefaultFirst(t *testing.T) {
	initLang(t, "ru")
	got := Supported()
	if len(got) != 2 || got[0] != "ru" || got[1] != "en" {
		t.Errorf("Supported() = %v, want [ru en]", got)
	}
}

func TestMatch(t *testing.T) {
	initLang(t, "en")

	tests := []struct {
		name  string
		prefs []string
		want  string
	}{
		{"explicit", []string{"ru"}, "ru"},
		{"accept language", []string{"", "ru-RU,ru;q=0.9,en;q=0.8"}, "ru"},
		{"regional english", []string{"en-GB"}, "en"},
		{"unsupported falls back", []string{"de"}, "en"},
		{"nothing", nil, "en"},
		{"garbage", []string{"!!"}, "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.prefs...); got != tt.want {
				t.Errorf("Match(%v) = %q, want %q", tt.prefs, got, tt.want)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	initLang(t, "en")

	var gotLang, gotTitle string
	h := Middleware("/", false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = Lang(r.Context())
		gotTitle = T(r.Context(), "NavQuiz")
	}))

	t.Run("query sets cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?lang=ru", nil))
		if gotLang != "ru" || gotTitle != "Тест" {
			t.Errorf("lang = %q, title = %q", gotLang, gotTitle)
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != LangCookie || cookies[0].Value != "ru" {
			t.Errorf("cookies = %v, want %s=ru", cookies, LangCookie)
		}
	})

	t.Run("cookie beats accept language", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: LangCookie, Value: "en"})
		req.Header.Set("Accept-Language", "ru")
		h.ServeHTTP(httptest.NewRecorder(), req)
		if gotLang != "en" {
			t.Errorf("lang = %q, want en", gotLang)
		}
	})

	t.Run("accept language", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
		h.ServeHTTP(httptest.NewRecorder(), req)
		if gotLang != "ru" {
			t.Errorf("lang = %q, want ru", gotLang)
		}
	})
}
