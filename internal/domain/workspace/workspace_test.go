package workspace

import (
	"errors"
	"testing"

	"github.com/capazme/lexspace/internal/domain"
	"github.com/capazme/lexspace/internal/domain/norma"
)

func TestTabLabel(t *testing.T) {
	n := norma.Norma{TipoAtto: "Legge", NumeroAtto: "241", Data: "1990-08-07"}

	if got := TabLabel("", n, ""); got != "Legge 241" {
		t.Errorf("unexpected label %q", got)
	}
	if got := TabLabel("", n, "2010-01-01"); got != "Legge 241 - Ver. 2010-01-01" {
		t.Errorf("unexpected historical label %q", got)
	}
	if got := TabLabel("Il mio tab", n, "2010-01-01"); got != "Il mio tab - Ver. 2010-01-01" {
		t.Errorf("custom label should win, got %q", got)
	}
}

func TestTab_UpsertArticle(t *testing.T) {
	tab := Tab{ID: "t1"}
	tab.UpsertArticle(norma.Article{Numero: "2", Testo: "two"})
	tab.UpsertArticle(norma.Article{Numero: "1", Testo: "one"})
	tab.UpsertArticle(norma.Article{Numero: "2", Testo: "two v2"})

	if len(tab.Articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(tab.Articles))
	}
	if tab.Articles[0].Numero != "1" || tab.Articles[1].Testo != "two v2" {
		t.Errorf("unexpected articles %+v", tab.Articles)
	}
}

func TestEnvelope_RoundTrip(t *testing.T) {
	env, err := NewEnvelope(EnvelopeDossiers, []Dossier{{ID: "d1", Name: "Appalti"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.Validate(); err != nil {
		t.Fatalf("fresh envelope should validate: %v", err)
	}
	if env.Version != EnvelopeVersion {
		t.Errorf("unexpected version %d", env.Version)
	}
}

func TestEnvelope_Validate(t *testing.T) {
	cases := map[string]EnvironmentExport{
		"zero version":   {Type: EnvelopeWorkspace, Data: []byte(`{}`)},
		"future version": {Version: EnvelopeVersion + 1, Type: EnvelopeWorkspace, Data: []byte(`{}`)},
		"unknown type":   {Version: 1, Type: "bookmarks", Data: []byte(`{}`)},
		"empty data":     {Version: 1, Type: EnvelopeWorkspace},
	}
	for name, env := range cases {
		if err := env.Validate(); !errors.Is(err, domain.ErrInvalidEnvelope) {
			t.Errorf("%s: expected ErrInvalidEnvelope, got %v", name, err)
		}
	}
}
