package norma

import (
	"errors"
	"testing"

	"github.com/capazme/lexspace/internal/domain"
)

func TestParseResult_Valid(t *testing.T) {
	raw := []byte(`{"norma_data":{"tipo_atto":"Legge","numero_atto":"241","data":"1990-08-07","numero_articolo":"1"},"article_text":"Testo art. 1"}`)
	r, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Failed() {
		t.Error("result should not be failed")
	}
	if key := r.Norma().Key(); key != "legge--241--1990-08-07" {
		t.Errorf("unexpected key %q", key)
	}
	a := r.Article("")
	if a.Numero != "1" || a.Testo != "Testo art. 1" {
		t.Errorf("unexpected article %+v", a)
	}
	if a.Version != nil {
		t.Error("non-historical article should carry no version info")
	}
}

func TestParseResult_MalformedJSON(t *testing.T) {
	_, err := ParseResult([]byte(`{"norma_data":`))
	if !errors.Is(err, domain.ErrLineDecode) {
		t.Fatalf("expected ErrLineDecode, got %v", err)
	}
}

func TestParseResult_MissingNormaData(t *testing.T) {
	_, err := ParseResult([]byte(`{"article_text":"orphan"}`))
	if !errors.Is(err, domain.ErrMissingNormaData) {
		t.Fatalf("expected ErrMissingNormaData, got %v", err)
	}
}

func TestParseResult_ErrorField(t *testing.T) {
	raw := []byte(`{"norma_data":{"tipo_atto":"Legge","numero_articolo":"9"},"error":"article not found"}`)
	r, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Failed() {
		t.Error("expected failed result")
	}
	if r.FailureMessage() != "article not found" {
		t.Errorf("unexpected failure message %q", r.FailureMessage())
	}
}

func TestArticle_HistoricalStamping(t *testing.T) {
	raw := []byte(`{"norma_data":{"tipo_atto":"Legge","numero_atto":"241","data":"1990-08-07","numero_articolo":"2","data_versione":"2005-06-01"}}`)
	r, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := r.Article("2010-01-01")
	if a.Version == nil || !a.Version.IsHistorical {
		t.Fatal("expected historical version info")
	}
	if a.Version.RequestedDate != "2010-01-01" {
		t.Errorf("unexpected requested date %q", a.Version.RequestedDate)
	}
	if a.Version.EffectiveDate != "2005-06-01" {
		t.Errorf("expected data_versione as effective date, got %q", a.Version.EffectiveDate)
	}
}

func TestArticle_HistoricalFallsBackToNormaDate(t *testing.T) {
	raw := []byte(`{"norma_data":{"tipo_atto":"Legge","numero_atto":"241","data":"1990-08-07","numero_articolo":"2"}}`)
	r, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := r.Article("2010-01-01")
	if a.Version == nil || a.Version.EffectiveDate != "1990-08-07" {
		t.Fatalf("expected fallback to norma date, got %+v", a.Version)
	}
}

func TestUpsertArticle_ReplaceAndSort(t *testing.T) {
	var arts []Article
	arts = UpsertArticle(arts, Article{Numero: "3", Testo: "three"})
	arts = UpsertArticle(arts, Article{Numero: "1", Testo: "one"})
	arts = UpsertArticle(arts, Article{Numero: "2", Testo: "two"})
	arts = UpsertArticle(arts, Article{Numero: "3", Testo: "three v2"})

	if len(arts) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(arts))
	}
	for i, want := range []string{"1", "2", "3"} {
		if arts[i].Numero != want {
			t.Errorf("position %d: expected %s, got %s", i, want, arts[i].Numero)
		}
	}
	if arts[2].Testo != "three v2" {
		t.Errorf("expected latest result to win, got %q", arts[2].Testo)
	}
}

// Purely alphabetic identifiers sort as 0 and float to the front. The
// ordering is part of the presentation contract, not an accident.
func TestUpsertArticle_NonNumericSortsFirst(t *testing.T) {
	var arts []Article
	arts = UpsertArticle(arts, Article{Numero: "2"})
	arts = UpsertArticle(arts, Article{Numero: "preambolo"})
	arts = UpsertArticle(arts, Article{Numero: "16-bis"})
	arts = UpsertArticle(arts, Article{Numero: "1"})

	got := []string{arts[0].Numero, arts[1].Numero, arts[2].Numero, arts[3].Numero}
	want := []string{"preambolo", "1", "2", "16-bis"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestGroup_UpsertKeepsInvariant(t *testing.T) {
	g := NewGroup(Norma{TipoAtto: "Legge", NumeroAtto: "241", Data: "1990-08-07"}, "")
	g.Upsert(Article{Numero: "5"})
	g.Upsert(Article{Numero: "5", Testo: "updated"})
	g.Upsert(Article{Numero: "4"})

	if g.Len() != 2 {
		t.Fatalf("expected 2 articles, got %d", g.Len())
	}
	arts := g.Articles()
	if arts[0].Numero != "4" || arts[1].Numero != "5" {
		t.Errorf("group not sorted: %v, %v", arts[0].Numero, arts[1].Numero)
	}
	if arts[1].Testo != "updated" {
		t.Errorf("expected upsert to replace, got %q", arts[1].Testo)
	}
	if g.Historical() {
		t.Error("group without version date should not be historical")
	}
}
