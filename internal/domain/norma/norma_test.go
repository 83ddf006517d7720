package norma

import (
	"errors"
	"testing"

	"github.com/capazme/lexspace/internal/domain"
)

func TestKey_Canonical(t *testing.T) {
	n := Norma{TipoAtto: "Legge", NumeroAtto: "241", Data: "1990-08-07"}
	if got := n.Key(); got != "legge--241--1990-08-07" {
		t.Errorf("expected legge--241--1990-08-07, got %q", got)
	}
}

func TestKey_SanitizesWhitespaceAndSymbols(t *testing.T) {
	n := Norma{TipoAtto: "Decreto  Legislativo", NumeroAtto: "n° 82", Data: "2005-03-07"}
	if got := n.Key(); got != "decreto-legislativo--n-82--2005-03-07" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestKey_EmptyActType(t *testing.T) {
	n := Norma{TipoAtto: "  ", NumeroAtto: "1", Data: "2000-01-01"}
	if got := n.Key(); got != "" {
		t.Errorf("expected empty key for malformed norma, got %q", got)
	}
}

func TestKey_PartsWithoutNumberOrDate(t *testing.T) {
	n := Norma{TipoAtto: "Costituzione"}
	if got := n.Key(); got != "costituzione----" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestLabel(t *testing.T) {
	if got := (Norma{TipoAtto: "Legge", NumeroAtto: "241"}).Label(); got != "Legge 241" {
		t.Errorf("unexpected label %q", got)
	}
	if got := (Norma{TipoAtto: "Codice Civile"}).Label(); got != "Codice Civile" {
		t.Errorf("unexpected label %q", got)
	}
}

func TestSearchParams_Validate(t *testing.T) {
	valid := SearchParams{ActType: "legge", ActNumber: "241", Date: "1990-08-07", Article: "1-3", Version: VersionVigente}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]SearchParams{
		"missing act type": {Article: "1"},
		"missing article":  {ActType: "legge"},
		"bad version":      {ActType: "legge", Article: "1", Version: "latest"},
	}
	for name, p := range cases {
		if err := p.Validate(); !errors.Is(err, domain.ErrInvalidSearch) {
			t.Errorf("%s: expected ErrInvalidSearch, got %v", name, err)
		}
	}
}

func TestSearchParams_WithAnnexDoesNotMutate(t *testing.T) {
	p := SearchParams{ActType: "legge", Article: "5"}
	q := p.WithAnnex("1")
	if p.Annex != "" {
		t.Error("original params mutated")
	}
	if q.Annex != "1" {
		t.Errorf("expected annex 1, got %q", q.Annex)
	}
}

func TestSearchParams_Historical(t *testing.T) {
	p := SearchParams{ActType: "legge", Article: "1", VersionDate: "2010-01-01"}
	if !p.Historical() {
		t.Error("expected historical params")
	}
	if (SearchParams{ActType: "legge", Article: "1"}).Historical() {
		t.Error("expected non-historical params")
	}
}
