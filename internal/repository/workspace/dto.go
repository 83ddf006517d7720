package workspace

import (
	"encoding/json"
	"fmt"

	domws "github.com/capazme/lexspace/internal/domain/workspace"
)

func marshalTab(tab domws.Tab) ([]byte, error) {
	data, err := json.Marshal(tab)
	if err != nil {
		return nil, fmt.Errorf("marshal tab %s: %w", tab.ID, err)
	}
	return data, nil
}

func unmarshalTab(data []byte) (domws.Tab, error) {
	var tab domws.Tab
	if err := json.Unmarshal(data, &tab); err != nil {
		return domws.Tab{}, fmt.Errorf("unmarshal tab: %w", err)
	}
	return tab, nil
}

func marshalQuickNorm(qn domws.QuickNorm) ([]byte, error) {
	data, err := json.Marshal(qn)
	if err != nil {
		return nil, fmt.Errorf("marshal quick norm %s: %w", qn.ID, err)
	}
	return data, nil
}

func unmarshalQuickNorm(data []byte) (domws.QuickNorm, error) {
	var qn domws.QuickNorm
	if err := json.Unmarshal(data, &qn); err != nil {
		return domws.QuickNorm{}, fmt.Errorf("unmarshal quick norm: %w", err)
	}
	return qn, nil
}

func marshalDossier(d domws.Dossier) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal dossier %s: %w", d.ID, err)
	}
	return data, nil
}

func unmarshalDossier(data []byte) (domws.Dossier, error) {
	var d domws.Dossier
	if err := json.Unmarshal(data, &d); err != nil {
		return domws.Dossier{}, fmt.Errorf("unmarshal dossier: %w", err)
	}
	return d, nil
}
