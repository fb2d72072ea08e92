package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/claimsift/claimsift/internal/model"
)

// manifest describes a corpus: one entry per document, with its procurement
// identity and the path of its extracted text.
type manifest struct {
	Documents []manifestEntry `yaml:"documents"`
}

type manifestEntry struct {
	ID           string `yaml:"id"`
	State        string `yaml:"state"`
	Organization string `yaml:"organization,omitempty"`
	Year         int    `yaml:"year"`
	Type         string `yaml:"type"` // rfp or proposal
	Path         string `yaml:"path"`
}

// loadManifest reads the manifest and the text of every listed document.
// Relative document paths resolve against the manifest's directory.
func loadManifest(path string) ([]model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	base := filepath.Dir(path)
	docs := make([]model.Document, 0, len(m.Documents))
	for i, e := range m.Documents {
		if e.ID == "" {
			return nil, fmt.Errorf("manifest entry %d: missing id", i)
		}
		docType := model.DocumentType(e.Type)
		if docType != model.DocTypeRFP && docType != model.DocTypeProposal {
			return nil, fmt.Errorf("manifest entry %q: unknown type %q (want rfp or proposal)", e.ID, e.Type)
		}

		textPath := e.Path
		if !filepath.IsAbs(textPath) {
			textPath = filepath.Join(base, textPath)
		}
		text, err := os.ReadFile(textPath)
		if err != nil {
			return nil, fmt.Errorf("read document %q: %w", e.ID, err)
		}

		docs = append(docs, model.Document{
			ID:           e.ID,
			State:        e.State,
			Organization: e.Organization,
			Year:         e.Year,
			Type:         docType,
			Text:         string(text),
		})
	}
	return docs, nil
}
