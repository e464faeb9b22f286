package submission

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDocument lê um documento de um arquivo .json (formato de fio) ou
// .yaml/.yml (mesmos nomes de campo em snake_case).
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read document %s: %w", path, err)
	}

	var doc Document
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		return Document{}, fmt.Errorf("document %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return Document{}, fmt.Errorf("decode document %s: %w", path, err)
	}
	return doc, nil
}

// LoadDocuments carrega vários arquivos, parando no primeiro erro.
func LoadDocuments(paths []string) ([]Document, error) {
	docs := make([]Document, 0, len(paths))
	for _, p := range paths {
		doc, err := LoadDocument(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
