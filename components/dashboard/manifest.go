package dashboard

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// PanelManifestDocument models a YAML manifest that relabels, hides,
// reorders or adds panels.
type PanelManifestDocument struct {
	Version string          `json:"version" yaml:"version"`
	Name    string          `json:"name,omitempty" yaml:"name,omitempty"`
	Order   []string        `json:"order,omitempty" yaml:"order,omitempty"`
	Panels  []ManifestPanel `json:"panels" yaml:"panels"`
	Source  string          `json:"-" yaml:"-"`
}

// ManifestPanel describes a single panel entry within a manifest.
type ManifestPanel struct {
	Definition PanelDefinition  `json:"definition" yaml:"definition"`
	Provider   ManifestProvider `json:"provider,omitempty" yaml:"provider,omitempty"`
	Tags       []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ManifestProvider captures discovery metadata about a provider implementation.
type ManifestProvider struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
	DocsURL string `json:"docs_url,omitempty" yaml:"docs_url,omitempty"`
}

// LoadManifestFile reads a manifest from disk, registers it against the registry, and returns the document.
func (r *Registry) LoadManifestFile(path string) (*PanelManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument merges manifest entries into the registry. Entries
// naming an existing panel override its non-empty fields; the schema of a
// built-in panel is never replaced.
func (r *Registry) LoadManifestDocument(doc *PanelManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("dashboard: manifest document is nil")
	}
	for _, panel := range doc.Panels {
		def := panel.Definition
		if existing, ok := r.Definition(def.Code); ok {
			def = mergeDefinition(existing, def)
		}
		if err := r.RegisterDefinition(def); err != nil {
			return fmt.Errorf("dashboard: register panel %s from %s: %w", def.Code, doc.Source, err)
		}
		r.recordProviderMetadata(def.Code, panel.Provider)
	}
	r.Reorder(doc.Order)
	return nil
}

// ReadManifest loads a manifest file from disk without registering it.
func ReadManifest(path string) (*PanelManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*PanelManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc PanelManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("dashboard: manifest is empty")
		}
		return nil, fmt.Errorf("dashboard: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *PanelManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("dashboard: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Panels))
	for idx, panel := range doc.Panels {
		if panel.Definition.Code == "" {
			return fmt.Errorf("dashboard: manifest panel at index %d is missing definition.code", idx)
		}
		if _, exists := seen[panel.Definition.Code]; exists {
			return fmt.Errorf("dashboard: manifest duplicates panel code %s", panel.Definition.Code)
		}
		seen[panel.Definition.Code] = struct{}{}
	}
	return nil
}

func (doc *PanelManifestDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
}

func mergeDefinition(base, override PanelDefinition) PanelDefinition {
	if override.Name != "" {
		base.Name = override.Name
	}
	if override.Description != "" {
		base.Description = override.Description
	}
	if override.Category != "" {
		base.Category = override.Category
	}
	if override.Toggle != "" {
		base.Toggle = override.Toggle
	}
	if override.Selector != "" {
		base.Selector = override.Selector
	}
	base.Hidden = override.Hidden
	if len(base.Schema) == 0 && len(override.Schema) > 0 {
		base.Schema = override.Schema
	}
	return base
}

func (p ManifestProvider) isZero() bool {
	return p.Name == "" && p.Summary == "" && p.DocsURL == ""
}
