package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

type panelCmd struct {
	Code         string `required:"" help:"Panel code (e.g. gd.panel.ai)."`
	Name         string `help:"Display name. Derived from the code when empty."`
	Description  string `help:"One-line description."`
	ManifestPath string `name:"manifest" required:"" type:"path" help:"Manifest YAML file to update."`
	Hide         bool   `help:"Hide the panel."`
	Position     int    `default:"-1" help:"Zero-based position in the manifest order (-1 leaves order untouched)."`
	DocsURL      string `name:"docs-url" help:"Link recorded in the provider metadata."`
}

func (cmd *panelCmd) Run() error {
	return cmd.apply(os.Stdout)
}

func (cmd *panelCmd) apply(out io.Writer) error {
	if !strings.Contains(cmd.Code, ".") {
		return fmt.Errorf("gdboard: panel code %s must contain at least one '.' segment", cmd.Code)
	}
	path, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("gdboard: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(path)
	if err != nil {
		return err
	}

	entry := dashboard.ManifestPanel{
		Definition: dashboard.PanelDefinition{
			Code:        cmd.Code,
			Name:        cmd.Name,
			Description: cmd.Description,
			Hidden:      cmd.Hide,
		},
	}
	if entry.Definition.Name == "" {
		if !isBuiltinPanel(cmd.Code) {
			entry.Definition.Name = deriveName(cmd.Code)
		}
	}
	if cmd.DocsURL != "" {
		entry.Provider.DocsURL = cmd.DocsURL
	}

	replaced := false
	for idx := range doc.Panels {
		if doc.Panels[idx].Definition.Code == cmd.Code {
			doc.Panels[idx] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Panels = append(doc.Panels, entry)
	}
	if cmd.Position >= 0 {
		doc.Order = placeAt(doc.Order, cmd.Code, cmd.Position)
	}

	if err := doc.Validate(); err != nil {
		return err
	}
	if err := writeManifest(path, doc); err != nil {
		return err
	}
	verb := "Added"
	if replaced {
		verb = "Updated"
	}
	fmt.Fprintf(out, "✓ %s %s in %s\n", verb, cmd.Code, path)
	return nil
}

// isBuiltinPanel reports whether code names a default panel, whose name is
// kept unless explicitly overridden.
func isBuiltinPanel(code string) bool {
	return slices.ContainsFunc(dashboard.DefaultPanelDefinitions(), func(def dashboard.PanelDefinition) bool {
		return def.Code == code
	})
}

func placeAt(order []string, code string, position int) []string {
	out := slices.DeleteFunc(slices.Clone(order), func(c string) bool { return c == code })
	if position > len(out) {
		position = len(out)
	}
	return slices.Insert(out, position, code)
}

func loadOrInitManifest(path string) (*dashboard.PanelManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &dashboard.PanelManifestDocument{
				Version: dashboard.ManifestVersion,
				Panels:  []dashboard.ManifestPanel{},
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("gdboard: stat manifest: %w", err)
	}
	return dashboard.ReadManifest(path)
}

func writeManifest(path string, doc *dashboard.PanelManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("gdboard: mkdir %s: %w", filepath.Dir(path), err)
	}
	tmpDoc := *doc
	tmpDoc.Source = ""

	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("gdboard: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(tmpDoc); err != nil {
		return fmt.Errorf("gdboard: write manifest: %w", err)
	}
	return nil
}

func deriveName(code string) string {
	parts := strings.Split(code, ".")
	slug := strings.TrimSpace(parts[len(parts)-1])
	if slug == "" {
		slug = code
	}
	return strcase.ToCase(slug, strcase.TitleCase, ' ')
}
