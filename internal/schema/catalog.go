package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	tagerrors "github.com/standardbeagle/tagsense/internal/errors"
)

// CatalogEntry maps a namespace URI to a schema location
type CatalogEntry struct {
	URI      string `yaml:"uri"`
	Location string `yaml:"location"`
}

// Catalog is a namespace catalog read from YAML:
//
//	namespaces:
//	  - uri: urn:example:books
//	    location: schemas/books.xsd
type Catalog struct {
	Namespaces []CatalogEntry `yaml:"namespaces"`
}

// LoadCatalog reads a catalog file. Relative locations are resolved against
// the catalog's directory.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tagerrors.NewFileError("read", path, err)
	}
	return ParseCatalog(data, filepath.Dir(path))
}

// ParseCatalog decodes catalog YAML. Entries without a URI or location are rejected.
func ParseCatalog(data []byte, baseDir string) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing namespace catalog: %w", err)
	}
	for i := range c.Namespaces {
		e := &c.Namespaces[i]
		if e.URI == "" || e.Location == "" {
			return nil, fmt.Errorf("catalog entry %d: uri and location are required", i)
		}
		if baseDir != "" && !filepath.IsAbs(e.Location) {
			e.Location = filepath.Join(baseDir, filepath.FromSlash(e.Location))
		}
	}
	return &c, nil
}

// Lookup returns the entry for uri. A nil catalog has no entries.
func (c *Catalog) Lookup(uri string) (CatalogEntry, bool) {
	if c == nil {
		return CatalogEntry{}, false
	}
	for _, e := range c.Namespaces {
		if e.URI == uri {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// Locations returns every schema location in catalog order
func (c *Catalog) Locations() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Namespaces))
	for _, e := range c.Namespaces {
		out = append(out, e.Location)
	}
	return out
}
