package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/store"
)

// TerritoryCatalog defines the interface for the territory catalogue
type TerritoryCatalog interface {
	// Lookup returns a catalogue entry by territory ID
	Lookup(id string) *TerritoryInfo

	// Len returns the number of territories in the catalogue
	Len() int

	// Batches splits the catalogue into seed batches of at most size entries, in file order
	Batches(size int) [][]store.SeedTerritoryInput
}

// TerritoryInfo represents a territory entry in the catalogue
type TerritoryInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BasePrice int64  `json:"base_price"`
}

// CatalogData represents the structure of the catalogue JSON file
type CatalogData struct {
	Version     int             `json:"version"`
	Territories []TerritoryInfo `json:"territories"`
}

// territoryCatalog is the internal implementation of TerritoryCatalog interface
type territoryCatalog struct {
	data *CatalogData
	// Fast lookup map: upper-cased id -> entry
	byID map[string]*TerritoryInfo
}

// CatalogLoader defines the interface for loading the territory catalogue from files
type CatalogLoader interface {
	// Load loads and validates the catalogue from a JSON file
	Load(filePath string) (TerritoryCatalog, error)
}

// catalogLoader is the internal implementation of CatalogLoader interface
type catalogLoader struct {
	fs   adapter.FileSystem
	json adapter.JSON
}

// NewCatalogLoader creates a new CatalogLoader with injected dependencies
func NewCatalogLoader(fs adapter.FileSystem, json adapter.JSON) CatalogLoader {
	return &catalogLoader{
		fs:   fs,
		json: json,
	}
}

// Load loads the territory catalogue from a JSON file
func (l *catalogLoader) Load(filePath string) (TerritoryCatalog, error) {
	// Read the file using the file system interface
	data, err := l.fs.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	// Parse JSON using the JSON adapter
	var catalogData CatalogData
	if err := l.json.Unmarshal(data, &catalogData); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}

	catalog := &territoryCatalog{
		data: &catalogData,
		byID: make(map[string]*TerritoryInfo, len(catalogData.Territories)),
	}

	var errs []error
	for i := range catalogData.Territories {
		territory := &catalogData.Territories[i]
		territory.ID = strings.TrimSpace(territory.ID)
		territory.Name = strings.TrimSpace(territory.Name)

		if territory.ID == "" {
			errs = append(errs, fmt.Errorf("entry %d: id is required", i))
			continue
		}
		if territory.BasePrice < 0 {
			errs = append(errs, fmt.Errorf("territory %s: base_price must not be negative", territory.ID))
		}

		// IDs are compared case-insensitively so "fr" and "FR" cannot both be seeded
		key := strings.ToUpper(territory.ID)
		if _, ok := catalog.byID[key]; ok {
			errs = append(errs, fmt.Errorf("territory %s: duplicate id", territory.ID))
			continue
		}
		catalog.byID[key] = territory
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid catalog %s: %w", filePath, errors.Join(errs...))
	}

	return catalog, nil
}

// Lookup returns a catalogue entry by territory ID
func (c *territoryCatalog) Lookup(id string) *TerritoryInfo {
	if c == nil {
		return nil
	}
	return c.byID[strings.ToUpper(strings.TrimSpace(id))]
}

// Len returns the number of territories in the catalogue
func (c *territoryCatalog) Len() int {
	if c == nil || c.data == nil {
		return 0
	}
	return len(c.data.Territories)
}

// Batches splits the catalogue into seed batches
func (c *territoryCatalog) Batches(size int) [][]store.SeedTerritoryInput {
	if c.Len() == 0 {
		return nil
	}
	if size <= 0 {
		size = c.Len()
	}

	var batches [][]store.SeedTerritoryInput
	for start := 0; start < c.Len(); start += size {
		end := min(start+size, c.Len())
		batch := make([]store.SeedTerritoryInput, 0, end-start)
		for _, t := range c.data.Territories[start:end] {
			batch = append(batch, store.SeedTerritoryInput{
				ID:        t.ID,
				Name:      t.Name,
				BasePrice: t.BasePrice,
			})
		}
		batches = append(batches, batch)
	}
	return batches
}
