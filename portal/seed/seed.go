package seed

import (
	"fmt"
	"log/slog"
	"os"

	"agriportal/portal/schema"
	"agriportal/portal/store"

	"gopkg.in/yaml.v3"
)

// Catalog is a declarative crop/scheme bootstrap, typically checked in next
// to the deployment config and applied with the -seed flag.
type Catalog struct {
	Crops   []CropSeed   `yaml:"crops"`
	Schemes []SchemeSeed `yaml:"schemes"`
}

type CropSeed struct {
	Name        string   `yaml:"name"`
	Season      string   `yaml:"season"`
	Region      string   `yaml:"region"`
	Description string   `yaml:"description"`
	Pesticides  []string `yaml:"pesticides"`
	Fertilizers []string `yaml:"fertilizers"`
}

type SchemeSeed struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Eligibility string `yaml:"eligibility"`
	Benefits    string `yaml:"benefits"`
	Deadline    string `yaml:"deadline"`
	Status      string `yaml:"status"`
}

func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("error reading seed catalog '%v': %w", path, err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("error parsing seed catalog '%v': %w", path, err)
	}
	return catalog, nil
}

// Apply creates the catalog's crops and schemes, skipping entries whose
// name/title already exists so re-running the seed is harmless.
func Apply(catalog Catalog, gateway *store.Gateway) error {
	existingCrops, err := gateway.ListCrops()
	if err != nil {
		return fmt.Errorf("error listing existing crops: %w", err)
	}
	cropNames := make(map[string]struct{}, len(existingCrops))
	for _, crop := range existingCrops {
		cropNames[crop.Name] = struct{}{}
	}

	for _, crop := range catalog.Crops {
		if _, ok := cropNames[crop.Name]; ok {
			slog.Info("seed: crop already exists, skipping", "name", crop.Name)
			continue
		}
		_, err := gateway.CreateCrop(schema.Crop{
			Name:        crop.Name,
			Season:      crop.Season,
			Region:      crop.Region,
			Description: crop.Description,
		}, crop.Pesticides, crop.Fertilizers)
		if err != nil {
			return fmt.Errorf("error seeding crop '%v': %w", crop.Name, err)
		}
		slog.Info("seed: created crop", "name", crop.Name)
	}

	existingSchemes, err := gateway.ListSchemes()
	if err != nil {
		return fmt.Errorf("error listing existing schemes: %w", err)
	}
	schemeTitles := make(map[string]struct{}, len(existingSchemes))
	for _, scheme := range existingSchemes {
		schemeTitles[scheme.Title] = struct{}{}
	}

	for _, scheme := range catalog.Schemes {
		if _, ok := schemeTitles[scheme.Title]; ok {
			slog.Info("seed: scheme already exists, skipping", "title", scheme.Title)
			continue
		}
		_, err := gateway.CreateScheme(schema.Scheme{
			Title:       scheme.Title,
			Description: scheme.Description,
			Eligibility: scheme.Eligibility,
			Benefits:    scheme.Benefits,
			Status:      scheme.Status,
		}, scheme.Deadline)
		if err != nil {
			return fmt.Errorf("error seeding scheme '%v': %w", scheme.Title, err)
		}
		slog.Info("seed: created scheme", "title", scheme.Title)
	}

	return nil
}
