package seed

import (
	"os"
	"path/filepath"
	"testing"

	"agriportal/portal/schema"
	"agriportal/portal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testCatalog = `
crops:
  - name: Wheat
    season: Rabi
    region: Punjab
    description: winter staple
    pesticides: [Chlorpyrifos]
    fertilizers: [Urea, DAP]
schemes:
  - title: Crop Insurance
    description: insurance against crop loss
    eligibility: all farmers
    benefits: premium subsidy
    deadline: "2026-03-31"
`

func TestSeedCatalog(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&schema.Crop{}, &schema.CropInput{}, &schema.Scheme{},
	))

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0666))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog.Crops, 1)
	require.Len(t, catalog.Schemes, 1)

	gateway := store.NewGateway(db)
	require.NoError(t, Apply(catalog, gateway))

	crops, err := gateway.ListCrops()
	require.NoError(t, err)
	require.Len(t, crops, 1)
	assert.Equal(t, []string{"Urea", "DAP"}, crops[0].InputNames(schema.CropInputFertilizer))

	schemes, err := gateway.ListSchemes()
	require.NoError(t, err)
	require.Len(t, schemes, 1)
	assert.Equal(t, "active", schemes[0].Status)

	// Re-applying the catalog is a no-op.
	require.NoError(t, Apply(catalog, gateway))

	crops, err = gateway.ListCrops()
	require.NoError(t, err)
	assert.Len(t, crops, 1)
}
