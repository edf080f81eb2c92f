package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/tryon/internal/domain"
)

func TestSeed(t *testing.T) {
	r, err := NewSeeded()
	require.NoError(t, err)

	all, err := r.List(context.Background(), domain.CatalogFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 11)
	assert.Equal(t, domain.ItemID("1"), all[0].ID)

	jacket, err := r.FindByID(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryOuter, jacket.Category)
	assert.Equal(t, "/images/overlays/black-leather-jacket-overlay.png", jacket.OverlayURL)
	require.NotNil(t, jacket.TextureMaps)

	dress, err := r.FindByID(context.Background(), "4")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryFull, dress.Category)

	full, err := r.List(context.Background(), domain.CatalogFilter{Category: domain.CategoryFull})
	require.NoError(t, err)
	assert.Len(t, full, 2)

	_, err = r.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParseYAML_MissingID(t *testing.T) {
	_, err := ParseYAML([]byte("items:\n  - name: x\n    category: tops\n"))
	assert.Error(t, err)
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImportXLSX(t *testing.T) {
	r, err := NewSeeded()
	require.NoError(t, err)

	data := workbook(t, [][]any{
		{"ID", "Name", "Category", "Overlay", "Price"},
		{"1", "Lacivert T-Shirt", "tops", "/images/overlays/navy.png", "219,90 TL"},
		{"7", "Kot Ceket", "Outerwear", "", "749,90 TL"},
		{"8", "Şapka", "hats", "", ""},
		{"", "", "", "", ""},
	})
	rep, err := ImportXLSX(context.Background(), r, data)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Created)
	assert.Equal(t, 1, rep.Updated)
	assert.Equal(t, 1, rep.Skipped)

	one, err := r.FindByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Lacivert T-Shirt", one.Name)
	assert.Equal(t, "/images/overlays/navy.png", one.OverlayURL)

	seven, err := r.FindByID(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryOuter, seven.Category)
}

func TestImportXLSX_Garbage(t *testing.T) {
	_, err := ImportXLSX(context.Background(), NewRepo(), []byte("nope"))
	assert.Error(t, err)
}
