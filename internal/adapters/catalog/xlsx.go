package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/tryon/internal/domain"
)

// Columns recognised in the header row of an import sheet. Unknown columns
// are ignored; id, name and category are required.
var xlsxColumns = []string{"id", "name", "category", "image", "overlay", "model", "brand", "price", "description"}

type ImportReport struct {
	Created   int
	Updated   int
	Skipped   int
	Errors    []string
	Timestamp time.Time
}

// ImportXLSXFile reads path and upserts every valid row into sink.
func ImportXLSXFile(ctx context.Context, sink Sink, path string) (*ImportReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ImportXLSX(ctx, sink, data)
}

func ImportXLSX(ctx context.Context, sink Sink, data []byte) (*ImportReport, error) {
	items, rep, err := ParseXLSX(data)
	if err != nil {
		return nil, err
	}
	created, err := sink.Upsert(ctx, items...)
	if err != nil {
		return nil, fmt.Errorf("store imported items: %w", err)
	}
	rep.Created = created
	rep.Updated = len(items) - created
	log.Info().Int("created", rep.Created).Int("updated", rep.Updated).Int("skipped", rep.Skipped).Msg("catalog import")
	return rep, nil
}

// ParseXLSX reads every sheet of the workbook. Each sheet needs a header row.
func ParseXLSX(data []byte) ([]domain.ClothingItem, *ImportReport, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	rep := &ImportReport{Timestamp: time.Now()}
	var items []domain.ClothingItem
	for _, sh := range f.GetSheetList() {
		rows, err := f.GetRows(sh)
		if err != nil || len(rows) == 0 {
			continue
		}
		idx := headerIndex(rows[0])
		if _, ok := idx["id"]; !ok {
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: missing id column", sh))
			continue
		}
		for n, row := range rows[1:] {
			cell := func(col string) string {
				i, ok := idx[col]
				if !ok || i >= len(row) {
					return ""
				}
				return strings.TrimSpace(row[i])
			}
			id := cell("id")
			if id == "" {
				continue
			}
			cat, known := domain.ParseCategory(cell("category"))
			if cell("name") == "" || !known {
				rep.Skipped++
				rep.Errors = append(rep.Errors, fmt.Sprintf("%s row %d: invalid name or category", sh, n+2))
				log.Debug().Str("sheet", sh).Str("id", id).Str("category", cell("category")).Msg("catalog row skipped")
				continue
			}
			items = append(items, domain.ClothingItem{
				ID:          domain.ItemID(id),
				Name:        cell("name"),
				Category:    cat,
				ImageURL:    cell("image"),
				OverlayURL:  cell("overlay"),
				ModelURL:    cell("model"),
				Brand:       cell("brand"),
				Price:       cell("price"),
				Description: cell("description"),
			})
		}
	}
	return items, rep, nil
}

func headerIndex(header []string) map[string]int {
	idx := map[string]int{}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, c := range xlsxColumns {
			if h == c {
				idx[c] = i
			}
		}
	}
	return idx
}
