package feeds

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

// Row is one price entry from a feed file.
type Row struct {
	Sku      string
	Url      string
	Price    tracklib.Price
	Currency string
}

// parseRows reads sku,url,price,currency records. A leading header row
// (first field "sku") is ignored. Rows with missing fields or unparsable
// prices are dropped and counted in skipped; a malformed file aborts.
func parseRows(r io.Reader) (rows []Row, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("read csv: %w", err)
		}
		if first && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "sku") {
			first = false
			continue
		}
		first = false

		if len(rec) < 3 {
			skipped++
			continue
		}
		url := strings.TrimSpace(rec[1])
		if url == "" {
			skipped++
			continue
		}
		price, err := tracklib.ParsePrice(rec[2])
		if err != nil {
			skipped++
			continue
		}
		row := Row{
			Sku:   strings.TrimSpace(rec[0]),
			Url:   url,
			Price: price,
		}
		if len(rec) > 3 {
			row.Currency = strings.ToUpper(strings.TrimSpace(rec[3]))
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}
