// Package export renders enriched organization profiles as TSV or XLSX
// for dropping into handoff sheets.
package export

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/sourcing-cli/internal/model"
)

const (
	// MaxRows caps one export. The request limit is clamped to [1, MaxRows].
	MaxRows = 2000

	defaultLimit = 200
)

// Columns is the fixed export header.
var Columns = []string{
	"LegalName", "City", "Country", "Website",
	"ProductsServices", "RecentNewsLinks",
	"PeersKnown", "PeersSuggested",
	"CapabilityAlignment", "GTMAlignment", "EnrichedAt",
}

// ClampLimit normalizes a requested row limit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > MaxRows {
		return MaxRows
	}
	return limit
}

// Row flattens one profile into the export column order.
func Row(org *model.OrganizationProfile) []string {
	var newsLinks []string
	for _, n := range org.RecentNews {
		newsLinks = append(newsLinks, n.URL)
	}

	var peersKnown, peersSuggested []string
	if org.Peers != nil {
		for _, p := range org.Peers.KnownInStore {
			peersKnown = append(peersKnown, p.Name)
		}
		peersSuggested = org.Peers.Suggested
	}

	enrichedAt := ""
	if org.EnrichedAt != nil {
		enrichedAt = org.EnrichedAt.UTC().Format("2006-01-02 15:04:05")
	}

	return []string{
		org.Name,
		org.City,
		org.Country,
		org.WebsiteURL,
		org.ProductsServices,
		strings.Join(newsLinks, "; "),
		strings.Join(peersKnown, "; "),
		strings.Join(peersSuggested, "; "),
		org.CapabilityAlignment,
		org.GTMAlignment,
		enrichedAt,
	}
}

// sanitizeCell strips the characters that break one-row-per-record TSV:
// tabs and newlines become single spaces.
func sanitizeCell(s string) string {
	s = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}

// WriteTSV writes profiles as tab-separated values with a header row.
func WriteTSV(w io.Writer, orgs []model.OrganizationProfile) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write tsv header")
	}
	for i := range orgs {
		row := Row(&orgs[i])
		for j, cell := range row {
			row[j] = sanitizeCell(cell)
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrapf(err, "export: write tsv row for %s", orgs[i].Name)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush tsv")
}

// WriteXLSX writes profiles as a single-sheet workbook.
func WriteXLSX(w io.Writer, orgs []model.OrganizationProfile) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Organizations")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().Value = col
	}
	for i := range orgs {
		row := sheet.AddRow()
		for _, cell := range Row(&orgs[i]) {
			row.AddCell().Value = cell
		}
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}
