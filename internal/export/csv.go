package export

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/opencivic/event-siting/internal/model"
)

// WriteSitesCSV writes the ranked sites as a flat CSV companion to the
// GeoJSON output. indicatorOrder fixes the column order so output is stable
// across runs; it should be the configured indicator sequence.
func WriteSitesCSV(path string, sites []model.ScoredSite, indicatorOrder []string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"rank", "id", "name", "category", "lon", "lat", "tract_geoid", "event_score"}
	for _, name := range indicatorOrder {
		header = append(header, name, name+"_normalized")
	}
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "export: write CSV header")
	}

	for i := range sites {
		s := &sites[i]
		record := []string{
			strconv.Itoa(s.Rank),
			s.POI.ID,
			s.POI.Name,
			s.POI.Category,
			formatFloat(s.POI.Lon),
			formatFloat(s.POI.Lat),
			s.TractGEOID,
			formatFloat(s.Score),
		}
		byName := make(map[string]model.Contribution, len(s.Contributions))
		for _, c := range s.Contributions {
			byName[c.Indicator] = c
		}
		for _, name := range indicatorOrder {
			c, ok := byName[name]
			if !ok || c.Missing {
				record = append(record, "", "")
				if ok && c.Missing && c.Weight > 0 {
					// midpoint-substituted value still shows up normalized
					record[len(record)-1] = formatFloat(c.Normalized)
				}
				continue
			}
			record = append(record, formatFloat(c.Raw), formatFloat(c.Normalized))
		}
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "export: write CSV row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush CSV")
	}
	return writeAtomic(path, buf.Bytes())
}

// WriteUnmatchedCSV lists every POI excluded from the ranked output with
// the exclusion reason.
func WriteUnmatchedCSV(path string, unmatched []model.UnmatchedPOI) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"id", "name", "category", "lon", "lat", "reason"}); err != nil {
		return eris.Wrap(err, "export: write unmatched header")
	}
	for _, u := range unmatched {
		record := []string{
			u.POI.ID,
			u.POI.Name,
			u.POI.Category,
			formatFloat(u.POI.Lon),
			formatFloat(u.POI.Lat),
			u.Reason,
		}
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "export: write unmatched row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush unmatched CSV")
	}
	return writeAtomic(path, buf.Bytes())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
