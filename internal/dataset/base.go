package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-legend/internal/legend"
)

// Description keys carried by met.no legends.
const (
	DescEN = "desc_en"
	DescNB = "desc_nb"
	DescNN = "desc_nn"
)

// LoadBase reads a base legend file, choosing the decoder by extension.
func LoadBase(path string) ([]legend.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read base legend: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return DecodeBaseJSON(data)
	case ".csv":
		return DecodeBaseCSV(bytes.NewReader(data))
	case ".yaml", ".yml":
		var rows []legend.Row
		if err := yaml.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", legend.ErrMalformedDataset, path, err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("unsupported base legend format %q", ext)
	}
}

// DecodeBaseJSON accepts either the met.no legends.json object keyed by symbol
// or a JSON array of rows.
func DecodeBaseJSON(data []byte) ([]legend.Row, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty base legend", legend.ErrMalformedDataset)
	}
	if data[0] == '[' {
		var rows []legend.Row
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("%w: %v", legend.ErrMalformedDataset, err)
		}
		return rows, nil
	}
	return decodeMetno(data)
}

// metnoEntry is one value of met.no legends.json, e.g.
//
//	"clearsky": {"desc_en": "Clear sky", "old_id": "1", "variants": ["day", "night", "polartwilight"]}
type metnoEntry struct {
	DescEN   string   `json:"desc_en"`
	DescNB   string   `json:"desc_nb"`
	DescNN   string   `json:"desc_nn"`
	OldID    flexInt  `json:"old_id"`
	Variants []string `json:"variants"`
}

// flexInt decodes a number given either as a JSON number or a string.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("old_id %s is not an integer", string(b))
	}
	*n = flexInt(v)
	return nil
}

// decodeMetno streams the object so rows keep file order.
func decodeMetno(data []byte) ([]legend.Row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("%w: expected an object of legends", legend.ErrMalformedDataset)
	}
	var rows []legend.Row
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", legend.ErrMalformedDataset, err)
		}
		symbol, _ := tok.(string)
		var e metnoEntry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("%w: legend %q: %v", legend.ErrMalformedDataset, symbol, err)
		}
		rows = append(rows, metnoRow(symbol, e))
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", legend.ErrMalformedDataset, err)
	}
	return rows, nil
}

// metnoRow maps a met.no entry to a row. Symbols with variants get the day
// icon as their legend code.
func metnoRow(symbol string, e metnoEntry) legend.Row {
	symbol = strings.TrimSpace(symbol)
	code := symbol
	for _, v := range e.Variants {
		if v == legend.VariantDay {
			code = symbol + "_" + legend.VariantDay
			break
		}
	}
	row := legend.Row{
		LegendCode: code,
		OldID:      int(e.OldID),
		SymbolID:   symbol,
		Variants:   e.Variants,
	}
	for k, v := range map[string]string{DescEN: e.DescEN, DescNB: e.DescNB, DescNN: e.DescNN} {
		if v = strings.TrimSpace(v); v != "" {
			if row.Descriptions == nil {
				row.Descriptions = make(map[string]string, 3)
			}
			row.Descriptions[k] = v
		}
	}
	return row
}

// csvColumns is the met.no legend.csv header.
var csvColumns = []string{"symbol", "english", "bokmal", "nynorsk", "old_id", "variants"}

// DecodeBaseCSV reads met.no legend.csv. The variants column is a count; any
// positive value means the symbol has day, night and polar twilight icons.
func DecodeBaseCSV(r io.Reader) ([]legend.Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = len(csvColumns)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: csv header: %v", legend.ErrMalformedDataset, err)
	}
	for i, col := range csvColumns {
		if strings.ToLower(strings.TrimSpace(header[i])) != col {
			return nil, fmt.Errorf("%w: csv column %d is %q, want %q", legend.ErrMalformedDataset, i+1, header[i], col)
		}
	}

	var rows []legend.Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", legend.ErrMalformedDataset, err)
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		var e metnoEntry
		e.DescEN, e.DescNB, e.DescNN = rec[1], rec[2], rec[3]
		if rec[4] != "" {
			id, err := strconv.Atoi(rec[4])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: old_id %q is not an integer", legend.ErrMalformedDataset, line, rec[4])
			}
			e.OldID = flexInt(id)
		}
		n, err := strconv.Atoi(rec[5])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: variants %q is not a count", legend.ErrMalformedDataset, line, rec[5])
		}
		if n > 0 {
			e.Variants = []string{legend.VariantDay, legend.VariantNight, legend.VariantPolarTwilight}
		}
		rows = append(rows, metnoRow(rec[0], e))
	}
	return rows, nil
}
