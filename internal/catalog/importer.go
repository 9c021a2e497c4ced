package catalog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/saintfish/chardet"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// expected header of a catalog CSV export.
var csvHeader = []string{"code", "name", "description", "price", "tax_percent"}

// ImportCSV parses a catalog CSV and inserts all entries in one batch.
// Validation is all-or-nothing: a single bad row aborts the import and
// nothing is written.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) ([]*Entry, error) {
	utf8r, err := toUTF8(r)
	if err != nil {
		return nil, fmt.Errorf("detecting encoding: %w", err)
	}

	cr := csv.NewReader(utf8r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var entries []*Entry

	for rowNum := 2; ; rowNum++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		params, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		entries = append(entries, &Entry{
			ID:             uuid.New(),
			Code:           params.Code,
			Name:           params.Name,
			Description:    params.Description,
			Price:          params.Price,
			TaxRatePercent: params.TaxRatePercent,
			Active:         true,
		})
	}

	if len(entries) == 0 {
		return nil, nil
	}

	if err := s.repo.CreateEntries(ctx, entries); err != nil {
		return nil, fmt.Errorf("saving entries: %w", err)
	}

	return entries, nil
}

func checkHeader(header []string) error {
	if len(header) != len(csvHeader) {
		return fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(header))
	}

	for i, want := range csvHeader {
		got := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\uFEFF")))
		if got != want {
			return fmt.Errorf("expected column %q, got %q", want, header[i])
		}
	}

	return nil
}

func parseRow(record []string) (CreateParams, error) {
	if len(record) != len(csvHeader) {
		return CreateParams{}, fmt.Errorf("expected %d fields, got %d", len(csvHeader), len(record))
	}

	price, err := parseAmount(record[3])
	if err != nil {
		return CreateParams{}, fmt.Errorf("price %q: %w", record[3], err)
	}

	taxRate, err := parseAmount(record[4])
	if err != nil {
		return CreateParams{}, fmt.Errorf("tax_percent %q: %w", record[4], err)
	}

	params := CreateParams{
		Code:           strings.TrimSpace(record[0]),
		Name:           strings.TrimSpace(record[1]),
		Description:    strings.TrimSpace(record[2]),
		Price:          price,
		TaxRatePercent: taxRate,
	}

	return params, params.validate()
}

// parseAmount accepts both 1234.56 and the Spanish 1234,56 form.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}

	return decimal.NewFromString(s)
}

// toUTF8 wraps r so its content reads as UTF-8. Catalog exports from the
// old back office arrive as Windows-1252 more often than not, so after the
// BOM and UTF-8 checks fail we fall through chardet to a Latin fallback.
func toUTF8(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	buf, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}

	if bytes.HasPrefix(buf, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
		return br, nil
	}

	if utf8.Valid(buf) {
		return br, nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		switch result.Charset {
		case "UTF-8":
			return br, nil
		case "ISO-8859-15":
			return transform.NewReader(br, charmap.ISO8859_15.NewDecoder()), nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}
