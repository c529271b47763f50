package rsem

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

var geneColumns = []string{"gene_id", "transcript_id(s)", "length", "effective_length", "expected_count", "TPM", "FPKM"}

var isoformColumns = []string{"transcript_id", "gene_id", "length", "effective_length", "expected_count", "TPM", "FPKM", "IsoPct"}

// ReadGeneResults parses a tab-separated *.genes.results stream and tags
// every row with sampleID.
func ReadGeneResults(r io.Reader, sampleID string) ([]GeneRow, error) {
	records, idx, err := readTable(r, geneColumns)
	if err != nil {
		return nil, err
	}

	rows := make([]GeneRow, 0, len(records))
	for i, rec := range records {
		line := i + 2 // 1-based, after the header
		row := GeneRow{
			SampleID:      sampleID,
			GeneID:        rec[idx["gene_id"]],
			TranscriptIDs: rec[idx["transcript_id(s)"]],
		}
		if row.Length, err = scaledDecimal(rec[idx["length"]], "length", line); err != nil {
			return nil, err
		}
		if row.EffectiveLength, err = scaledDecimal(rec[idx["effective_length"]], "effective_length", line); err != nil {
			return nil, err
		}
		if row.ExpectedCount, err = scaledDecimal(rec[idx["expected_count"]], "expected_count", line); err != nil {
			return nil, err
		}
		if row.TPM, err = scaledDecimal(rec[idx["TPM"]], "TPM", line); err != nil {
			return nil, err
		}
		if row.FPKM, err = scaledDecimal(rec[idx["FPKM"]], "FPKM", line); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadIsoformResults parses a tab-separated *.isoforms.results stream and
// tags every row with sampleID.
func ReadIsoformResults(r io.Reader, sampleID string) ([]IsoformRow, error) {
	records, idx, err := readTable(r, isoformColumns)
	if err != nil {
		return nil, err
	}

	rows := make([]IsoformRow, 0, len(records))
	for i, rec := range records {
		line := i + 2
		row := IsoformRow{
			SampleID:     sampleID,
			TranscriptID: rec[idx["transcript_id"]],
			GeneID:       rec[idx["gene_id"]],
		}
		if row.Length, err = scaledDecimal(rec[idx["length"]], "length", line); err != nil {
			return nil, err
		}
		if row.EffectiveLength, err = scaledDecimal(rec[idx["effective_length"]], "effective_length", line); err != nil {
			return nil, err
		}
		if row.ExpectedCount, err = scaledDecimal(rec[idx["expected_count"]], "expected_count", line); err != nil {
			return nil, err
		}
		if row.TPM, err = scaledDecimal(rec[idx["TPM"]], "TPM", line); err != nil {
			return nil, err
		}
		if row.FPKM, err = scaledDecimal(rec[idx["FPKM"]], "FPKM", line); err != nil {
			return nil, err
		}
		if row.IsoPct, err = scaledDecimal(rec[idx["IsoPct"]], "IsoPct", line); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readTable reads the header and all data records, returning an index from
// column name to position. Every required column must be present.
func readTable(r io.Reader, required []string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, nil, fmt.Errorf("results file is missing column %q", name)
		}
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read record: %w", err)
		}
		if len(rec) < len(header) {
			return nil, nil, fmt.Errorf("record has %d fields, header has %d", len(rec), len(header))
		}
		records = append(records, rec)
	}
	return records, idx, nil
}

// scaledDecimal parses an exact decimal value and scales it to the warehouse
// decimal(18,6) representation. Digits past the sixth decimal place are
// rounded.
func scaledDecimal(s, column string, line int) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("line %d: column %s: invalid decimal %q", line, column, s)
	}
	scaled := d.Shift(DecimalScale).Round(0)
	bi := scaled.BigInt()
	if !bi.IsInt64() {
		return 0, fmt.Errorf("line %d: column %s: value %s out of decimal(%d,%d) range",
			line, column, s, DecimalPrecision, DecimalScale)
	}
	return bi.Int64(), nil
}
