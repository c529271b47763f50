// Package rsem parses RSEM quantification result files (gene and isoform
// level) into rows ready for the analytics warehouse.
package rsem

import (
	"fmt"
	"strings"
)

type ResultsType string

const (
	Gene    ResultsType = "gene"
	Isoform ResultsType = "isoform"
)

// Decimal columns land in the warehouse as decimal(18,6); values are carried
// through Parquet as scaled INT64.
const (
	DecimalPrecision = 18
	DecimalScale     = 6
)

func ParseResultsType(s string) (ResultsType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gene":
		return Gene, nil
	case "isoform":
		return Isoform, nil
	default:
		return "", fmt.Errorf("unknown results type %q (want gene or isoform)", s)
	}
}

// GeneRow is one line of a *.genes.results file tagged with its sample.
// The RSEM column "transcript_id(s)" is renamed transcript_ids.
type GeneRow struct {
	SampleID        string `parquet:"name=sample_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	GeneID          string `parquet:"name=gene_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TranscriptIDs   string `parquet:"name=transcript_ids, type=BYTE_ARRAY, convertedtype=UTF8"`
	Length          int64  `parquet:"name=length, type=INT64, convertedtype=DECIMAL, scale=6, precision=18"`
	EffectiveLength int64  `parquet:"name=effective_length, type=INT64, convertedtype=DECIMAL, scale=6, precision=18"`
	ExpectedCount   int64  `parquet:"name=expected_count, type=INT64, convertedtype=DECIMAL, scale=6, precision=18"`
	TPM             int64  `parquet:"name=tpm, type=INT64, convertedtype=DECIMAL, scale=6, precision=18"`
	FPKM            int64  `parquet:"name=fpkm, type=INT64, convertedtype=DECIMAL, scale=6, precision=18"`
}

// IsoformRow is one line of a *.isoforms.results file tagged with its sample.
type IsoformRow struct {
	SampleID        string `parquet:"name=sample_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TranscriptID    string `parquet:"name=transcript_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	GeneID          string `parquet:"name=gene_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Length          int64  `parquet:"name=length, type=INT64, convertedtype=DECIMAL, scale=6, precision=18"`
	EffectiveLength int64  `parquet:"name=effective_length, type=INT64, convertedtype=DECIMAL, scale=6, precision=18"`
	ExpectedCount   int64  `parquet:"name=expected_count, type=INT64, convertedtype=DECIMAL, scale=6, precision=18"`
	TPM             int64  `parquet:"name=tpm, type=INT64, convertedtype=DECIMAL, scale=6, precision=18"`
	FPKM            int64  `parquet:"name=fpkm, type=INT64, convertedtype=DECIMAL, scale=6, precision=18"`
	IsoPct          int64  `parquet:"name=isopct, type=INT64, convertedtype=DECIMAL, scale=6, precision=18"`
}
