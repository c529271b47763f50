// Package warehouse appends RSEM quantification rows to the analytics
// warehouse: Parquet part files on S3 under Glue tables, partitions
// registered through Athena.
package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"

	"rnaseq/internal/rsem"
)

type GlueClient interface {
	GetTable(ctx context.Context, params *glue.GetTableInput, optFns ...func(*glue.Options)) (*glue.GetTableOutput, error)
}

type Column struct {
	Name string
	Type string
}

// TableSchema is the destination table as Glue sees it.
type TableSchema struct {
	Database   string
	Table      string
	Location   string
	Columns    []Column
	Partitions []Column
}

const decimalType = "decimal(18,6)"

// ExpectedColumns is the column set a destination table must declare for the
// given results type. sample_id is the partition key and is not listed here.
func ExpectedColumns(t rsem.ResultsType) []Column {
	switch t {
	case rsem.Gene:
		return []Column{
			{Name: "gene_id", Type: "string"},
			{Name: "transcript_ids", Type: "string"},
			{Name: "length", Type: decimalType},
			{Name: "effective_length", Type: decimalType},
			{Name: "expected_count", Type: decimalType},
			{Name: "tpm", Type: decimalType},
			{Name: "fpkm", Type: decimalType},
		}
	case rsem.Isoform:
		return []Column{
			{Name: "transcript_id", Type: "string"},
			{Name: "gene_id", Type: "string"},
			{Name: "length", Type: decimalType},
			{Name: "effective_length", Type: decimalType},
			{Name: "expected_count", Type: decimalType},
			{Name: "tpm", Type: decimalType},
			{Name: "fpkm", Type: decimalType},
			{Name: "isopct", Type: decimalType},
		}
	default:
		return nil
	}
}

func LoadTableSchema(ctx context.Context, c GlueClient, database, table string) (*TableSchema, error) {
	out, err := c.GetTable(ctx, &glue.GetTableInput{
		DatabaseName: aws.String(database),
		Name:         aws.String(table),
	})
	if err != nil {
		return nil, fmt.Errorf("glue GetTable %s.%s: %w", database, table, err)
	}

	ti := out.Table
	sd := ti.StorageDescriptor

	schema := &TableSchema{
		Database: database,
		Table:    aws.ToString(ti.Name),
	}
	if sd != nil {
		schema.Location = aws.ToString(sd.Location)
		for _, col := range sd.Columns {
			schema.Columns = append(schema.Columns, Column{
				Name: aws.ToString(col.Name),
				Type: aws.ToString(col.Type),
			})
		}
	}
	for _, p := range ti.PartitionKeys {
		schema.Partitions = append(schema.Partitions, Column{
			Name: aws.ToString(p.Name),
			Type: aws.ToString(p.Type),
		})
	}

	return schema, nil
}

// VerifySchema checks the destination table declares exactly the expected
// columns (order and type, case-insensitive) and is partitioned by
// sample_id. Failing fast here beats appending rows a mismatched table will
// misread.
func VerifySchema(schema *TableSchema, want []Column) error {
	if len(schema.Columns) != len(want) {
		return fmt.Errorf("table %s.%s has %d columns, want %d",
			schema.Database, schema.Table, len(schema.Columns), len(want))
	}
	for i, w := range want {
		got := schema.Columns[i]
		if !strings.EqualFold(got.Name, w.Name) || !strings.EqualFold(got.Type, w.Type) {
			return fmt.Errorf("table %s.%s column %d is %s %s, want %s %s",
				schema.Database, schema.Table, i, got.Name, got.Type, w.Name, w.Type)
		}
	}

	if len(schema.Partitions) != 1 || !strings.EqualFold(schema.Partitions[0].Name, "sample_id") {
		return fmt.Errorf("table %s.%s must be partitioned by sample_id", schema.Database, schema.Table)
	}
	return nil
}
