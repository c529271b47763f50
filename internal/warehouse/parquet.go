package warehouse

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
)

type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// writeParquet renders rows to a temp Parquet file and returns its bytes.
// schemaSample is a pointer to the row type (e.g. new(rsem.GeneRow));
// writeRows is called once with the open writer.
func writeParquet(schemaSample any, writeRows func(pw *writer.ParquetWriter) error) ([]byte, error) {
	localPath := filepath.Join(os.TempDir(), "rsem_"+uuid.NewString()+".parquet")
	defer func() { _ = os.Remove(localPath) }()

	fw, err := local.NewLocalFileWriter(localPath)
	if err != nil {
		return nil, fmt.Errorf("parquet file writer: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, schemaSample, 1)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("parquet writer: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.PageSize = 8 * 1024
	pw.CompressionType = 0 // no snappy

	if err := writeRows(pw); err != nil {
		_ = pw.WriteStop()
		_ = fw.Close()
		return nil, fmt.Errorf("parquet write rows: %w", err)
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("parquet write stop: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("parquet close: %w", err)
	}

	return os.ReadFile(localPath)
}

func putParquet(ctx context.Context, client S3Client, bucket, key string, data []byte) error {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		ACL:         s3types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("s3 putobject failed: %w", err)
	}
	return nil
}
