package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/zap"

	"rnaseq/internal/config"
	"rnaseq/internal/rsem"
)

// Loader appends RSEM rows to a warehouse table: schema check, audit claim,
// Parquet part on S3, Athena partition repair.
type Loader struct {
	s3     S3Client
	glue   GlueClient
	athena AthenaClient
	audit  AuditClient
	cfg    *config.Loader
	log    *zap.Logger
}

func NewLoader(s3c S3Client, gluec GlueClient, athenac AthenaClient, auditc AuditClient, cfg *config.Loader, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{s3: s3c, glue: gluec, athena: athenac, audit: auditc, cfg: cfg, log: logger}
}

type LoadRequest struct {
	Type     rsem.ResultsType
	Database string
	Table    string
	SampleID string
	Digest   string // sha256 of the results file
}

type LoadResult struct {
	LoadID  string
	State   string
	Rows    int
	Bucket  string
	Key     string
	QueryID string
}

// ErrDuplicateLoad reports an already-claimed (table, sample) pair.
type ErrDuplicateLoad struct {
	Database string
	Table    string
	SampleID string
}

func (e *ErrDuplicateLoad) Error() string {
	return fmt.Sprintf("sample %s already loaded into %s.%s", e.SampleID, e.Database, e.Table)
}

func (l *Loader) LoadGene(ctx context.Context, req LoadRequest, rows []rsem.GeneRow) (*LoadResult, error) {
	return l.load(ctx, req, len(rows), new(rsem.GeneRow), func(pw *writer.ParquetWriter) error {
		for _, r := range rows {
			if err := pw.Write(r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *Loader) LoadIsoform(ctx context.Context, req LoadRequest, rows []rsem.IsoformRow) (*LoadResult, error) {
	return l.load(ctx, req, len(rows), new(rsem.IsoformRow), func(pw *writer.ParquetWriter) error {
		for _, r := range rows {
			if err := pw.Write(r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *Loader) load(ctx context.Context, req LoadRequest, rowCount int, schemaSample any, writeRows func(pw *writer.ParquetWriter) error) (*LoadResult, error) {
	res := &LoadResult{LoadID: uuid.NewString(), Rows: rowCount, State: "FAILED"}

	if rowCount == 0 {
		return res, fmt.Errorf("results file has no data rows")
	}

	schema, err := LoadTableSchema(ctx, l.glue, req.Database, req.Table)
	if err != nil {
		return res, err
	}
	if err := VerifySchema(schema, ExpectedColumns(req.Type)); err != nil {
		return res, err
	}
	l.log.Debug("destination schema verified",
		zap.String("table", req.Database+"."+req.Table),
		zap.String("location", schema.Location))

	dup, err := ClaimLoad(ctx, l.audit, l.cfg.AuditTable, LoadRecord{
		LoadID:      res.LoadID,
		Database:    req.Database,
		Table:       req.Table,
		SampleID:    req.SampleID,
		ResultsType: string(req.Type),
		Digest:      req.Digest,
		Rows:        rowCount,
	})
	if err != nil {
		return res, err
	}
	if dup {
		res.State = "DUPLICATE"
		return res, &ErrDuplicateLoad{Database: req.Database, Table: req.Table, SampleID: req.SampleID}
	}

	bucket, prefix, err := l.partLocation(schema, req.Type)
	if err != nil {
		return res, err
	}
	res.Bucket = bucket
	res.Key = fmt.Sprintf("%ssample_id=%s/part-%s.parquet", prefix, req.SampleID, res.LoadID)

	data, err := writeParquet(schemaSample, writeRows)
	if err != nil {
		return res, err
	}
	if err := putParquet(ctx, l.s3, res.Bucket, res.Key, data); err != nil {
		return res, err
	}
	l.log.Debug("part file written",
		zap.String("bucket", res.Bucket),
		zap.String("key", res.Key),
		zap.Int("rows", rowCount),
		zap.Int("bytes", len(data)))

	qid, state, err := RepairPartitions(ctx, l.athena, req.Database, req.Table, RepairOptions{
		Workgroup:      l.cfg.AthenaWorkgroup,
		OutputLocation: l.cfg.AthenaOutput,
	})
	res.QueryID = qid
	if state != "" {
		res.State = state
	}
	if err != nil {
		return res, err
	}

	return res, nil
}

// partLocation picks where part files go: the Glue table's own location when
// it has one, the configured analytics bucket otherwise.
func (l *Loader) partLocation(schema *TableSchema, t rsem.ResultsType) (bucket, prefix string, err error) {
	if schema.Location != "" {
		return splitS3URI(schema.Location)
	}
	prefix = l.cfg.RSEMPrefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return l.cfg.AnalyticsBucket, fmt.Sprintf("%s%s/", prefix, t), nil
}

func splitS3URI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("table location %q is not an s3 URI", uri)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("table location %q has no bucket", uri)
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return bucket, prefix, nil
}
