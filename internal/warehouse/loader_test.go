package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rnaseq/internal/config"
	"rnaseq/internal/rsem"
)

type fakeGlue struct {
	table *glue.GetTableOutput
	err   error
}

func (f *fakeGlue) GetTable(context.Context, *glue.GetTableInput, ...func(*glue.Options)) (*glue.GetTableOutput, error) {
	return f.table, f.err
}

type fakeAthena struct {
	states []athenatypes.QueryExecutionState
	reason string
	polls  int
}

func (f *fakeAthena) StartQueryExecution(context.Context, *athena.StartQueryExecutionInput, ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error) {
	return &athena.StartQueryExecutionOutput{QueryExecutionId: aws.String("qid-123")}, nil
}

func (f *fakeAthena) GetQueryExecution(context.Context, *athena.GetQueryExecutionInput, ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error) {
	state := f.states[f.polls]
	if f.polls < len(f.states)-1 {
		f.polls++
	}
	return &athena.GetQueryExecutionOutput{
		QueryExecution: &athenatypes.QueryExecution{
			Status: &athenatypes.QueryExecutionStatus{
				State:             state,
				StateChangeReason: aws.String(f.reason),
			},
		},
	}, nil
}

type fakeS3 struct {
	bucket string
	key    string
	size   int
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	buf := make([]byte, 1)
	for {
		n, err := in.Body.Read(buf)
		f.size += n
		if err != nil {
			break
		}
	}
	return &s3.PutObjectOutput{}, nil
}

type fakeAudit struct {
	puts      int
	duplicate bool
}

func (f *fakeAudit) PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts++
	if f.duplicate {
		return nil, &ddbtypes.ConditionalCheckFailedException{Message: aws.String("exists")}
	}
	return &dynamodb.PutItemOutput{}, nil
}

type fakeSNS struct {
	published []string
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.published = append(f.published, aws.ToString(in.Message))
	return &sns.PublishOutput{}, nil
}

func geneGlueTable(location string) *glue.GetTableOutput {
	want := ExpectedColumns(rsem.Gene)
	cols := make([]gluetypes.Column, 0, len(want))
	for _, c := range want {
		cols = append(cols, gluetypes.Column{Name: aws.String(c.Name), Type: aws.String(c.Type)})
	}
	return &glue.GetTableOutput{
		Table: &gluetypes.Table{
			Name: aws.String("rsem_genes"),
			StorageDescriptor: &gluetypes.StorageDescriptor{
				Location: aws.String(location),
				Columns:  cols,
			},
			PartitionKeys: []gluetypes.Column{
				{Name: aws.String("sample_id"), Type: aws.String("string")},
			},
		},
	}
}

func loaderCfg() *config.Loader {
	return &config.Loader{
		AnalyticsBucket: "analytics",
		RSEMPrefix:      "rsem/",
		AthenaWorkgroup: "primary",
		AthenaOutput:    "s3://analytics/athena-results/",
		AuditTable:      "rsem-loads",
	}
}

func geneRows() []rsem.GeneRow {
	return []rsem.GeneRow{{
		SampleID:        "SAMPLE-01",
		GeneID:          "ENSG00000000003",
		TranscriptIDs:   "ENST00000373020",
		Length:          2206000000,
		EffectiveLength: 2056960000,
		ExpectedCount:   1234000000,
		TPM:             12340000,
		FPKM:            9870000,
	}}
}

func TestLoadGene(t *testing.T) {
	s3c := &fakeS3{}
	audit := &fakeAudit{}
	ath := &fakeAthena{states: []athenatypes.QueryExecutionState{
		athenatypes.QueryExecutionStateRunning,
		athenatypes.QueryExecutionStateSucceeded,
	}}
	l := NewLoader(s3c, &fakeGlue{table: geneGlueTable("s3://warehouse/rsem/genes")}, ath, audit, loaderCfg(), nil)

	res, err := l.LoadGene(context.Background(), LoadRequest{
		Type:     rsem.Gene,
		Database: "transcriptomics",
		Table:    "rsem_genes",
		SampleID: "SAMPLE-01",
		Digest:   "abc123",
	}, geneRows())
	require.NoError(t, err)

	assert.Equal(t, "SUCCEEDED", res.State)
	assert.Equal(t, "qid-123", res.QueryID)
	assert.Equal(t, 1, res.Rows)
	assert.NotEmpty(t, res.LoadID)

	assert.Equal(t, "warehouse", s3c.bucket)
	assert.Equal(t, "rsem/genes/sample_id=SAMPLE-01/part-"+res.LoadID+".parquet", s3c.key)
	assert.Greater(t, s3c.size, 0)
	assert.Equal(t, 1, audit.puts)
}

func TestLoadGeneDuplicate(t *testing.T) {
	s3c := &fakeS3{}
	l := NewLoader(s3c, &fakeGlue{table: geneGlueTable("s3://warehouse/rsem/genes")},
		&fakeAthena{states: []athenatypes.QueryExecutionState{athenatypes.QueryExecutionStateSucceeded}},
		&fakeAudit{duplicate: true}, loaderCfg(), nil)

	res, err := l.LoadGene(context.Background(), LoadRequest{
		Type:     rsem.Gene,
		Database: "transcriptomics",
		Table:    "rsem_genes",
		SampleID: "SAMPLE-01",
	}, geneRows())

	require.Error(t, err)
	var dup *ErrDuplicateLoad
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "SAMPLE-01", dup.SampleID)
	assert.Equal(t, "DUPLICATE", res.State)
	assert.Empty(t, s3c.key, "duplicate load must not write to S3")
}

func TestLoadGeneSchemaMismatch(t *testing.T) {
	table := geneGlueTable("s3://warehouse/rsem/genes")
	table.Table.StorageDescriptor.Columns[2].Type = aws.String("double")

	l := NewLoader(&fakeS3{}, &fakeGlue{table: table},
		&fakeAthena{states: []athenatypes.QueryExecutionState{athenatypes.QueryExecutionStateSucceeded}},
		&fakeAudit{}, loaderCfg(), nil)

	_, err := l.LoadGene(context.Background(), LoadRequest{
		Type: rsem.Gene, Database: "transcriptomics", Table: "rsem_genes", SampleID: "S",
	}, geneRows())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length")
}

func TestLoadGeneEmptyRows(t *testing.T) {
	l := NewLoader(&fakeS3{}, &fakeGlue{table: geneGlueTable("")},
		&fakeAthena{states: []athenatypes.QueryExecutionState{athenatypes.QueryExecutionStateSucceeded}},
		&fakeAudit{}, loaderCfg(), nil)

	_, err := l.LoadGene(context.Background(), LoadRequest{
		Type: rsem.Gene, Database: "db", Table: "t", SampleID: "S",
	}, nil)
	assert.Error(t, err)
}

func TestRepairPartitionsFailure(t *testing.T) {
	ath := &fakeAthena{
		states: []athenatypes.QueryExecutionState{athenatypes.QueryExecutionStateFailed},
		reason: "table not found",
	}

	qid, state, err := RepairPartitions(context.Background(), ath, "db", "missing", RepairOptions{
		OutputLocation: "s3://out/",
		PollInterval:   time.Millisecond,
	})
	assert.Equal(t, "qid-123", qid)
	assert.Equal(t, "FAILED", state)

	var aerr *AthenaError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "table not found", aerr.Reason)
}

func TestVerifySchemaPartitionRequired(t *testing.T) {
	schema := &TableSchema{
		Database: "db",
		Table:    "t",
		Columns:  ExpectedColumns(rsem.Isoform),
	}
	err := VerifySchema(schema, ExpectedColumns(rsem.Isoform))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample_id")
}

func TestClaimLoadDisabled(t *testing.T) {
	dup, err := ClaimLoad(context.Background(), &fakeAudit{duplicate: true}, "", LoadRecord{})
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestNotifyLoadFailure(t *testing.T) {
	snsc := &fakeSNS{}
	err := NotifyLoadFailure(context.Background(), snsc, "arn:aws:sns:us-east-1:1:loads", "load-1", "db.t", assert.AnError)
	require.NoError(t, err)
	require.Len(t, snsc.published, 1)
	assert.Contains(t, snsc.published[0], "load-1")

	// no topic configured -> no publish
	require.NoError(t, NotifyLoadFailure(context.Background(), snsc, "", "load-2", "db.t", assert.AnError))
	assert.Len(t, snsc.published, 1)
}

func TestSplitS3URI(t *testing.T) {
	bucket, prefix, err := splitS3URI("s3://warehouse/rsem/genes")
	require.NoError(t, err)
	assert.Equal(t, "warehouse", bucket)
	assert.Equal(t, "rsem/genes/", prefix)

	_, _, err = splitS3URI("http://example.com/x")
	assert.Error(t, err)
}
