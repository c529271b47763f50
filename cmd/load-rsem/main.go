// load-rsem appends one sample's RSEM quantification results (gene or
// isoform level) to the analytics warehouse.
package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rnaseq/internal/config"
	"rnaseq/internal/db"
	"rnaseq/internal/rsem"
	"rnaseq/internal/warehouse"
)

var (
	flagResultsType string
	flagResultsPath string
	flagTable       string
	flagSampleID    string
	flagVerbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "load-rsem",
	Short: "Load RSEM quantification results into the analytics warehouse",
	Long: `Load a tab-separated RSEM results file into a warehouse table.

Rows are tagged with the sample ID, written as a Parquet part file under the
table's S3 location, and the sample_id partition is registered through
Athena. A DynamoDB audit entry prevents loading the same sample into the
same table twice.

Example:
  load-rsem --results-type gene --results-path SRR000001.genes.results \
            --table transcriptomics.rsem_genes --sample-id SRR000001`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&flagResultsType, "results-type", "", "type of results being loaded: gene or isoform")
	rootCmd.Flags().StringVar(&flagResultsPath, "results-path", "", "path of the RSEM results file")
	rootCmd.Flags().StringVar(&flagTable, "table", "", "destination table as database.table")
	rootCmd.Flags().StringVar(&flagSampleID, "sample-id", "", "sample ID the results belong to")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "verbose output")

	for _, f := range []string{"results-type", "results-path", "table", "sample-id"} {
		_ = rootCmd.MarkFlagRequired(f)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	logger := zap.NewNop()
	if flagVerbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}
	defer func() { _ = logger.Sync() }()

	resultsType, err := rsem.ParseResultsType(flagResultsType)
	if err != nil {
		return err
	}

	database, table, ok := strings.Cut(flagTable, ".")
	if !ok || database == "" || table == "" {
		return fmt.Errorf("--table must be database.table, got %q", flagTable)
	}

	cfg, err := config.LoadLoader()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(flagResultsPath)
	if err != nil {
		return fmt.Errorf("read results file: %w", err)
	}
	digest := sha256.Sum256(data)

	logger.Info("loading results",
		zap.String("results_path", flagResultsPath),
		zap.String("results_type", string(resultsType)),
		zap.String("table", flagTable),
		zap.String("sample_id", flagSampleID))

	clients, err := db.NewClients(ctx)
	if err != nil {
		return fmt.Errorf("init aws clients: %w", err)
	}

	loader := warehouse.NewLoader(clients.S3, clients.Glue, clients.Athena, clients.Dynamo, cfg, logger)
	req := warehouse.LoadRequest{
		Type:     resultsType,
		Database: database,
		Table:    table,
		SampleID: flagSampleID,
		Digest:   hex.EncodeToString(digest[:]),
	}

	var res *warehouse.LoadResult
	switch resultsType {
	case rsem.Gene:
		rows, rerr := rsem.ReadGeneResults(bytes.NewReader(data), flagSampleID)
		if rerr != nil {
			return rerr
		}
		logger.Info("parsed results", zap.Int("rows", len(rows)))
		res, err = loader.LoadGene(ctx, req, rows)
	case rsem.Isoform:
		rows, rerr := rsem.ReadIsoformResults(bytes.NewReader(data), flagSampleID)
		if rerr != nil {
			return rerr
		}
		logger.Info("parsed results", zap.Int("rows", len(rows)))
		res, err = loader.LoadIsoform(ctx, req, rows)
	}

	if err != nil {
		fmt.Printf("Error occurred while running load %q:\n%v\nCurrent state is %s.\n", res.LoadID, err, res.State)
		if nerr := warehouse.NotifyLoadFailure(ctx, clients.SNS, cfg.AlertsTopicARN, res.LoadID, flagTable, err); nerr != nil {
			logger.Warn("alert publish failed", zap.Error(nerr))
		}
		return err
	}

	fmt.Printf("Load %q finished without error. Current state is %s.\n", res.LoadID, res.State)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
