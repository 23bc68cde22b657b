package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/glesirok/filterconv/pkg/attr"
	"github.com/glesirok/filterconv/pkg/config"
	"github.com/glesirok/filterconv/pkg/logging"
	"github.com/glesirok/filterconv/pkg/processor"
)

var (
	configFile string
	input      string
	output     string
	format     string
	logLevel   string
	dryRun     bool
	backup     bool
	watch      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "filterconv",
		Short: "Convert Logstash filter configs to Elasticsearch ingest pipelines",
		Long: `filterconv translates the filter section of Logstash configs (mutate, date,
grok, json, geoip) into Elasticsearch ingest pipeline definitions.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Config file (.yaml, .yml or .toml)")
	rootCmd.Flags().StringVarP(&input, "input", "i", "", "Input file or directory (required)")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Output file/directory (optional, defaults to next to the input)")
	rootCmd.Flags().StringVar(&format, "format", "", "Output format: json or yaml (overrides config)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Dry-run mode: print pipelines instead of writing files")
	rootCmd.Flags().BoolVar(&backup, "backup", false, "Backup existing output files with .bak extension")
	rootCmd.Flags().BoolVar(&watch, "watch", false, "Watch the input and re-convert on changes")

	rootCmd.MarkFlagRequired("input")

	parseCmd := &cobra.Command{
		Use:   "parse",
		Short: "Print the parsed attribute trees of a filter config",
		RunE:  runParse,
	}
	parseCmd.Flags().StringVarP(&input, "input", "i", "", "Input file (required)")
	parseCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(parseCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	// 命令行参数覆盖配置文件
	if format != "" {
		cfg.Output.Format = format
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	proc, err := processor.NewProcessor(cfg, logger)
	if err != nil {
		return fmt.Errorf("create processor: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 判断输入类型
	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	if info.IsDir() {
		err = processDirectory(ctx, proc, input, output)
	} else {
		err = processFile(proc, input, output)
	}
	if err != nil || !watch {
		return err
	}

	w, err := processor.NewWatcher(proc, input, output, dryRun, backup)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func processFile(proc *processor.Processor, inputFile, outputFile string) error {
	if outputFile == "" {
		outputFile = proc.OutputPath(inputFile)
	}

	if backup && !dryRun {
		if data, err := os.ReadFile(outputFile); err == nil {
			if err := os.WriteFile(outputFile+".bak", data, 0644); err != nil {
				return fmt.Errorf("create backup: %w", err)
			}
		}
	}

	if err := proc.ProcessFile(inputFile, outputFile, dryRun); err != nil {
		return fmt.Errorf("process %s: %w", inputFile, err)
	}

	if !dryRun {
		fmt.Printf("✓ Processed: %s → %s\n", inputFile, outputFile)
	}
	return nil
}

func processDirectory(ctx context.Context, proc *processor.Processor, inputDir, outputDir string) error {
	summary, err := proc.ProcessDirectory(ctx, inputDir, outputDir, dryRun, backup)
	if err != nil {
		return err
	}

	if dryRun {
		return nil
	}
	if summary.Skipped() == 0 {
		fmt.Printf("✓ All %d files processed successfully\n", summary.Converted)
		return nil
	}

	fmt.Printf("✓ Processed %d files, skipped %d:\n", summary.Converted, summary.Skipped())
	for _, f := range summary.Failures {
		fmt.Printf("  ✗ %s: %v\n", f.Path, f.Err)
	}
	return nil
}

func runParse(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	blocks, err := attr.ParseFilter(string(data))
	if err != nil {
		return err
	}

	dumper := spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	for _, block := range blocks {
		fmt.Printf("=== %s (offset %d) ===\n", block.Name, block.Offset)
		dumper.Fdump(os.Stdout, block.Body)
	}
	return nil
}
