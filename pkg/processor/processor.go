package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/glesirok/filterconv/pkg/config"
	"github.com/glesirok/filterconv/pkg/engine"
	"github.com/glesirok/filterconv/pkg/pipeline"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Processor 批量转换 Logstash filter 配置文件
type Processor struct {
	cfg    *config.Config
	format pipeline.Format
	engine *engine.Engine
	logger *slog.Logger

	outMu sync.Mutex
	out   io.Writer // dry-run 输出
}

// FileError 单个文件的转换失败
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("process %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Summary 目录转换的结果
type Summary struct {
	Converted int
	Failures  []*FileError // on_error=skip 时跳过的文件
}

// Skipped 跳过的文件数
func (s *Summary) Skipped() int {
	return len(s.Failures)
}

// NewProcessor 创建处理器，cfg 为空时使用默认配置
func NewProcessor(cfg *config.Config, logger *slog.Logger) (*Processor, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	format, err := pipeline.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Processor{
		cfg:    cfg,
		format: format,
		engine: engine.NewEngine(),
		logger: logger,
		out:    os.Stdout,
	}, nil
}

// SetOutput 设置 dry-run 的输出目标
func (p *Processor) SetOutput(w io.Writer) {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	p.out = w
}

// Convert 把一份 filter 配置转换为渲染后的 pipeline
func (p *Processor) Convert(data []byte) ([]byte, *pipeline.Document, error) {
	// 检测并移除 UTF-8 BOM
	data = bytes.TrimPrefix(data, utf8BOM)

	if bytes.IndexByte(data, 0) >= 0 {
		return nil, nil, errors.New("input contains NUL byte")
	}

	doc, err := pipeline.Convert(string(data), pipeline.Options{
		Description: p.cfg.Description,
		Engine:      p.engine,
	})
	if err != nil {
		return nil, nil, err
	}

	output, err := pipeline.Render(doc, p.format, p.cfg.Output.Indent)
	if err != nil {
		return nil, nil, fmt.Errorf("render: %w", err)
	}
	return output, doc, nil
}

// OutputPath 单文件模式下的默认输出路径：替换输入后缀
func (p *Processor) OutputPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + p.cfg.OutputExtension()
}

// ProcessFile 转换单个文件
func (p *Processor) ProcessFile(inputPath, outputPath string, dryRun bool) error {
	output, doc, err := p.convertFile(inputPath)
	if err != nil {
		return err
	}

	if dryRun {
		p.printDryRun(inputPath, output)
		return nil
	}

	if outputPath == "" {
		outputPath = p.OutputPath(inputPath)
	}
	if err := writeFileAtomic(outputPath, output); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	p.logger.Debug("converted file",
		"input", inputPath,
		"output", outputPath,
		"processors", doc.Len(),
	)
	return nil
}

func (p *Processor) convertFile(inputPath string) ([]byte, *pipeline.Document, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read file: %w", err)
	}
	return p.Convert(data)
}

func (p *Processor) printDryRun(inputPath string, output []byte) {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	fmt.Fprintf(p.out, "=== Dry-run: %s ===\n", inputPath)
	fmt.Fprintln(p.out, string(output))
}

// ProcessDirectory 并发转换目录下所有匹配后缀的文件
// outputDir 为空时输出写在输入文件旁边
func (p *Processor) ProcessDirectory(ctx context.Context, inputDir, outputDir string, dryRun, backup bool) (*Summary, error) {
	files, err := p.collect(inputDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	var mu sync.Mutex

	// dry-run 结果按遍历顺序输出，与并发度无关
	previews := make([][]byte, len(files))
	defer func() {
		for i, output := range previews {
			if output != nil {
				p.printDryRun(files[i], output)
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			var err error
			if dryRun {
				previews[i], _, err = p.convertFile(path)
			} else {
				var outputPath string
				outputPath, err = p.targetPath(inputDir, outputDir, path)
				if err == nil {
					err = p.processOne(path, outputPath, false, backup)
				}
			}
			if err != nil {
				fileErr := &FileError{Path: path, Err: err}
				if p.cfg.OnError == config.OnErrorAbort {
					return fileErr
				}
				p.logger.Warn("skipping file", "file", path, "error", err)
				mu.Lock()
				summary.Failures = append(summary.Failures, fileErr)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			summary.Converted++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	p.logger.Info("directory converted",
		"input", inputDir,
		"converted", summary.Converted,
		"skipped", summary.Skipped(),
	)
	return summary, nil
}

func (p *Processor) processOne(path, outputPath string, dryRun, backup bool) error {
	if !dryRun {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		if backup {
			if err := backupFile(outputPath); err != nil {
				return fmt.Errorf("backup file: %w", err)
			}
		}
	}
	return p.ProcessFile(path, outputPath, dryRun)
}

// collect 按遍历顺序收集需要转换的文件
func (p *Processor) collect(inputDir string) ([]string, error) {
	var files []string
	err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !p.cfg.HasInputExtension(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", inputDir, err)
	}
	return files, nil
}

// targetPath 计算输出路径，保留相对目录结构
func (p *Processor) targetPath(inputDir, outputDir, path string) (string, error) {
	if outputDir == "" {
		return p.OutputPath(path), nil
	}
	relPath, err := filepath.Rel(inputDir, path)
	if err != nil {
		return "", err
	}
	return p.OutputPath(filepath.Join(outputDir, relPath)), nil
}

// backupFile 目标已存在时复制为 .bak
func backupFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path+".bak", data, 0644)
}

// writeFileAtomic 先写临时文件再 rename，失败时不留下半个文件
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
