package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听输入文件变化并重新转换
type Watcher struct {
	proc     *Processor
	watcher  *fsnotify.Watcher
	debounce *Debouncer

	input  string
	output string
	isDir  bool
	dryRun bool
	backup bool
}

// NewWatcher 创建监听器并注册路径。input 为文件时监听其所在目录
// dryRun 和 backup 与单次转换的含义相同
func NewWatcher(proc *Processor, input, output string, dryRun, backup bool) (*Watcher, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		proc:     proc,
		watcher:  fsw,
		debounce: NewDebouncer(proc.cfg.Watch.DebounceInterval()),
		input:    filepath.Clean(input),
		output:   output,
		isDir:    info.IsDir(),
		dryRun:   dryRun,
		backup:   backup,
	}

	if w.isDir {
		err = w.addDirectory(w.input)
	} else {
		// 编辑器常用 rename 覆盖文件，监听目录才能收到事件
		err = fsw.Add(filepath.Dir(w.input))
	}
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", input, err)
	}
	return w, nil
}

// Run 阻塞处理事件，直到 ctx 取消
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer w.debounce.Stop()

	w.proc.logger.Info("watching for changes",
		"path", w.input,
		"debounce_ms", w.proc.cfg.Watch.DebounceInterval().Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.proc.logger.Info("watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			// 新建的子目录也需要监听
			if w.isDir && event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirectory(event.Name); err != nil {
						w.proc.logger.Warn("watch new directory failed", "path", event.Name, "error", err)
					}
					continue
				}
			}

			if !w.shouldProcessEvent(event) {
				continue
			}

			path := event.Name
			w.proc.logger.Debug("file event", "path", path, "op", event.Op.String())
			w.debounce.Trigger(path, func() { w.convert(path) })

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.proc.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) convert(path string) {
	if _, err := os.Stat(path); err != nil {
		// 文件已被删除
		return
	}

	outputPath := w.output
	if w.isDir {
		target, err := w.proc.targetPath(w.input, w.output, path)
		if err != nil {
			w.proc.logger.Error("resolve output path", "file", path, "error", err)
			return
		}
		outputPath = target
	} else if outputPath == "" {
		outputPath = w.proc.OutputPath(path)
	}

	if err := w.proc.processOne(path, outputPath, w.dryRun, w.backup); err != nil {
		w.proc.logger.Error("conversion failed", "file", path, "error", err)
		return
	}
	w.proc.logger.Info("converted", "file", path)
}

func (w *Watcher) addDirectory(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// shouldProcessEvent 只关心写入和新建的输入文件
func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	// 跳过隐藏文件，包括原子写入用的临时文件
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	if !w.isDir {
		return filepath.Clean(event.Name) == w.input
	}
	return w.proc.cfg.HasInputExtension(event.Name)
}

// Debouncer 按 key 合并短时间内的多次事件
type Debouncer struct {
	interval time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// NewDebouncer 创建 Debouncer
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		timers:   make(map[string]*time.Timer),
	}
}

// Trigger 在 interval 内没有新事件时执行 fn
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		if d.stopped || d.timers[key] != timer {
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		d.mu.Unlock()

		fn()
	})
	d.timers[key] = timer
}

// Stop 取消所有等待中的回调
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
