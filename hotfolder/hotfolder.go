// Package hotfolder converts images dropped into a watched directory.
package hotfolder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gobeaver/imgconvert"
	"github.com/gobeaver/imgconvert/filevalidator"
	"github.com/gobeaver/imgconvert/pipeline"
)

// DefaultPattern matches the raster formats the converter can decode
const DefaultPattern = "*.{jpg,jpeg,png,gif,webp,bmp,tif,tiff,JPG,JPEG,PNG,GIF,WEBP,BMP,TIF,TIFF}"

// DefaultSettle is how long a file must go without writes before it is converted
const DefaultSettle = 250 * time.Millisecond

var (
	// ErrSkipped is returned by ProcessFile for names the pattern excludes
	ErrSkipped = errors.New("file does not match pattern")

	// ErrClosed is returned by Start after Close
	ErrClosed = errors.New("hot folder closed")
)

// Option configures a Watcher
type Option func(*Watcher)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithPattern sets the glob a file's base name must match
func WithPattern(pattern string) Option {
	return func(w *Watcher) {
		w.pattern = pattern
	}
}

// WithSettings sets the conversion applied to every file
func WithSettings(s pipeline.Settings) Option {
	return func(w *Watcher) {
		w.settings = s
	}
}

// WithSettle sets the quiet period before a written file is picked up
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// Watcher converts matching files from an input directory into an output
// directory. Events are handled one at a time on a single goroutine.
type Watcher struct {
	conv     *imgconvert.Converter
	in, out  string
	pattern  string
	include  glob.Glob
	settings pipeline.Settings
	settle   time.Duration
	logger   *zap.Logger

	fsw    *fsnotify.Watcher
	errs   chan error
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed  bool
	outputs map[string]string // source -> output
	owners  map[string]string // output -> source
}

// New creates a watcher. The output directory is created if missing and must
// differ from the input directory.
func New(conv *imgconvert.Converter, in, out string, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		conv:     conv,
		pattern:  DefaultPattern,
		settings: conv.Config().DefaultSettings(),
		settle:   DefaultSettle,
		logger:   conv.Logger(),
		errs:     make(chan error, 16),
		outputs:  make(map[string]string),
		owners:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}

	var err error
	if w.in, err = filepath.Abs(in); err != nil {
		return nil, err
	}
	if w.out, err = filepath.Abs(out); err != nil {
		return nil, err
	}
	if w.in == w.out {
		return nil, fmt.Errorf("output directory must differ from input directory %s", w.in)
	}

	if w.include, err = glob.Compile(w.pattern); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", w.pattern, err)
	}

	if err := os.MkdirAll(w.out, 0o755); err != nil {
		return nil, err
	}
	return w, nil
}

// Errors reports per-file failures. The channel is buffered; failures that
// do not fit are only logged. It is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Start begins watching the input directory. It returns once the watch is
// established.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.fsw != nil {
		return errors.New("hot folder already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.in); err != nil {
		return multierr.Append(err, fsw.Close())
	}

	ctx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel

	w.wg.Add(1)
	go w.loop(ctx)

	w.logger.Info("watching folder",
		zap.String("in", w.in),
		zap.String("out", w.out),
		zap.String("pattern", w.pattern),
	)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if w.matches(event.Name) {
				pending[event.Name] = time.Now()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.report(fmt.Errorf("watch %s: %w", w.in, err))

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(pending, path)

				if _, err := w.ProcessFile(ctx, path); err != nil && !errors.Is(err, ErrSkipped) {
					w.report(err)
				}
			}
		}
	}
}

func (w *Watcher) matches(path string) bool {
	return w.include.Match(filepath.Base(path))
}

func (w *Watcher) report(err error) {
	w.logger.Error("hot folder", zap.Error(err))

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.errs <- err:
	default:
	}
}

// ProcessFile converts one file into the output directory and returns the
// path written. Files it did not write itself are never replaced.
func (w *Watcher) ProcessFile(ctx context.Context, path string) (string, error) {
	if !w.matches(path) {
		return "", ErrSkipped
	}

	file, err := filevalidator.OpenFile(path)
	if err != nil {
		return "", err
	}

	artifact, _, err := w.conv.ConvertFile(ctx, file, w.settings)
	if err != nil {
		return "", err
	}
	defer w.conv.Store().Release(artifact.ID)

	dst, err := w.claim(path, artifact.Name)
	if err != nil {
		return "", err
	}
	if err := writeFile(dst, artifact.Reader()); err != nil {
		return "", fmt.Errorf("write %s: %w", dst, err)
	}

	w.logger.Info("hot folder converted",
		zap.String("src", path),
		zap.String("dst", dst),
		zap.Int64("bytes", artifact.Size),
	)
	return dst, nil
}

// claim picks the output path for src. A source converted again reuses its
// earlier output. Any other existing file gets a numbered name instead of
// being replaced, so photo.jpg and photo.png become photo.webp and
// photo-1.webp.
func (w *Watcher) claim(src, name string) (string, error) {
	src, err := filepath.Abs(src)
	if err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if dst, ok := w.outputs[src]; ok {
		return dst, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
		}
		dst := filepath.Join(w.out, candidate)
		if _, taken := w.owners[dst]; taken {
			continue
		}
		if _, err := os.Lstat(dst); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return "", err
		}
		w.outputs[src] = dst
		w.owners[dst] = src
		return dst, nil
	}
}

// writeFile writes through a temporary file so readers never see a partial image
func writeFile(dst string, r io.Reader) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".imgconvert-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		return multierr.Append(err, tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	fsw, cancel := w.fsw, w.cancel
	w.mu.Unlock()

	var err error
	if cancel != nil {
		cancel()
	}
	if fsw != nil {
		err = multierr.Append(err, fsw.Close())
	}
	w.wg.Wait()

	close(w.errs)
	w.logger.Info("stopped watching folder", zap.String("in", w.in))
	return err
}
