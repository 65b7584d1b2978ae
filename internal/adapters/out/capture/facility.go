// internal/adapters/out/capture/facility.go
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io/fs"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	capdom "drmoto/internal/domain/capture"
)

// OutPlaceholder is replaced by the output path in the camera command.
const OutPlaceholder = "{out}"

var (
	ErrNoCamera  = errors.New("capture: camera command not configured")
	ErrNoPicker  = errors.New("capture: picker not configured")
	ErrNotImage  = errors.New("capture: file is not an image")
	ErrEmptyFile = errors.New("capture: file is empty")
)

// Picker chooses an existing image; an empty path means the user cancelled.
type Picker interface {
	Pick(ctx context.Context) (string, error)
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(ctx context.Context) (string, error)

func (f PickerFunc) Pick(ctx context.Context) (string, error) { return f(ctx) }

// Facility implements the capture port on a camera command and a file picker.
// Every image is re-encoded as JPEG within the requested bounds.
type Facility struct {
	command []string
	picker  Picker
	dir     string
	log     *zap.Logger
	now     func() time.Time
}

var _ capdom.FacilityPort = (*Facility)(nil)

// NewFacility splits command on whitespace; dir receives the processed images.
func NewFacility(command string, picker Picker, dir string, log *zap.Logger) (*Facility, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("capture: create %s: %w", dir, err)
	}
	return &Facility{
		command: strings.Fields(command),
		picker:  picker,
		dir:     dir,
		log:     log,
		now:     time.Now,
	}, nil
}

func (f *Facility) Capture(ctx context.Context, opts capdom.Options) (capdom.Result, error) {
	var (
		src     string
		cleanup func()
		err     error
	)
	switch opts.Source {
	case capdom.SourceCamera:
		src, cleanup, err = f.shoot(ctx)
	case capdom.SourceLibrary:
		src, err = f.pick(ctx)
	default:
		return capdom.Result{}, capdom.ErrInvalidSource
	}
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return capdom.Result{}, err
	}
	return f.process(src, opts)
}

// shoot runs the camera command. Exiting cleanly without writing the
// output file means the user backed out.
func (f *Facility) shoot(ctx context.Context) (string, func(), error) {
	if len(f.command) == 0 {
		return "", nil, ErrNoCamera
	}
	out := filepath.Join(f.dir, fmt.Sprintf(".raw-%d", f.now().UnixNano()))
	cleanup := func() { _ = os.Remove(out) }

	args := make([]string, len(f.command))
	for i, a := range f.command {
		args[i] = strings.ReplaceAll(a, OutPlaceholder, out)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		f.log.Warn("camera command failed", zap.Error(err), zap.String("stderr", strings.TrimSpace(stderr.String())))
		return "", cleanup, fmt.Errorf("capture: camera command: %w", err)
	}

	st, err := os.Stat(out)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && st.Size() == 0) {
		return "", cleanup, capdom.ErrCancelled
	}
	if err != nil {
		return "", cleanup, err
	}
	return out, cleanup, nil
}

func (f *Facility) pick(ctx context.Context) (string, error) {
	if f.picker == nil {
		return "", ErrNoPicker
	}
	p, err := f.picker.Pick(ctx)
	if err != nil {
		return "", err
	}
	p = strings.TrimSpace(p)
	if p == "" {
		return "", capdom.ErrCancelled
	}
	return p, nil
}

// process decodes src, scales it down to fit the bounds and writes a JPEG.
func (f *Facility) process(src string, opts capdom.Options) (capdom.Result, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return capdom.Result{}, err
	}
	if len(data) == 0 {
		return capdom.Result{}, ErrEmptyFile
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return capdom.Result{}, fmt.Errorf("%w: %s", ErrNotImage, mt.String())
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return capdom.Result{}, fmt.Errorf("capture: decode %s: %w", mt.String(), err)
	}
	img = fit(img, opts.MaxWidth, opts.MaxHeight)

	quality := opts.Quality
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return capdom.Result{}, err
	}

	out := filepath.Join(f.dir, fmt.Sprintf("capture-%d.jpg", f.now().UnixNano()))
	if err := os.WriteFile(out, buf.Bytes(), 0o600); err != nil {
		return capdom.Result{}, err
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		abs = out
	}

	b := img.Bounds()
	f.log.Debug("image captured",
		zap.String("source", string(opts.Source)),
		zap.String("detected", mt.String()),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()))

	return capdom.Result{
		URI:    FileURI(abs),
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: "jpeg",
	}, nil
}

// fit scales img down, keeping the aspect ratio, so it fits maxW×maxH.
// Images already inside the bounds are returned unchanged.
func fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxW <= 0 {
		maxW = w
	}
	if maxH <= 0 {
		maxH = h
	}
	if w <= maxW && h <= maxH {
		return img
	}

	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	nw, nh = min(nw, maxW), min(nh, maxH)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// FileURI renders an absolute path as a file:// URI.
func FileURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
