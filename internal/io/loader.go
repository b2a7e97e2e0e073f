// Image loading and saving with an OpenCV first, pure Go second strategy
package io

import (
	"errors"
	"fmt"
	"image"
	goio "io"
	"os"
	"path/filepath"
	"strings"

	// Formats OpenCV builds commonly lack.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode marks a source image that could not be decoded.
var ErrDecode = errors.New("image decode failed")

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".webp", ".bmp", ".tif", ".tiff", ".gif"}

// ImageLoader handles image file operations
type ImageLoader struct {
	logger logrus.FieldLogger
}

func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(goio.Discard)
		logger = l
	}
	return &ImageLoader{
		logger: logger,
	}
}

// LoadImage decodes path into a 3 channel BGR Mat. OpenCV is tried first;
// formats it cannot read go through the Go image decoders.
func (il *ImageLoader) LoadImage(path string) (gocv.Mat, error) {
	il.logger.WithField("filepath", path).Debug("Loading image")

	if !IsSupportedImage(path) {
		return gocv.NewMat(), fmt.Errorf("unsupported image format: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		return gocv.NewMat(), err
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		img, err := imaging.Open(path)
		if err != nil {
			return gocv.NewMat(), fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
		}
		mat, err = gocv.ImageToMatRGB(img)
		if err != nil {
			return gocv.NewMat(), fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
		}
		il.logger.WithField("filepath", path).Debug("Decoded with Go image fallback")
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Debug("Image loaded successfully")

	return mat, nil
}

// SaveImage encodes mat by extension. When OpenCV has no encoder for the
// format the Go encoders are used.
func (il *ImageLoader) SaveImage(mat gocv.Mat, path string) error {
	il.logger.WithField("filepath", path).Debug("Saving image")

	if mat.Empty() {
		return fmt.Errorf("cannot save empty image")
	}

	if !IsSupportedImage(path) {
		return fmt.Errorf("unsupported image format: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	if !gocv.IMWrite(path, mat) {
		img, err := mat.ToImage()
		if err != nil {
			return fmt.Errorf("failed to save image: %s: %w", path, err)
		}
		if err := imaging.Save(img, path); err != nil {
			return fmt.Errorf("failed to save image: %s: %w", path, err)
		}
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
	}).Debug("Image saved successfully")

	return nil
}

// DecodeConfig reads the dimensions of an image without decoding pixels.
func DecodeConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return cfg, nil
}

// IsSupportedImage reports whether the extension is whitelisted.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// SupportedFormats lists the whitelisted extensions.
func SupportedFormats() []string {
	out := make([]string, len(supportedFormats))
	copy(out, supportedFormats)
	return out
}

// CopyFile copies src to dst, replacing dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := goio.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
