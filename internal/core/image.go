// Page image container with validation
package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"

	"github.com/x956606865/reiChan-sub000/internal/algorithms"
)

// Page owns one decoded source image and its grayscale rendition.
type Page struct {
	Source   string
	color    gocv.Mat
	gray     gocv.Mat
	metadata PageMetadata
}

// PageMetadata contains image information
type PageMetadata struct {
	Width    int
	Height   int
	Channels int
	Format   string
}

// NewPage validates mat and derives its grayscale rendition. The page takes
// ownership of mat.
func NewPage(mat gocv.Mat, source string) (*Page, error) {
	if err := ValidateImage(mat); err != nil {
		return nil, err
	}
	gray, err := algorithms.GrayscaleMat(mat)
	if err != nil {
		return nil, err
	}
	return &Page{
		Source: source,
		color:  mat,
		gray:   gray,
		metadata: PageMetadata{
			Width:    mat.Cols(),
			Height:   mat.Rows(),
			Channels: mat.Channels(),
			Format:   formatFromPath(source),
		},
	}, nil
}

// Color returns the decoded image. The page keeps ownership.
func (p *Page) Color() gocv.Mat { return p.color }

// Gray returns the grayscale rendition. The page keeps ownership.
func (p *Page) Gray() gocv.Mat { return p.gray }

func (p *Page) Metadata() PageMetadata { return p.metadata }

func (p *Page) Width() int  { return p.metadata.Width }
func (p *Page) Height() int { return p.metadata.Height }

// Close releases all resources
func (p *Page) Close() {
	p.color.Close()
	p.gray.Close()
}

func formatFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}

// ValidateImage validates an OpenCV Mat for basic requirements
func ValidateImage(mat gocv.Mat) error {
	if mat.Empty() {
		return fmt.Errorf("image is empty")
	}

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", mat.Cols(), mat.Rows())
	}

	channels := mat.Channels()
	if channels < 1 || channels > 4 {
		return fmt.Errorf("unsupported channel count: %d", channels)
	}

	// Check for reasonable size limits (prevent memory issues)
	const maxDimension = 32768
	if mat.Cols() > maxDimension || mat.Rows() > maxDimension {
		return fmt.Errorf("image too large: %dx%d (max: %d)", mat.Cols(), mat.Rows(), maxDimension)
	}

	return nil
}
