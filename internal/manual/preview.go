package manual

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/disintegration/imaging"
)

// PreviewRequest asks for preview crops of one source. TargetWidth shrinks
// crops wider than it; zero keeps the full size.
type PreviewRequest struct {
	Workspace   string
	Source      string
	Lines       [4]float32
	TargetWidth int
}

// PreviewImage is one written preview.
type PreviewImage struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Preview lists the crops written for a request. Gutter is nil unless the
// right page starts after the left page ends.
type Preview struct {
	Left   *PreviewImage `json:"left,omitempty"`
	Right  *PreviewImage `json:"right,omitempty"`
	Gutter *PreviewImage `json:"gutter,omitempty"`
	Pixels [4]int        `json:"pixels"`
}

// RenderPreview writes PNG previews of the left page, right page and gutter
// into the workspace's previews folder.
func (s *Service) RenderPreview(req PreviewRequest) (*Preview, error) {
	root, err := canonical(req.Workspace)
	if err != nil {
		return nil, err
	}
	source, err := canonical(req.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, req.Source)
	}

	img, err := imaging.Open(source)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	ratios, px := NormalizeLines(req.Lines, b.Dx())

	dir := layout{root: root}.previewsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	stem, _ := splitExt(source)
	prefix := filepath.Join(dir, fmt.Sprintf("%s-%s", stem, previewHash(source, ratios)))

	out := &Preview{Pixels: px}
	render := func(x0, x1 int, name string) (*PreviewImage, error) {
		if x1 <= x0 {
			return nil, nil
		}
		crop := imaging.Crop(img, image.Rect(b.Min.X+x0, b.Min.Y, b.Min.X+x1, b.Max.Y))
		if req.TargetWidth > 0 && req.TargetWidth < crop.Bounds().Dx() {
			crop = imaging.Resize(crop, req.TargetWidth, 0, imaging.Linear)
		}
		path := prefix + "-" + name + ".png"
		if err := imaging.Save(crop, path); err != nil {
			return nil, err
		}
		return &PreviewImage{Path: path, Width: crop.Bounds().Dx(), Height: crop.Bounds().Dy()}, nil
	}

	if out.Left, err = render(px[LeftTrim], px[LeftPageEnd], "left"); err != nil {
		return nil, err
	}
	if out.Right, err = render(px[RightPageStart], px[RightTrim], "right"); err != nil {
		return nil, err
	}
	if px[RightPageStart] > px[LeftPageEnd] {
		if out.Gutter, err = render(px[LeftPageEnd], px[RightPageStart], "gutter"); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func previewHash(source string, lines [4]float32) string {
	key := fmt.Sprintf("%s|%.6f|%.6f|%.6f|%.6f", source, lines[0], lines[1], lines[2], lines[3])
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}
