package inference

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"os"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// jpegQuality is used when a downscaled image is re-encoded.
const jpegQuality = 90

// Image is one workflow image input: either raw bytes or a remote URL the
// service fetches itself.
type Image struct {
	name string
	data []byte
	url  string
}

// ImageFromPath reads a local file.
func ImageFromPath(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrImage, err)
	}
	return Image{name: path, data: data}, nil
}

// ImageFromBytes wraps already loaded bytes, e.g. a multipart upload.
func ImageFromBytes(name string, data []byte) Image {
	return Image{name: name, data: data}
}

// ImageFromURL references an image the service downloads on its side.
func ImageFromURL(u string) Image {
	return Image{name: u, url: u}
}

// ParseImage treats http(s) references as URLs and everything else as a
// local path.
func ParseImage(ref string) (Image, error) {
	if isURL(ref) {
		return ImageFromURL(ref), nil
	}
	return ImageFromPath(ref)
}

// Name is the path, URL or upload name the image came from.
func (i Image) Name() string { return i.name }

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// imageInput is the wire form of one image in the workflow request.
type imageInput struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// input encodes the image, downscaling it first when maxSize > 0 and either
// side is larger.
func (i Image) input(maxSize int) (imageInput, error) {
	if i.url != "" {
		return imageInput{Type: "url", Value: i.url}, nil
	}
	if len(i.data) == 0 {
		return imageInput{}, fmt.Errorf("%w: %s is empty", ErrImage, i.name)
	}

	data := i.data
	if maxSize > 0 {
		var err error
		if data, err = downscale(data, maxSize); err != nil {
			return imageInput{}, fmt.Errorf("%w: %s: %w", ErrImage, i.name, err)
		}
	}
	return imageInput{Type: "base64", Value: base64.StdEncoding.EncodeToString(data)}, nil
}

// downscale fits the image inside maxSize x maxSize keeping its aspect
// ratio. Images already small enough are returned untouched.
func downscale(data []byte, maxSize int) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= maxSize && cfg.Height <= maxSize {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	small := resize.Thumbnail(uint(maxSize), uint(maxSize), img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, small, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
