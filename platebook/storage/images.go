package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// Rendition widths in pixels. Every uploaded image is stored once per
// rendition so clients never download more than they render.
var renditionWidths = map[string]int{
	"micro": 64,
	"small": 256,
	"med":   640,
	"big":   1280,
}

func RenditionNames() []string {
	return []string{"micro", "small", "med", "big"}
}

func renditionKey(base, rendition string) string {
	return fmt.Sprintf("%v_%v.jpg", base, rendition)
}

// UploadImage decodes the image, scales it to each rendition width and
// stores the results as jpegs under the base key.
func UploadImage(ctx context.Context, store Store, base string, data io.Reader) error {
	img, err := imaging.Decode(data, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("error decoding image: %w", err)
	}

	for rendition, width := range renditionWidths {
		resized := img
		if img.Bounds().Dx() > width {
			resized = imaging.Resize(img, width, 0, imaging.Lanczos)
		}

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
			return fmt.Errorf("error encoding %v rendition: %w", rendition, err)
		}

		key := renditionKey(base, rendition)
		if err := store.Put(ctx, key, &buf, int64(buf.Len()), "image/jpeg"); err != nil {
			return err
		}
	}

	return nil
}

func DeleteImage(ctx context.Context, store Store, base string) error {
	return store.DeletePrefix(ctx, base)
}

// ImageURLs returns a presigned url per rendition, keyed by rendition name.
func ImageURLs(ctx context.Context, store Store, base string) (map[string]string, error) {
	urls := make(map[string]string, len(renditionWidths))
	for rendition := range renditionWidths {
		url, err := store.PresignedURL(ctx, renditionKey(base, rendition))
		if err != nil {
			return nil, err
		}
		urls[rendition] = url
	}
	return urls, nil
}
