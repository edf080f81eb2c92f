// Package imgformat decodes the photo formats the service accepts.
//
// Formats are matched against their signatures here rather than through the
// image package registry: the TGA decoder registers an empty signature, and
// whichever decoder registers first with it claims every input.
package imgformat

import (
	"bufio"
	"errors"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

var ErrUnknownFormat = errors.New("unknown image format")

type format struct {
	name   string
	magic  string
	decode func(io.Reader) (image.Image, error)
	config func(io.Reader) (image.Config, error)
}

// '?' in a signature matches any byte.
var formats = []format{
	{"png", "\x89PNG\r\n\x1a\n", png.Decode, png.DecodeConfig},
	{"jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig},
	{"gif", "GIF8?a", gif.Decode, gif.DecodeConfig},
	{"bmp", "BM????\x00\x00\x00\x00", bmp.Decode, bmp.DecodeConfig},
	{"webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig},
}

func match(magic string, b []byte) bool {
	if len(magic) != len(b) {
		return false
	}
	for i, c := range b {
		if magic[i] != c && magic[i] != '?' {
			return false
		}
	}
	return true
}

func sniff(r io.Reader) (*bufio.Reader, *format) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	for i := range formats {
		b, err := br.Peek(len(formats[i].magic))
		if err == nil && match(formats[i].magic, b) {
			return br, &formats[i]
		}
	}
	return br, nil
}

// Decode returns the image and the name of its format.
func Decode(r io.Reader) (image.Image, string, error) {
	br, f := sniff(r)
	if f == nil {
		return nil, "", ErrUnknownFormat
	}
	img, err := f.decode(br)
	return img, f.name, err
}

// DecodeConfig reads only the header.
func DecodeConfig(r io.Reader) (image.Config, string, error) {
	br, f := sniff(r)
	if f == nil {
		return image.Config{}, "", ErrUnknownFormat
	}
	cfg, err := f.config(br)
	return cfg, f.name, err
}
