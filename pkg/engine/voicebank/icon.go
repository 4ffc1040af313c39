package voicebank

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"
)

// iconSize matches the 256x256 portraits VOICEVOX's resource pipeline
// produces; voicebanks ship artwork at arbitrary resolutions so every
// image is resampled to this size before being served.
const iconSize = 256

// Image reads the portrait named by character.txt's "image" key, resizes
// it to iconSize x iconSize with a high-quality resampler, and re-encodes
// it as PNG. It returns (nil, nil) when the voicebank declares no image.
func (o *Ongen) Image() ([]byte, error) {
	rel, ok := o.Info["image"]
	if !ok || rel == "" {
		return nil, nil
	}
	rel = strings.ReplaceAll(rel, `\`, "/")
	path := filepath.Join(o.Root, strings.TrimPrefix(rel, "/"))

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("voicebank: opening image %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("voicebank: decoding image %s: %w", path, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("voicebank: encoding resized image: %w", err)
	}
	return buf.Bytes(), nil
}
