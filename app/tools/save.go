package tools

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vcaesar/imgo"
)

// ErrBadTemplatePath is returned for template paths that leave the assets
// directory or do not name a png file.
var ErrBadTemplatePath = errors.New("bad template path")

// templateKey cleans a template path into the form route files use: forward
// slashes, relative to the assets directory.
func templateKey(rel string) (string, error) {
	key := path.Clean(strings.ReplaceAll(strings.TrimSpace(rel), `\`, "/"))
	switch {
	case key == "." || strings.HasPrefix(key, "/") || key == ".." || strings.HasPrefix(key, "../"):
		return "", fmt.Errorf("%w: %q", ErrBadTemplatePath, rel)
	case !strings.EqualFold(path.Ext(key), ".png"):
		return "", fmt.Errorf("%w: %q is not a png", ErrBadTemplatePath, rel)
	}
	return key, nil
}

// SaveTemplate writes img under assetsDir and returns the key a route file
// refers to it by.
func SaveTemplate(assetsDir, rel string, img image.Image) (string, error) {
	key, err := templateKey(rel)
	if err != nil {
		return "", err
	}
	target := filepath.Join(assetsDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	if err := imgo.Save(target, img); err != nil {
		return "", fmt.Errorf("save %s: %w", key, err)
	}
	return key, nil
}

// nextName suggests stem_<n>.png with n one past the highest number already
// used in dir.
func nextName(dir, stem string) string {
	files, _ := filepath.Glob(filepath.Join(dir, stem+"_*.png"))
	highest := 0
	for _, f := range files {
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		n, err := strconv.Atoi(strings.TrimPrefix(name, stem+"_"))
		if err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s_%d.png", stem, highest+1)
}
