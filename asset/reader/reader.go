// Package reader parses scene descriptions into a flat triangle scene.
package reader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/achilleasa/lbvh/asset"
	"github.com/achilleasa/lbvh/scene"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene from a local file or http(s) URL.
func ReadScene(filename string) (*scene.Scene, error) {
	// Select reader based on file extension
	var reader Reader
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".obj":
		reader = newWavefrontReader()
	default:
		return nil, fmt.Errorf("readScene: unsupported file format %q", filepath.Ext(filename))
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return reader.Read(res)
}
