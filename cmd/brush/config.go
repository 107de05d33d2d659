package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phanxgames/brush"
	"gopkg.in/yaml.v3"
)

// sceneFile is the on-disk scene description.
type sceneFile struct {
	Width  int            `yaml:"width" json:"width"`
	Height int            `yaml:"height" json:"height"`
	Debug  bool           `yaml:"debug" json:"debug"`
	State  map[string]any `yaml:"state" json:"state"`
	Layers []layerFile    `yaml:"layers" json:"layers"`
}

type layerFile struct {
	Name       string    `yaml:"name" json:"name"`
	X          float64   `yaml:"x" json:"x"`
	Y          float64   `yaml:"y" json:"y"`
	W          int       `yaml:"w" json:"w"`
	H          int       `yaml:"h" json:"h"`
	Background string    `yaml:"background" json:"background"`
	Opaque     bool      `yaml:"opaque" json:"opaque"`
	Worker     bool      `yaml:"worker" json:"worker"`
	Boxes      []boxFile `yaml:"boxes" json:"boxes"`
}

// boxFile describes one rectangle. Geometry accepts numbers (pixels) or
// unit expressions such as "50%" or "100% - 20".
type boxFile struct {
	Name       string  `yaml:"name" json:"name"`
	X          any     `yaml:"x" json:"x"`
	Y          any     `yaml:"y" json:"y"`
	W          any     `yaml:"w" json:"w"`
	H          any     `yaml:"h" json:"h"`
	Color      string  `yaml:"color" json:"color"`
	Border     float64 `yaml:"border" json:"border"`
	Background string  `yaml:"background" json:"background"`
	// Rotate turns the box around its center, in degrees. Root boxes are
	// not rotated.
	Rotate float64 `yaml:"rotate" json:"rotate"`
	Cursor string  `yaml:"cursor" json:"cursor"`
	// BackgroundFrom names a shared-state key whose value replaces the
	// background whenever it changes.
	BackgroundFrom string     `yaml:"backgroundFrom" json:"backgroundFrom"`
	OnClick        *setAction `yaml:"onClick" json:"onClick"`
	Boxes          []boxFile  `yaml:"boxes" json:"boxes"`
}

// setAction writes Value under Key in the scene's shared state.
type setAction struct {
	Key   string `yaml:"key" json:"key"`
	Value any    `yaml:"value" json:"value"`
}

// loadSceneFile reads a scene description. Files ending in .json are parsed
// as JSON, everything else as YAML.
func loadSceneFile(path string) (*sceneFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	var f sceneFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("invalid scene %s: %w", filepath.Base(path), err)
	}
	return &f, nil
}

func (f *sceneFile) validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("width and height must be positive, got %dx%d", f.Width, f.Height)
	}
	if len(f.Layers) == 0 {
		return errors.New("no layers")
	}
	var errs []error
	for i, l := range f.Layers {
		where := fmt.Sprintf("layers[%d]", i)
		if l.Background != "" && !brush.ValidColor(l.Background) {
			errs = append(errs, fmt.Errorf("%s: invalid background %q", where, l.Background))
		}
		errs = append(errs, validateBoxes(where, l.Boxes)...)
	}
	return errors.Join(errs...)
}

func validateBoxes(where string, boxes []boxFile) []error {
	var errs []error
	seen := map[string]bool{}
	for i, b := range boxes {
		at := fmt.Sprintf("%s.boxes[%d]", where, i)
		switch {
		case b.Name == "":
			errs = append(errs, fmt.Errorf("%s: missing name", at))
		case seen[b.Name]:
			errs = append(errs, fmt.Errorf("%s: duplicate name %q", at, b.Name))
		}
		seen[b.Name] = true
		for _, d := range []struct {
			key string
			v   any
		}{{"x", b.X}, {"y", b.Y}, {"w", b.W}, {"h", b.H}} {
			if err := validateDim(d.v); err != nil {
				errs = append(errs, fmt.Errorf("%s.%s: %w", at, d.key, err))
			}
		}
		for _, c := range []struct {
			key string
			v   string
		}{{"color", b.Color}, {"background", b.Background}} {
			if c.v != "" && !brush.ValidColor(c.v) {
				errs = append(errs, fmt.Errorf("%s.%s: invalid color %q", at, c.key, c.v))
			}
		}
		if b.OnClick != nil && b.OnClick.Key == "" {
			errs = append(errs, fmt.Errorf("%s.onClick: missing key", at))
		}
		errs = append(errs, validateBoxes(at, b.Boxes)...)
	}
	return errs
}

func validateDim(v any) error {
	switch t := v.(type) {
	case nil, int, float64:
		return nil
	case string:
		_, err := brush.ParseDim(t)
		return err
	default:
		return fmt.Errorf("unsupported value %v", v)
	}
}
