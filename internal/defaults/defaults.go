// Package defaults loads the default device catalog offered by the
// "Import Defaults" action.
//
// The file is a YAML document with a top-level "devices" list:
//
//	devices:
//	  - id: cam-lobby-01        # optional
//	    name: Camera-Lobby-01
//	    sn: SN001
//	    model: DS-2DE4425IW
//	    ip: 10.0.0.5
package defaults

import (
	"fmt"
	"os"
	"strings"

	"github.com/cctv-report/backend/internal/model"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Devices []model.Device `yaml:"devices"`
}

// Load reads the catalog at path. An empty path yields an empty catalog.
func Load(path string) ([]model.Device, error) {
	if strings.TrimSpace(path) == "" {
		return []model.Device{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read default devices %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a catalog document. Every entry needs a name.
func Parse(data []byte) ([]model.Device, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse default devices: %w", err)
	}
	for i, d := range file.Devices {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("default device #%d: name is required", i+1)
		}
	}
	if file.Devices == nil {
		return []model.Device{}, nil
	}
	return file.Devices, nil
}
