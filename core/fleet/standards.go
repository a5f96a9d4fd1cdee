package fleet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/corner-25/test-umc-sub000/core/model"
	"github.com/corner-25/test-umc-sub000/core/normalize"
)

type standardsFile struct {
	Vehicles []model.Vehicle `json:"vehicles" yaml:"vehicles"`
}

// LoadStandards reads a vehicle register with fuel standards. The file is a
// list of vehicles or an object with a "vehicles" list, in yaml or json
// depending on its extension.
func LoadStandards(path string) ([]model.Vehicle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read standards: %w", err)
	}
	var vehicles []model.Vehicle
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			var f standardsFile
			err = json.Unmarshal(trimmed, &f)
			vehicles = f.Vehicles
		} else {
			err = json.Unmarshal(trimmed, &vehicles)
		}
	case ".yaml", ".yml":
		var node yaml.Node
		if err = yaml.Unmarshal(data, &node); err == nil && len(node.Content) > 0 {
			if node.Content[0].Kind == yaml.MappingNode {
				var f standardsFile
				err = node.Decode(&f)
				vehicles = f.Vehicles
			} else {
				err = node.Decode(&vehicles)
			}
		}
	default:
		return nil, fmt.Errorf("standards file %s: unsupported extension", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse standards %s: %w", path, err)
	}
	for i := range vehicles {
		vehicles[i].Plate = normalize.CleanPlate(vehicles[i].Plate)
		if err := vehicles[i].Validate(); err != nil {
			return nil, fmt.Errorf("standards %s: %w", path, err)
		}
	}
	return vehicles, nil
}
