package frustum

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"gopkg.in/yaml.v3"

	"go.viam.com/frustumgrid/depth"
	"go.viam.com/frustumgrid/voxelgrid"
)

// Config is the construction time configuration of a Generator.
//
//	{
//	  "grid_size": [200, 176, 16],
//	  "pc_range": [2, -30.08, -3.0, 46.8, 30.08, 1.0],
//	  "disc_cfg": {"mode": "LID", "num_bins": 80, "depth_min": 2.0, "depth_max": 46.8}
//	}
type Config struct {
	voxelgrid.GridSpec
	DiscCfg depth.Config `json:"disc_cfg"`
}

// Validate ensures the grid and depth discretization are usable. Every problem found is reported.
func (conf *Config) Validate(path string) error {
	if conf == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "config")
	}
	discPath := "disc_cfg"
	if path != "" {
		discPath = path + ".disc_cfg"
	}
	return multierr.Combine(conf.GridSpec.Validate(path), conf.DiscCfg.Validate(discPath))
}

// NewConfigFromAttributes decodes a Config from an untyped attribute map using the json field
// names, e.g. one section of a larger JSON document.
func NewConfigFromAttributes(attributes map[string]interface{}) (*Config, error) {
	conf := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           conf,
		Squash:           true,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "error decoding frustum grid config")
	}
	return conf, nil
}

// NewConfigFromFile reads a Config from a YAML file when the path ends in .yaml or .yml, and from
// a JSON file otherwise.
func NewConfigFromFile(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewConfigFromYAMLFile(path)
	default:
		return NewConfigFromJSONFile(path)
	}
}

// NewConfigFromYAMLFile reads a Config from a YAML file with the same keys as the JSON form.
func NewConfigFromYAMLFile(yamlPath string) (*Config, error) {
	byteValue, err := readConfigFile(yamlPath, "YAML")
	if err != nil {
		return nil, err
	}
	attributes := map[string]interface{}{}
	if err := yaml.Unmarshal(byteValue, &attributes); err != nil {
		return nil, errors.Wrap(err, "error parsing YAML string")
	}
	return NewConfigFromAttributes(attributes)
}

// NewConfigFromJSONFile reads a Config from a JSON file. Unknown keys are rejected.
func NewConfigFromJSONFile(jsonPath string) (*Config, error) {
	byteValue, err := readConfigFile(jsonPath, "JSON")
	if err != nil {
		return nil, err
	}
	conf := &Config{}
	decoder := json.NewDecoder(bytes.NewReader(byteValue))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(conf); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return conf, nil
}

func readConfigFile(path, format string) ([]byte, error) {
	//nolint:gosec
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %s file", format)
	}
	defer utils.UncheckedErrorFunc(file.Close)
	byteValue, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s data", format)
	}
	return byteValue, nil
}
