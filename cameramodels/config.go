package cameramodels

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gopkg.in/yaml.v2"
)

// Config is the persisted form of a camera: its parameters and the ordered intrinsic coefficients.
type Config struct {
	ModelType   ModelType `json:"model_type" yaml:"model_type"`
	CameraName  string    `json:"camera_name" yaml:"camera_name"`
	ImageWidth  int       `json:"image_width" yaml:"image_width"`
	ImageHeight int       `json:"image_height" yaml:"image_height"`
	Intrinsics  []float64 `json:"intrinsics" yaml:"intrinsics"`
}

// Validate checks the model, the image size and the number of intrinsics.
func (cfg *Config) Validate() error {
	mt, err := ParseModelType(string(cfg.ModelType))
	if err != nil {
		return err
	}
	if err := NewParameters(mt, cfg.CameraName, cfg.ImageWidth, cfg.ImageHeight).CheckValid(); err != nil {
		return err
	}
	return checkCount(mt, cfg.Intrinsics)
}

// NewCamera creates the lens model the config describes.
func NewCamera(cfg Config) (Camera, error) {
	mt, err := ParseModelType(string(cfg.ModelType))
	if err != nil {
		return nil, err
	}
	switch mt {
	case PinholeModelType:
		return NewPinhole(cfg.CameraName, cfg.ImageWidth, cfg.ImageHeight, cfg.Intrinsics)
	case KannalaBrandtModelType:
		return NewKannalaBrandt(cfg.CameraName, cfg.ImageWidth, cfg.ImageHeight, cfg.Intrinsics)
	case MEIModelType:
		return NewMEI(cfg.CameraName, cfg.ImageWidth, cfg.ImageHeight, cfg.Intrinsics)
	default:
		return nil, errors.Wrapf(ErrUnknownModel, "%q", cfg.ModelType)
	}
}

// ConfigFromCamera returns the persisted form of cam.
func ConfigFromCamera(cam Camera) Config {
	params := cam.Parameters()
	return Config{
		ModelType:   params.ModelType(),
		CameraName:  params.CameraName(),
		ImageWidth:  params.ImageWidth(),
		ImageHeight: params.ImageHeight(),
		Intrinsics:  cam.Intrinsics(),
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// ReadConfigFile reads a camera config. Files ending in .yaml or .yml are parsed as YAML, anything else
// as JSON.
func ReadConfigFile(path string) (*Config, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening camera config")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "error reading camera config")
	}

	cfg := &Config{}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing camera config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid camera config %s", path)
	}
	return cfg, nil
}

// WriteConfigFile writes cfg to path in the format its extension selects.
func WriteConfigFile(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "error encoding camera config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o600), "error writing camera config")
}
