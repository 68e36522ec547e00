// Package config loads the inkmath settings file.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/juruen/inkmath/classifier"
	"github.com/juruen/inkmath/classifier/remote"
	"github.com/juruen/inkmath/ink"
	"github.com/juruen/inkmath/log"
	"github.com/juruen/inkmath/recognizer"

	_ "github.com/juruen/inkmath/classifier/linear"
)

const (
	configFile = "config.yaml"
	appDir     = "inkmath"

	EnvConfig     = "INKMATH_CONFIG"
	EnvModel      = "INKMATH_MODEL"
	EnvClassifier = "INKMATH_CLASSIFIER"
	EnvWorkers    = "INKMATH_WORKERS"

	RemoteKind = "remote"
)

type Config struct {
	Classifier          string        `yaml:"classifier"`
	Model               string        `yaml:"model"`
	StrokeWidth         float32       `yaml:"stroke_width"`
	VerticalTolerance   float64       `yaml:"vertical_tolerance"`
	HorizontalTolerance float64       `yaml:"horizontal_tolerance"`
	Scale               float64       `yaml:"scale"`
	Workers             int64         `yaml:"workers"`
	Policy              string        `yaml:"policy"`
	MinStrokeDivisor    float64       `yaml:"min_stroke_divisor"`
	Remote              remote.Config `yaml:"remote,omitempty"`
}

func Defaults() Config {
	rc := recognizer.DefaultConfig()
	return Config{
		Classifier:          "linear",
		StrokeWidth:         rc.StrokeWidth,
		VerticalTolerance:   rc.VerticalTolerance,
		HorizontalTolerance: rc.HorizontalTolerance,
		Scale:               rc.Scale,
		Workers:             int64(runtime.NumCPU()),
		Policy:              rc.Policy.String(),
		MinStrokeDivisor:    ink.DefaultMinSizeDivisor,
	}
}

// Path returns the settings file location, INKMATH_CONFIG wins
func Path() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "."+appDir, configFile), nil
	}
	return filepath.Join(dir, appDir, configFile), nil
}

// Load reads the file at path over the defaults and applies the
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Defaults()

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "can't parse %s", path)
		}
	case os.IsNotExist(err):
		log.Trace.Printf("config: %s not found, using defaults", path)
	default:
		return cfg, errors.Wrap(err, "can't read config")
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvClassifier); v != "" {
		c.Classifier = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "%s", EnvWorkers)
		}
		c.Workers = n
	}
	return nil
}

// Validate rejects values the recognizer can't run with
func (c Config) Validate() error {
	if c.StrokeWidth <= 0 {
		return errors.Errorf("stroke_width must be positive, got %v", c.StrokeWidth)
	}
	if c.HorizontalTolerance < 0 || c.VerticalTolerance < 0 {
		return errors.New("tolerances can't be negative")
	}
	if c.Scale <= 0 {
		return errors.Errorf("scale must be positive, got %v", c.Scale)
	}
	if c.Workers <= 0 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.MinStrokeDivisor <= 0 {
		return errors.Errorf("min_stroke_divisor must be positive, got %v", c.MinStrokeDivisor)
	}
	if _, err := recognizer.ParsePolicy(c.Policy); err != nil {
		return err
	}
	return nil
}

// Save writes the settings, creating the directory if needed
func Save(path string, c Config) error {
	content, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "can't encode config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0600)
}

// Recognizer returns the recognizer settings
func (c Config) Recognizer() recognizer.Config {
	policy, err := recognizer.ParsePolicy(c.Policy)
	if err != nil {
		policy = recognizer.SkipFailed
	}
	return recognizer.Config{
		StrokeWidth:         c.StrokeWidth,
		HorizontalTolerance: c.HorizontalTolerance,
		VerticalTolerance:   c.VerticalTolerance,
		Scale:               c.Scale,
		Workers:             c.Workers,
		Policy:              policy,
	}
}

// OpenClassifier loads the configured model backend
func (c Config) OpenClassifier() (classifier.Classifier, error) {
	if c.Classifier == RemoteKind {
		if c.Model != "" && c.Remote.URL == "" {
			c.Remote.URL = c.Model
		}
		rc, err := remote.New(c.Remote)
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	if c.Model == "" {
		return nil, errors.Wrapf(classifier.ErrInit, "no model configured for %s", c.Classifier)
	}
	return classifier.Open(c.Classifier, c.Model)
}

// NewRecognizer opens the classifier and builds a recognizer. When the
// model can't be loaded the recognizer is still returned, unavailable,
// together with the load error.
func (c Config) NewRecognizer() (*recognizer.Recognizer, error) {
	cl, err := c.OpenClassifier()
	if err != nil {
		log.Warning.Printf("recognition unavailable: %v", err)
		return recognizer.New(nil, c.Recognizer()), err
	}
	return recognizer.New(cl, c.Recognizer()), nil
}
