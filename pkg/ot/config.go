package ot

import (
	"os"

	"github.com/optable/oblivious/internal/crypto"
	"github.com/optable/oblivious/internal/ot"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is the YAML description of an exchange. Both parties must load
// equivalent configurations, any difference aborts the exchange with
// ErrTransactionMismatch.
type Config struct {
	Protocol    string `yaml:"protocol"`
	Base        string `yaml:"base"`
	Curve       string `yaml:"curve"`
	Cipher      string `yaml:"cipher"`
	Hash        string `yaml:"hash"`
	PRG         string `yaml:"prg"`
	Security    int    `yaml:"security"`
	Statistical int    `yaml:"statistical"`
}

// DefaultConfig runs the extension with the default options.
func DefaultConfig() *Config {
	o := ot.DefaultOptions()
	return &Config{
		Protocol:    ProtocolExtension.String(),
		Base:        o.Base,
		Curve:       o.Curve,
		Cipher:      o.Cipher,
		Hash:        o.Hash,
		PRG:         o.PRG,
		Security:    o.Security,
		Statistical: o.Statistical,
	}
}

// LoadConfig reads the YAML file at path over the defaults. Fields absent
// from the file keep their default value.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := DefaultConfig()
	d := yaml.NewDecoder(file)
	d.SetStrict(true)
	if err := d.Decode(config); err != nil {
		return nil, errors.Wrapf(err, "could not decode config %s", path)
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return config, nil
}

// SaveConfig writes config to path as YAML.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks the protocol name and every primitive.
func (c *Config) Validate() error {
	if _, err := ParseProtocol(c.Protocol); err != nil {
		return err
	}
	return c.Options().Validate()
}

// ProtocolValue returns the configured protocol.
func (c *Config) ProtocolValue() (Protocol, error) {
	return ParseProtocol(c.Protocol)
}

// Options returns the engine options described by c.
func (c *Config) Options() Options {
	return Options{
		Base:        c.Base,
		Curve:       c.Curve,
		Cipher:      c.Cipher,
		Hash:        c.Hash,
		PRG:         c.PRG,
		Security:    c.Security,
		Statistical: c.Statistical,
	}
}

// Supported lists the accepted values of each primitive, by YAML key.
func Supported() map[string][]string {
	return map[string][]string{
		"protocol": {ProtocolSimplest.String(), ProtocolNaorPinkas.String(), ProtocolExtension.String()},
		"base":     {ot.BaseSimplest, ot.BaseNaorPinkas},
		"curve":    crypto.Curves(),
		"cipher":   crypto.Ciphers(),
		"hash":     crypto.Hashes(),
		"prg":      crypto.PRGs(),
	}
}
