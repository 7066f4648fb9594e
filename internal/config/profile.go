package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed profile.default.yaml
var defaultProfile []byte

// PaymentMethod is a local payment option shown at checkout.
type PaymentMethod struct {
	Name   string `yaml:"name" json:"name"`
	Short  string `yaml:"short" json:"short"`
	Number string `yaml:"number" json:"number"`
}

// Profile is the merchant profile: store identity, checkout destination and catalog labels.
type Profile struct {
	StoreName      string          `yaml:"store_name" json:"store_name"`
	ContactNumber  string          `yaml:"contact_number" json:"contact_number"` // messaging destination for checkout
	Currency       string          `yaml:"currency" json:"currency"`
	Locale         string          `yaml:"locale" json:"locale"`
	Categories     []string        `yaml:"categories" json:"categories"`
	PaymentMethods []PaymentMethod `yaml:"payment_methods" json:"payment_methods"`
}

// ContactDigits returns the contact number with everything but digits stripped,
// the form messaging deep links expect.
func (p Profile) ContactDigits() string {
	var b strings.Builder
	for _, r := range p.ContactNumber {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LoadProfile returns the embedded default profile, overlaid with the YAML file at path when
// path is non-empty. Fields absent from the file keep their default values.
func LoadProfile(path string) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(defaultProfile, &p); err != nil {
		return nil, fmt.Errorf("config: default profile is invalid: %w", err)
	}
	if path == "" {
		return &p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("config: parse profile %s: %w", path, err)
	}
	if p.ContactDigits() == "" {
		return nil, fmt.Errorf("config: profile %s has no contact_number", path)
	}
	return &p, nil
}
