package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDeployFile = "deploy.yaml"
	DefaultVerifyFile = "verify.yaml"
)

// LoadDeployConfig reads a deployment configuration document
func LoadDeployConfig(path string) (*config.DeployConfig, error) {
	var doc config.DeployConfig
	if err := decodeYAML(path, &doc); err != nil {
		return nil, err
	}
	if len(doc.Contracts) == 0 {
		return nil, domain.NewValidationError("deploy config", "%s declares no contracts", path)
	}
	return &doc, nil
}

// LoadVerifyConfig reads an expected-configuration document
func LoadVerifyConfig(path string) (*config.VerifyConfig, error) {
	var doc config.VerifyConfig
	if err := decodeYAML(path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// decodeYAML rejects unknown fields so typos do not silently drop settings
func decodeYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("document", "%s is empty", path)
		}
		return domain.NewValidationError("document", "%s: %v", path, err)
	}
	return nil
}

// LoadListings reads the listings of a document; a deployment configuration
// may be reused since only its listings section is read.
func LoadListings(path string) ([]models.TokenListing, error) {
	var doc struct {
		Contracts    yaml.Node             `yaml:"contracts"`
		Integrations yaml.Node             `yaml:"integrations"`
		Listings     []models.TokenListing `yaml:"listings"`
	}
	if err := decodeYAML(path, &doc); err != nil {
		return nil, err
	}
	if len(doc.Listings) == 0 {
		return nil, domain.NewValidationError("listings", "%s declares no listings", path)
	}
	return doc.Listings, nil
}
