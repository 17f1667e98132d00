package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"contest-api/internal/domain/entity"
)

// feeTableFile is the YAML layout of FEE_TABLE_PATH:
//
//	categories:
//	  pitch-competition: 99
//	  business-plan: 49
//
// Fees stay yaml.Node so that 49.5 or "49" is refused instead of being
// coerced into an int64.
type feeTableFile struct {
	Categories map[string]yaml.Node `yaml:"categories"`
}

// LoadFeeTable reads a fee table file. An empty path returns the default table.
// The path parameter is expected to come from a trusted source (environment).
func LoadFeeTable(path string) (entity.FeeTable, error) {
	if path == "" {
		return entity.DefaultFeeTable, nil
	}

	// #nosec G304 -- path comes from FEE_TABLE_PATH, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fee table: %w", err)
	}
	return ParseFeeTable(data)
}

// ParseFeeTable parses and validates fee table YAML.
// Every fee must be a positive whole dollar amount and at least one category
// must be listed.
func ParseFeeTable(data []byte) (entity.FeeTable, error) {
	var file feeTableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fee table: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, errors.New("fee table validation failed: no categories")
	}

	table := make(entity.FeeTable, len(file.Categories))
	for name, node := range file.Categories {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.New("fee table validation failed: empty category name")
		}
		fee, err := wholeDollars(&node)
		if err != nil {
			return nil, fmt.Errorf("fee table validation failed: fee for %q %w", name, err)
		}
		if fee <= 0 {
			return nil, fmt.Errorf("fee table validation failed: fee for %q must be positive", name)
		}
		table[entity.Category(name)] = fee
	}
	return table, nil
}

// wholeDollars accepts only a plain YAML integer.
func wholeDollars(node *yaml.Node) (int64, error) {
	if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!int" {
		return 0, fmt.Errorf("must be a whole number, got %q", node.Value)
	}
	var fee int64
	if err := node.Decode(&fee); err != nil {
		return 0, fmt.Errorf("must be a whole number: %w", err)
	}
	return fee, nil
}
