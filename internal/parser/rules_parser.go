package parser

import (
	"fmt"
	"io"
	"os"

	"github.com/seat-planner/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// ParseVenueRules parses a YAML venue rules file: default chair price, the
// viewer-mode seat selection limit and price categories.
func ParseVenueRules(filePath string) (*models.VenueRules, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseVenueRulesFromReader(file)
}

// ParseVenueRulesFromReader parses rules from an io.Reader. Missing fields
// take the built-in defaults.
func ParseVenueRulesFromReader(r io.Reader) (*models.VenueRules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	rules := models.DefaultVenueRules()
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, err
	}
	if rules.DefaultPrice < 0 {
		return nil, fmt.Errorf("default_price must not be negative: %g", rules.DefaultPrice)
	}
	if rules.DefaultPrice == 0 {
		rules.DefaultPrice = models.DefaultChairPrice
	}
	if rules.MaxSelectableSeats < 0 {
		return nil, fmt.Errorf("max_selectable_seats must not be negative: %d", rules.MaxSelectableSeats)
	}
	for _, c := range rules.Categories {
		if c.Price < 0 {
			return nil, fmt.Errorf("category %q: price must not be negative", c.Name)
		}
	}

	return rules, nil
}

// WriteVenueRules writes rules as YAML.
func WriteVenueRules(w io.Writer, rules *models.VenueRules) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rules); err != nil {
		return err
	}
	return enc.Close()
}
