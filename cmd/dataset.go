package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	sim "github.com/coopsim/coopsim/sim"
)

// ReadEntities reads a problem dataset from a CSV file. Each record is a
// coordinate vector, optionally terminated by an "S" marker for anchors
// (see samples/*.csv); records without a marker are agents. The dimension
// is inferred from the first record's coordinate count.
func ReadEntities(path string) ([]sim.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // anchor records carry one extra field

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var entities []sim.Entity
	for ln, record := range records {
		var coords []float64
		role := sim.Agent
		for _, field := range record {
			num, err := strconv.ParseFloat(field, 64)
			if err != nil {
				if field != "S" {
					return nil, fmt.Errorf("line %d: unrecognized field %q", ln+1, field)
				}
				role = sim.Anchor
				break
			}
			coords = append(coords, num)
		}
		if len(coords) == 0 {
			return nil, fmt.Errorf("line %d: no coordinates", ln+1)
		}
		entities = append(entities, sim.NewEntity(coords, role))
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("%s: empty dataset", path)
	}
	return entities, nil
}

// WriteLocations writes estimated positions as CSV, one record per entity,
// in input order.
func WriteLocations(path string, locations [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	for _, loc := range locations {
		record := make([]string, len(loc))
		for i, c := range loc {
			record[i] = strconv.FormatFloat(c, 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Scenario is a named preset of run options. Seed is a pointer because 0 is
// a meaningful seed; nil means the scenario leaves it alone.
type Scenario struct {
	File        string  `yaml:"file"`
	Algorithm   string  `yaml:"algorithm"`
	Visibility  float64 `yaml:"visibility"`
	Sigma       float64 `yaml:"sigma"`
	SigmaAngles float64 `yaml:"sigma_angles"`
	Iterations  int     `yaml:"iterations"`
	Seed        *int64  `yaml:"seed"`
}

// scenarioFile is the yaml structure of a scenario config.
type scenarioFile struct {
	Scenarios map[string]Scenario `yaml:"scenarios"`
}

// LoadScenario reads the named scenario from a yaml config file.
func LoadScenario(path, name string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg scenarioFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	sc, ok := cfg.Scenarios[name]
	if !ok {
		return nil, fmt.Errorf("%s: no scenario named %q", path, name)
	}
	return &sc, nil
}
