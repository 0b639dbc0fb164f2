// Package sqltest is a YAML-scenario conformance harness over
// internal/dbengine: each scenario names a sequence of SQL statements,
// runs them against a fresh in-memory Engine, and snapshots every
// terminal event they produced for golden-file comparison.
package sqltest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/nysql/internal/dbengine"
	"github.com/roach88/nysql/internal/event"
)

// Scenario is one conformance test case: a named sequence of statements
// run in order against the same Engine.
type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Statements  []string `yaml:"statements"`
}

// LoadScenario reads a Scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sqltest: read scenario %q: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("sqltest: parse scenario %q: %w", path, err)
	}
	return &s, nil
}

// StatementResult pairs a submitted statement with the events it
// produced.
type StatementResult struct {
	SQL    string
	Events []event.Event
}

// Result is a scenario's complete execution trace.
type Result struct {
	ScenarioName string
	Statements   []StatementResult
}

// Run executes every statement in s against a fresh in-memory Engine, in
// order, collecting each statement's terminal events.
func Run(s *Scenario) (*Result, error) {
	eng, err := dbengine.Open(dbengine.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqltest: open engine: %w", err)
	}

	result := &Result{ScenarioName: s.Name}
	for _, sql := range s.Statements {
		events := eng.SubmitSQL(sql)
		result.Statements = append(result.Statements, StatementResult{SQL: sql, Events: events})
	}
	return result, nil
}
