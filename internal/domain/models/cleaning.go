package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Condition is a row exclusion rule: rows where Column Op Value holds are dropped.
// Expr is the textual form ("`Кол-во` > 1000"); it is used when Column is empty.
type Condition struct {
	Column string `yaml:"column" json:"column,omitempty"`
	Op     string `yaml:"op" json:"op,omitempty"`
	Value  string `yaml:"value" json:"value,omitempty"`
	Expr   string `yaml:"expr" json:"expr,omitempty"`
}

func (c Condition) String() string {
	if c.Column == "" {
		return c.Expr
	}
	return fmt.Sprintf("`%s` %s %s", c.Column, c.Op, c.Value)
}

// UnmarshalYAML accepts either a mapping or a bare expression string.
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*c = Condition{Expr: node.Value}
		return nil
	}
	type plain Condition
	return node.Decode((*plain)(c))
}

// CleaningConfig is the rule set applied by the cleaner. Read-only once loaded.
type CleaningConfig struct {
	RequiredColumns []string            `yaml:"required_columns" json:"required_columns"`
	ForbiddenValues map[string][]string `yaml:"remove_rows_with_values" json:"remove_rows_with_values"`
	Conditions      []Condition         `yaml:"custom_conditions" json:"custom_conditions"`
}

// CleanReport counts the rows each cleaning step removed.
type CleanReport struct {
	InitialRows             int            `json:"initial_rows"`
	RemovedNulls            map[string]int `json:"removed_nulls"`
	RemovedUnparseable      map[string]int `json:"removed_unparseable"`
	RemovedByValues         map[string]int `json:"removed_by_values"`
	RemovedByConditions     map[string]int `json:"removed_by_conditions"`
	SkippedConditions       []string       `json:"skipped_conditions,omitempty"`
	RemovedNegativeQuantity int            `json:"removed_negative_quantity"`
	RemovedNegativeAmount   int            `json:"removed_negative_amount"`
	FinalRows               int            `json:"final_rows"`
}

func NewCleanReport(initial int) *CleanReport {
	return &CleanReport{
		InitialRows:         initial,
		RemovedNulls:        map[string]int{},
		RemovedUnparseable:  map[string]int{},
		RemovedByValues:     map[string]int{},
		RemovedByConditions: map[string]int{},
	}
}

func (r *CleanReport) TotalRemoved() int {
	return r.InitialRows - r.FinalRows
}
