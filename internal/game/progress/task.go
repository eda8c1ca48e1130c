package progress

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
)

// TaskKind names the counter a daily task advances on.
type TaskKind string

const (
	CasesOpened TaskKind = "cases_opened"
	GamesWon    TaskKind = "games_won"
	GamesPlayed TaskKind = "games_played"
)

func (k TaskKind) valid() bool {
	switch k {
	case CasesOpened, GamesWon, GamesPlayed:
		return true
	}
	return false
}

// TaskDef is a daily goal.
type TaskDef struct {
	ID     string          `yaml:"id" json:"id"`
	Name   string          `yaml:"name" json:"name"`
	Kind   TaskKind        `yaml:"kind" json:"kind"`
	Target int64           `yaml:"target" json:"target"`
	Reward decimal.Decimal `yaml:"reward" json:"reward"`
}

// Validate checks the definition's static fields.
func (d *TaskDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if !d.Kind.valid() {
		errs = append(errs, fmt.Errorf("unknown kind %q", d.Kind))
	}
	if d.Target < 1 {
		errs = append(errs, fmt.Errorf("target must be >= 1, got %d", d.Target))
	}
	if d.Reward.IsNegative() {
		errs = append(errs, fmt.Errorf("reward must not be negative, got %s", d.Reward))
	}
	if len(errs) > 0 {
		return gameerr.Configf("task %q: %v", d.ID, errors.Join(errs...))
	}
	return nil
}

// TaskStatus is a player's standing on one daily task.
//
// Invariant: Progress <= target; Claimed implies Completed.
type TaskStatus struct {
	Progress  int64 `json:"progress"`
	Completed bool  `json:"completed"`
	Claimed   bool  `json:"claimed"`
}

type taskFile struct {
	Tasks []*TaskDef `yaml:"tasks"`
}

// LoadTasks parses the YAML file at path.
//
// Precondition: path names a readable file with a top-level "tasks" list.
func LoadTasks(path string) ([]*TaskDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadTasks: cannot read file %q: %w", path, err)
	}
	var f taskFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("LoadTasks: cannot parse file %q: %w", path, err)
	}
	for _, d := range f.Tasks {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("LoadTasks: %q: %w", path, err)
		}
	}
	return f.Tasks, nil
}
