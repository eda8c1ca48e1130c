package progress

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
)

// AchievementDef is a one-shot goal whose predicate is a Lua expression over
// the player's facts.
type AchievementDef struct {
	ID          string          `yaml:"id" json:"id"`
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description" json:"description"`
	Predicate   string          `yaml:"predicate" json:"-"`
	Reward      decimal.Decimal `yaml:"reward" json:"reward"`
}

// Validate checks the definition's static fields.
func (d *AchievementDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Predicate == "" {
		errs = append(errs, errors.New("predicate must not be empty"))
	}
	if d.Reward.IsNegative() {
		errs = append(errs, fmt.Errorf("reward must not be negative, got %s", d.Reward))
	}
	if len(errs) > 0 {
		return gameerr.Configf("achievement %q: %v", d.ID, errors.Join(errs...))
	}
	return nil
}

// AchievementStatus is a player's standing on one achievement.
//
// Invariant: Claimed implies Unlocked.
type AchievementStatus struct {
	Unlocked   bool      `json:"unlocked"`
	Claimed    bool      `json:"claimed"`
	UnlockedAt time.Time `json:"unlocked_at,omitzero"`
}

type achievementFile struct {
	Achievements []*AchievementDef `yaml:"achievements"`
}

// LoadAchievements parses the YAML file at path.
//
// Precondition: path names a readable file with a top-level "achievements" list.
func LoadAchievements(path string) ([]*AchievementDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadAchievements: cannot read file %q: %w", path, err)
	}
	var f achievementFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("LoadAchievements: cannot parse file %q: %w", path, err)
	}
	for _, d := range f.Achievements {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("LoadAchievements: %q: %w", path, err)
		}
	}
	return f.Achievements, nil
}
