package progress

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/scripting"
)

// Progress is one player's achievement and task state.
type Progress struct {
	Achievements map[string]*AchievementStatus `json:"achievements"`
	Tasks        map[string]*TaskStatus        `json:"tasks"`
}

func (p *Progress) achievement(id string) *AchievementStatus {
	if p.Achievements == nil {
		p.Achievements = make(map[string]*AchievementStatus)
	}
	st := p.Achievements[id]
	if st == nil {
		st = &AchievementStatus{}
		p.Achievements[id] = st
	}
	return st
}

func (p *Progress) task(id string) *TaskStatus {
	if p.Tasks == nil {
		p.Tasks = make(map[string]*TaskStatus)
	}
	st := p.Tasks[id]
	if st == nil {
		st = &TaskStatus{}
		p.Tasks[id] = st
	}
	return st
}

// Tracker evaluates achievements and advances tasks. It holds only immutable
// definitions and the shared predicate evaluator, so one Tracker serves every
// session.
type Tracker struct {
	achievements []*AchievementDef
	tasks        []*TaskDef
	byAch        map[string]*AchievementDef
	byTask       map[string]*TaskDef
	eval         *scripting.Evaluator
	logger       *zap.Logger
}

// NewTracker compiles every achievement predicate.
//
// Precondition: logger must be non-nil; ids are unique within each list.
// Postcondition: returns a configuration error when a predicate does not
// compile or an id repeats.
func NewTracker(logger *zap.Logger, achievements []*AchievementDef, tasks []*TaskDef) (*Tracker, error) {
	t := &Tracker{
		achievements: achievements,
		tasks:        tasks,
		byAch:        make(map[string]*AchievementDef, len(achievements)),
		byTask:       make(map[string]*TaskDef, len(tasks)),
		eval:         scripting.NewEvaluator(logger, 0),
		logger:       logger,
	}
	for _, d := range achievements {
		if _, dup := t.byAch[d.ID]; dup {
			t.eval.Close()
			return nil, gameerr.Configf("duplicate achievement %q", d.ID)
		}
		if err := t.eval.Compile(d.ID, d.Predicate); err != nil {
			t.eval.Close()
			return nil, gameerr.Configf("achievement %q: %v", d.ID, err)
		}
		t.byAch[d.ID] = d
	}
	for _, d := range tasks {
		if _, dup := t.byTask[d.ID]; dup {
			t.eval.Close()
			return nil, gameerr.Configf("duplicate task %q", d.ID)
		}
		t.byTask[d.ID] = d
	}
	return t, nil
}

// Close releases the predicate evaluator.
func (t *Tracker) Close() { t.eval.Close() }

// Achievements returns the definitions in declared order.
func (t *Tracker) Achievements() []*AchievementDef { return t.achievements }

// Tasks returns the definitions in declared order.
func (t *Tracker) Tasks() []*TaskDef { return t.tasks }

// NewProgress returns a fresh, all-locked progress record.
func (t *Tracker) NewProgress() *Progress {
	p := &Progress{}
	for _, d := range t.achievements {
		p.achievement(d.ID)
	}
	for _, d := range t.tasks {
		p.task(d.ID)
	}
	return p
}

// Evaluate unlocks every locked achievement whose predicate holds for facts.
// A predicate that fails at runtime is logged and treated as false.
//
// Postcondition: returns the newly unlocked definitions in declared order.
func (t *Tracker) Evaluate(p *Progress, facts scripting.Facts, now time.Time) []*AchievementDef {
	var unlocked []*AchievementDef
	for _, d := range t.achievements {
		st := p.achievement(d.ID)
		if st.Unlocked {
			continue
		}
		ok, err := t.eval.Eval(d.ID, facts)
		if err != nil || !ok {
			continue
		}
		st.Unlocked = true
		st.UnlockedAt = now
		unlocked = append(unlocked, d)
	}
	return unlocked
}

// Advance adds n to every unfinished task of kind.
//
// Postcondition: returns the tasks that completed during this call.
func (t *Tracker) Advance(p *Progress, kind TaskKind, n int64) []*TaskDef {
	if n <= 0 {
		return nil
	}
	var completed []*TaskDef
	for _, d := range t.tasks {
		if d.Kind != kind {
			continue
		}
		st := p.task(d.ID)
		if st.Completed {
			continue
		}
		st.Progress = min(st.Progress+n, d.Target)
		if st.Progress >= d.Target {
			st.Completed = true
			completed = append(completed, d)
		}
	}
	return completed
}

// ClaimAchievement marks an unlocked achievement claimed and returns its
// reward.
func (t *Tracker) ClaimAchievement(p *Progress, id string) (decimal.Decimal, error) {
	d, ok := t.byAch[id]
	if !ok {
		return decimal.Zero, gameerr.Validationf(gameerr.ErrNotClaimable, "unknown achievement %q", id)
	}
	st := p.achievement(id)
	if !st.Unlocked || st.Claimed {
		return decimal.Zero, gameerr.Validationf(gameerr.ErrNotClaimable, "achievement %q", id)
	}
	st.Claimed = true
	return d.Reward, nil
}

// ClaimTask marks a completed task claimed and returns its reward.
func (t *Tracker) ClaimTask(p *Progress, id string) (decimal.Decimal, error) {
	d, ok := t.byTask[id]
	if !ok {
		return decimal.Zero, gameerr.Validationf(gameerr.ErrNotClaimable, "unknown task %q", id)
	}
	st := p.task(id)
	if !st.Completed || st.Claimed {
		return decimal.Zero, gameerr.Validationf(gameerr.ErrNotClaimable, "task %q", id)
	}
	st.Claimed = true
	return d.Reward, nil
}

// ResetTasks clears every task's progress for a new day.
func (t *Tracker) ResetTasks(p *Progress) {
	p.Tasks = make(map[string]*TaskStatus, len(t.tasks))
	for _, d := range t.tasks {
		p.task(d.ID)
	}
}

// Clone returns a deep copy.
func (p *Progress) Clone() *Progress {
	c := &Progress{
		Achievements: make(map[string]*AchievementStatus, len(p.Achievements)),
		Tasks:        make(map[string]*TaskStatus, len(p.Tasks)),
	}
	for id, st := range p.Achievements {
		v := *st
		c.Achievements[id] = &v
	}
	for id, st := range p.Tasks {
		v := *st
		c.Tasks[id] = &v
	}
	return c
}
