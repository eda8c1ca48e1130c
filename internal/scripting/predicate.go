package scripting

import (
	"fmt"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Facts is the flat table a predicate sees as its single argument `s`.
type Facts map[string]float64

// Evaluator holds compiled boolean predicates keyed by id.
//
// Invariant: all access to the underlying LState is serialized by mu.
type Evaluator struct {
	mu     sync.Mutex
	L      *lua.LState
	logger *zap.Logger
	limit  int
	preds  map[string]*lua.LFunction
}

// NewEvaluator creates an Evaluator backed by a fresh sandboxed state.
//
// Precondition: logger must be non-nil; limit <= 0 uses DefaultInstructionLimit.
func NewEvaluator(logger *zap.Logger, limit int) *Evaluator {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	return &Evaluator{
		L:      NewSandboxedState(),
		logger: logger,
		limit:  limit,
		preds:  make(map[string]*lua.LFunction),
	}
}

// Compile registers expr under id. The expression reads facts through `s`,
// e.g. `s.cases_opened >= 10`.
//
// Postcondition: on success Eval(id, ...) evaluates expr; a previous
// predicate with the same id is replaced.
func (e *Evaluator) Compile(id, expr string) error {
	if id == "" {
		return fmt.Errorf("compiling predicate: empty id")
	}
	src := "return function(s) return (" + expr + ") end"

	e.mu.Lock()
	defer e.mu.Unlock()

	chunk, err := e.L.LoadString(src)
	if err != nil {
		return fmt.Errorf("compiling predicate %q: %w", id, err)
	}
	ret, err := runBudgeted(e.L, e.limit, chunk)
	if err != nil {
		return fmt.Errorf("compiling predicate %q: %w", id, err)
	}
	fn, ok := ret.(*lua.LFunction)
	if !ok {
		return fmt.Errorf("compiling predicate %q: chunk returned %s", id, ret.Type())
	}
	e.preds[id] = fn
	return nil
}

// Eval runs predicate id against facts. Missing facts read as nil in Lua, so
// comparisons against them raise an error rather than silently passing.
func (e *Evaluator) Eval(id string, facts Facts) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn, ok := e.preds[id]
	if !ok {
		return false, fmt.Errorf("evaluating predicate %q: not compiled", id)
	}
	tbl := e.L.NewTable()
	for k, v := range facts {
		tbl.RawSetString(k, lua.LNumber(v))
	}
	ret, err := runBudgeted(e.L, e.limit, fn, tbl)
	if err != nil {
		e.logger.Warn("predicate error", zap.String("predicate", id), zap.Error(err))
		return false, fmt.Errorf("evaluating predicate %q: %w", id, err)
	}
	return lua.LVAsBool(ret), nil
}

// IDs returns the compiled predicate ids in sorted order.
func (e *Evaluator) IDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.preds))
	for id := range e.preds {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Close releases the Lua state.
func (e *Evaluator) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.L.Close()
}
