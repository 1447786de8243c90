// Package solver implements a small exact solver for boolean assignment
// models: maximize a linear objective over boolean variables subject to
// at-most-one groups, fixed-zero literals and linear lower bounds.
package solver

// Status is the outcome of a Solve call.
type Status string

const (
	// StatusOptimal means the returned assignment is provably best.
	StatusOptimal Status = "OPTIMAL"
	// StatusFeasible means a valid assignment was found but the time
	// budget ran out before optimality was proven.
	StatusFeasible Status = "FEASIBLE"
	// StatusInfeasible means no assignment satisfies the constraints.
	StatusInfeasible Status = "INFEASIBLE"
)

// BoolVar identifies a boolean decision variable within a model.
type BoolVar int

type linearBound struct {
	coeffs map[BoolVar]int64
	min    int64
}

// Model accumulates variables and constraints before solving.
type Model struct {
	names       []string
	objective   []int64
	atMostOne   [][]BoolVar
	fixedZero   map[BoolVar]bool
	lowerBounds []linearBound
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{fixedZero: make(map[BoolVar]bool)}
}

// NewBoolVar adds a boolean variable with the given objective coefficient.
// The name is only used for diagnostics.
func (m *Model) NewBoolVar(name string, objectiveCoeff int64) BoolVar {
	m.names = append(m.names, name)
	m.objective = append(m.objective, objectiveCoeff)
	return BoolVar(len(m.names) - 1)
}

// AddAtMostOne constrains the given variables so at most one may be true.
func (m *Model) AddAtMostOne(vars ...BoolVar) {
	if len(vars) < 2 {
		return
	}
	group := make([]BoolVar, len(vars))
	copy(group, vars)
	m.atMostOne = append(m.atMostOne, group)
}

// AddFixZero forces a variable to false.
func (m *Model) AddFixZero(v BoolVar) {
	m.fixedZero[v] = true
}

// AddLowerBound requires sum(coeffs[v] * v) >= min over the given terms.
func (m *Model) AddLowerBound(coeffs map[BoolVar]int64, min int64) {
	terms := make(map[BoolVar]int64, len(coeffs))
	for v, c := range coeffs {
		terms[v] = c
	}
	m.lowerBounds = append(m.lowerBounds, linearBound{coeffs: terms, min: min})
}

// Len returns the number of variables in the model.
func (m *Model) Len() int {
	return len(m.names)
}
