package solver

import (
	"context"
	"sort"
)

// Solution is the result of solving a model.
type Solution struct {
	Status    Status
	Objective int64
	values    []bool
}

// Value reports the assigned value of a variable.
func (s *Solution) Value(v BoolVar) bool {
	if s == nil || int(v) >= len(s.values) {
		return false
	}
	return s.values[int(v)]
}

const deadlineCheckInterval = 1024

type searchState struct {
	model    *Model
	order    []int
	groupsOf [][]int
	groupCap []bool

	assigned []bool
	values   []bool
	current  int64

	best      []bool
	bestValue int64
	haveBest  bool
	nodes     int
	interrupt bool
	ctx       context.Context
}

// Solve runs branch and bound over the model. It honours the context
// deadline: when time runs out the best assignment found so far is
// returned with StatusFeasible. With no constraints violated and the
// search exhausted, the result is StatusOptimal; StatusInfeasible means
// no assignment can satisfy the lower bounds.
func Solve(ctx context.Context, m *Model) (*Solution, error) {
	n := m.Len()
	st := &searchState{
		model:    m,
		groupsOf: make([][]int, n),
		groupCap: make([]bool, len(m.atMostOne)),
		assigned: make([]bool, n),
		values:   make([]bool, n),
		ctx:      ctx,
	}
	for gi, group := range m.atMostOne {
		for _, v := range group {
			st.groupsOf[int(v)] = append(st.groupsOf[int(v)], gi)
		}
	}

	// Branch on high-value variables first so the greedy dive lands on a
	// strong incumbent immediately.
	st.order = make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !m.fixedZero[BoolVar(i)] {
			st.order = append(st.order, i)
		}
	}
	sort.SliceStable(st.order, func(a, b int) bool {
		return m.objective[st.order[a]] > m.objective[st.order[b]]
	})

	st.search(0)

	if st.interrupt {
		if st.haveBest {
			return &Solution{Status: StatusFeasible, Objective: st.bestValue, values: st.best}, nil
		}
		// Without lower bounds the all-false assignment is always feasible,
		// so an early interrupt still yields an incumbent.
		if allFalseFeasible(m) {
			return &Solution{Status: StatusFeasible, values: make([]bool, n)}, nil
		}
		return nil, ctx.Err()
	}
	if !st.haveBest {
		return &Solution{Status: StatusInfeasible}, nil
	}
	return &Solution{Status: StatusOptimal, Objective: st.bestValue, values: st.best}, nil
}

func allFalseFeasible(m *Model) bool {
	for _, lb := range m.lowerBounds {
		if lb.min > 0 {
			return false
		}
	}
	return true
}

func (st *searchState) search(depth int) {
	if st.interrupt {
		return
	}
	st.nodes++
	if st.nodes%deadlineCheckInterval == 0 {
		select {
		case <-st.ctx.Done():
			st.interrupt = true
			return
		default:
		}
	}

	if depth == len(st.order) {
		if st.boundsSatisfied() && (!st.haveBest || st.current > st.bestValue) {
			st.best = make([]bool, len(st.values))
			copy(st.best, st.values)
			st.bestValue = st.current
			st.haveBest = true
		}
		return
	}

	if !st.boundsStillReachable(depth) {
		return
	}
	if st.haveBest && st.current+st.remainingPotential(depth) <= st.bestValue {
		return
	}

	v := st.order[depth]

	// Try true first when the group capacity allows it.
	if st.canSetTrue(v) {
		st.set(v, true)
		st.search(depth + 1)
		st.unset(v)
		if st.interrupt {
			return
		}
	}

	st.assigned[v] = true
	st.values[v] = false
	st.search(depth + 1)
	st.assigned[v] = false
}

func (st *searchState) canSetTrue(v int) bool {
	for _, gi := range st.groupsOf[v] {
		if st.groupCap[gi] {
			return false
		}
	}
	return true
}

func (st *searchState) set(v int, val bool) {
	st.assigned[v] = true
	st.values[v] = val
	if val {
		st.current += st.model.objective[v]
		for _, gi := range st.groupsOf[v] {
			st.groupCap[gi] = true
		}
	}
}

func (st *searchState) unset(v int) {
	if st.values[v] {
		st.current -= st.model.objective[v]
		for _, gi := range st.groupsOf[v] {
			st.groupCap[gi] = false
		}
	}
	st.assigned[v] = false
	st.values[v] = false
}

// remainingPotential over-estimates what unassigned variables can still add.
func (st *searchState) remainingPotential(depth int) int64 {
	var total int64
	for _, v := range st.order[depth:] {
		if c := st.model.objective[v]; c > 0 && st.canSetTrue(v) {
			total += c
		}
	}
	return total
}

func (st *searchState) boundsSatisfied() bool {
	for _, lb := range st.model.lowerBounds {
		var sum int64
		for v, c := range lb.coeffs {
			if st.values[int(v)] {
				sum += c
			}
		}
		if sum < lb.min {
			return false
		}
	}
	return true
}

// boundsStillReachable prunes branches where a lower bound can no longer be
// met even if every remaining variable in it were set.
func (st *searchState) boundsStillReachable(depth int) bool {
	for _, lb := range st.model.lowerBounds {
		var sum, potential int64
		for v, c := range lb.coeffs {
			i := int(v)
			if st.assigned[i] {
				if st.values[i] {
					sum += c
				}
			} else if c > 0 && !st.model.fixedZero[v] && st.canSetTrue(i) {
				potential += c
			}
		}
		if sum+potential < lb.min {
			return false
		}
	}
	return true
}
