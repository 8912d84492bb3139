package lp

import "math"

const epsilon = 1e-9

// Solve runs a two-phase primal simplex. Phase 1 minimises the sum of
// artificial variables to find a feasible basis (or prove infeasibility);
// phase 2 minimises the real objective from that basis. Bland's rule is
// used throughout for entering/leaving variable choice to guarantee
// termination on the degenerate, equality-heavy tableaus the ladder
// solver produces.
func (p *Problem) Solve() (*Solution, error) {
	n := len(p.varNames)
	m := len(p.constraints)

	if m == 0 {
		values := make([]float64, n)
		return &Solution{values: values}, nil
	}

	// Structural columns, then one slack/surplus column per row, then one
	// artificial column per GE/EQ row (and per LE row whose RHS is negative
	// once normalised to b >= 0).
	type rowInfo struct {
		slackCol      int // -1 if none
		slackCoef     float64
		artificialCol int // -1 if none
	}

	rowCoefs := make([]map[int]float64, m)
	rhs := make([]float64, m)
	infos := make([]rowInfo, m)

	nextCol := n
	for i, c := range p.constraints {
		b := -c.expr.constant
		op := c.op
		row := make(map[int]float64, len(c.expr.coef))
		for idx, coef := range c.expr.coef {
			row[idx] = coef
		}
		// Normalise to b >= 0 by flipping the row.
		if b < 0 {
			for idx := range row {
				row[idx] = -row[idx]
			}
			b = -b
			switch op {
			case LE:
				op = GE
			case GE:
				op = LE
			}
		}

		info := rowInfo{slackCol: -1, artificialCol: -1}
		switch op {
		case LE:
			info.slackCol = nextCol
			info.slackCoef = 1
			nextCol++
		case GE:
			info.slackCol = nextCol
			info.slackCoef = -1
			nextCol++
			info.artificialCol = nextCol
			nextCol++
		case EQ:
			info.artificialCol = nextCol
			nextCol++
		}

		infos[i] = info
		rowCoefs[i] = row
		rhs[i] = b
	}

	totalCols := nextCol
	tab := make([][]float64, m)
	for i := range tab {
		tab[i] = make([]float64, totalCols)
		for idx, coef := range rowCoefs[i] {
			tab[i][idx] = coef
		}
		if infos[i].slackCol >= 0 {
			tab[i][infos[i].slackCol] = infos[i].slackCoef
		}
		if infos[i].artificialCol >= 0 {
			tab[i][infos[i].artificialCol] = 1
		}
	}

	basis := make([]int, m)
	haveArtificial := false
	for i, info := range infos {
		if info.artificialCol >= 0 {
			basis[i] = info.artificialCol
			haveArtificial = true
		} else {
			basis[i] = info.slackCol
		}
	}

	if haveArtificial {
		phase1Cost := make([]float64, totalCols)
		for _, info := range infos {
			if info.artificialCol >= 0 {
				phase1Cost[info.artificialCol] = 1
			}
		}
		if err := runSimplex(tab, rhs, basis, phase1Cost); err != nil {
			return nil, err
		}
		obj := objectiveValue(phase1Cost, basis, rhs)
		if obj > 1e-6 {
			return nil, ErrInfeasible
		}
		// Drive any artificial still in the basis (at value 0) out, or
		// drop its row if it is redundant.
		for i, b := range basis {
			info := infos[i]
			if info.artificialCol < 0 || b != info.artificialCol {
				continue
			}
			pivoted := false
			for j := 0; j < n; j++ {
				if math.Abs(tab[i][j]) > epsilon {
					pivot(tab, rhs, basis, i, j)
					pivoted = true
					break
				}
			}
			if !pivoted {
				for j := range tab[i] {
					tab[i][j] = 0
				}
				rhs[i] = 0
			}
		}
	}

	phase2Cost := make([]float64, totalCols)
	for idx, coef := range p.objective.coef {
		phase2Cost[idx] = coef
	}
	// Artificial columns must never re-enter phase 2.
	for _, info := range infos {
		if info.artificialCol >= 0 {
			phase2Cost[info.artificialCol] = math.Inf(1)
		}
	}

	if err := runSimplex(tab, rhs, basis, phase2Cost); err != nil {
		return nil, err
	}

	values := make([]float64, n)
	for i, b := range basis {
		if b < n {
			values[b] = rhs[i]
		}
	}
	return &Solution{values: values}, nil
}

// runSimplex pivots (tab, rhs, basis) to optimality against cost, using
// Bland's rule for both the entering and leaving variable choice.
func runSimplex(tab [][]float64, rhs []float64, basis []int, cost []float64) error {
	m := len(tab)
	if m == 0 {
		return nil
	}
	totalCols := len(tab[0])

	for iter := 0; iter < 10000; iter++ {
		cb := make([]float64, m)
		for i, b := range basis {
			cb[i] = cost[b]
		}

		entering := -1
		for j := 0; j < totalCols; j++ {
			if math.IsInf(cost[j], 1) {
				continue
			}
			reduced := cost[j]
			for i := 0; i < m; i++ {
				// Skipping zero entries keeps a dropped redundant row,
				// whose artificial stays basic at cost +Inf, from turning
				// the reduced cost into NaN.
				if cb[i] == 0 || tab[i][j] == 0 {
					continue
				}
				reduced -= cb[i] * tab[i][j]
			}
			if reduced < -epsilon {
				entering = j
				break // Bland's rule: first eligible column
			}
		}
		if entering == -1 {
			return nil // optimal
		}

		leaving := -1
		best := math.Inf(1)
		for i := 0; i < m; i++ {
			if tab[i][entering] <= epsilon {
				continue
			}
			ratio := rhs[i] / tab[i][entering]
			if ratio < best-epsilon || (ratio < best+epsilon && (leaving == -1 || basis[i] < basis[leaving])) {
				best = ratio
				leaving = i
			}
		}
		if leaving == -1 {
			return ErrUnbounded
		}

		pivot(tab, rhs, basis, leaving, entering)
	}
	return ErrInfeasible
}

func pivot(tab [][]float64, rhs []float64, basis []int, row, col int) {
	m := len(tab)
	pv := tab[row][col]
	for j := range tab[row] {
		tab[row][j] /= pv
	}
	rhs[row] /= pv

	for i := 0; i < m; i++ {
		if i == row {
			continue
		}
		factor := tab[i][col]
		if factor == 0 {
			continue
		}
		for j := range tab[i] {
			tab[i][j] -= factor * tab[row][j]
		}
		rhs[i] -= factor * rhs[row]
	}
	basis[row] = col
}

func objectiveValue(cost []float64, basis []int, rhs []float64) float64 {
	total := 0.0
	for i, b := range basis {
		total += cost[b] * rhs[i]
	}
	return total
}
