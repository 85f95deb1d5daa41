// Package progression implements the stat leveling rule and the engine that
// applies it to the persisted snapshot and records every change.
package progression

import (
	"math"

	"github.com/nvandessel/lvlup/internal/constants"
	"github.com/nvandessel/lvlup/internal/models"
)

// NextMax returns the threshold that follows current after a level-up.
func NextMax(current int) int {
	return int(math.Ceil(float64(current) * constants.LevelGrowthFactor))
}

// Apply computes the state that follows st after delta and reports whether
// a level-up occurred. It is a pure function.
//
// At most one level-up happens per call. The overflow past the old
// threshold becomes the new value and is not tested against the new
// threshold, so a large delta can leave value >= current_max. The next
// non-zero delta that keeps candidate >= current_max levels up again, even
// a negative one. A zero delta changes nothing and is the only case where
// candidate >= current_max does not level up. Level and current_max never
// decrease.
func Apply(st models.Stat, delta int) (models.Stat, bool) {
	if delta == 0 {
		return st, false
	}

	candidate := st.Value + delta
	switch {
	case candidate >= st.CurrentMax:
		st.Level++
		st.Value = candidate - st.CurrentMax
		st.CurrentMax = NextMax(st.CurrentMax)
		return st, true
	case candidate < 0:
		st.Value = 0
	default:
		st.Value = candidate
	}
	return st, false
}
