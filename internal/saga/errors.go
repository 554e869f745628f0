package saga

import (
	"fmt"

	"github.com/Miminimi234/padd/internal/domain"
)

// Step names the saga step that failed.
type Step string

const (
	StepGuard     Step = "guard"
	StepPriceBand Step = "price_band"
	StepReserve   Step = "reserve"
	StepMintCap   Step = "mint_cap"
	StepCommit    Step = "commit"
)

// Error reports the step that failed and the phase the attempt ended in.
// Compensation is the cancel-hold draft the caller must submit if the
// reserve draft was already submitted; nil when nothing was reserved or
// the draft could not be built.
type Error struct {
	AttemptID    string
	Step         Step
	Phase        Phase
	Err          error
	Compensation *domain.Draft
}

func (e *Error) Error() string {
	return fmt.Sprintf("place order %s: step %s failed (%s): %v", e.AttemptID, e.Step, e.Phase, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
