// Package saga orders the hold, cap and commit drafts of a perpetual
// order and assembles the compensating cancel when a step fails.
package saga

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Miminimi234/padd/internal/capability"
	"github.com/Miminimi234/padd/internal/domain"
	"github.com/Miminimi234/padd/internal/hold"
	"github.com/Miminimi234/padd/internal/risk"
)

// Phase is the state of one placement attempt.
type Phase string

const (
	PhaseInit          Phase = "INIT"
	PhaseReserved      Phase = "RESERVED"
	PhaseAuthorized    Phase = "AUTHORIZED"
	PhaseCommitted     Phase = "COMMITTED"
	PhaseCancelPending Phase = "CANCEL_PENDING"
	PhaseCancelled     Phase = "CANCELLED"
	PhaseFailed        Phase = "FAILED"
)

// Terminal reports whether no further transition can happen.
func (p Phase) Terminal() bool {
	return p == PhaseCommitted || p == PhaseCancelled || p == PhaseFailed
}

type HoldStep interface {
	Reserve(req hold.ReserveRequest) (domain.HoldReceipt, domain.Draft, error)
	CancelHold(user domain.Address, receipt domain.HoldReceipt) (domain.Draft, error)
}

type CapStep interface {
	MintCap(req capability.MintRequest) (domain.CapToken, domain.Draft, error)
}

type CommitStep interface {
	Commit(user domain.Address, receipt domain.HoldReceipt, c domain.CapToken) (domain.Draft, error)
}

// Guard is a pre-trade check that may read the ledger once.
type Guard interface {
	Check(ctx context.Context, route domain.Address, side domain.Side, leverage uint32) (risk.Decision, error)
}

// Saga is stateless between calls; every PlaceOrder is an independent
// attempt with fresh hold and cap identifiers.
type Saga struct {
	Holds   HoldStep
	Caps    CapStep
	Commits CommitStep

	// Optional.
	Guard   Guard
	Metrics *Metrics
	Logger  *slog.Logger

	// Zero means the protocol maximum.
	HoldTTLMs uint32
	CapTTLMs  uint32
}

// New wires a saga whose hold and commit steps share one Reserver.
func New(holds *hold.Reserver, caps *capability.Authorizer) *Saga {
	return &Saga{Holds: holds, Caps: caps, Commits: holds}
}

// Attempt is the in-memory record of one placement.
type Attempt struct {
	ID         string
	Phase      Phase
	HoldID     *domain.Address
	CapAddress *domain.Address
	LastErr    error

	log *slog.Logger
}

func (a *Attempt) transition(to Phase) {
	from := a.Phase
	a.Phase = to
	attrs := []any{slog.String("from", string(from)), slog.String("to", string(to))}
	if a.LastErr != nil {
		attrs = append(attrs, slog.Any("error", a.LastErr))
		a.log.Warn("Saga phase transition", attrs...)
		return
	}
	a.log.Info("Saga phase transition", attrs...)
}

// PlaceOrder builds [reserve, mintCap, commit] for params. On failure the
// returned intent holds whatever was built, plus the cancel-hold draft
// when a hold had been reserved, and the error is a *Error. The intent is
// never nil.
func (s *Saga) PlaceOrder(ctx context.Context, params domain.PlaceOrderParams, user, route, quoteMint domain.Address) (*domain.OrderIntent, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &Attempt{ID: uuid.NewString(), Phase: PhaseInit}
	a.log = logger.With(slog.String("attempt", a.ID), slog.String("route", route.String()))
	intent := &domain.OrderIntent{AttemptID: a.ID, Phase: string(PhaseInit)}

	fail := func(step Step, err error) (*domain.OrderIntent, error) {
		a.LastErr = err
		a.transition(PhaseFailed)
		intent.Phase = string(a.Phase)
		s.Metrics.outcome(OutcomeFailed)
		return intent, &Error{AttemptID: a.ID, Step: step, Phase: a.Phase, Err: err}
	}

	if step, err := s.precheck(ctx, params, route); err != nil {
		return fail(step, err)
	}
	if err := ctx.Err(); err != nil {
		return fail(StepReserve, err)
	}

	// 1. Reserve. Nothing to compensate if this fails.
	receipt, reserveDraft, err := s.Holds.Reserve(hold.ReserveRequest{
		User:            user,
		Route:           route,
		InstrumentIndex: params.InstrumentIndex,
		Side:            params.Side,
		Quantity:        params.Quantity,
		LimitPrice:      params.LimitPrice,
		TTLMs:           ttlOr(s.HoldTTLMs, domain.MaxHoldTTLMs),
		CommitmentHash:  params.CommitmentHash,
	})
	if err != nil {
		return fail(StepReserve, err)
	}
	a.HoldID = &receipt.HoldID
	intent.Hold = &receipt
	intent.Drafts = append(intent.Drafts, reserveDraft)
	a.transition(PhaseReserved)

	// 2. Authorize spend up to the order quantity.
	capToken, capDraft, err := s.Caps.MintCap(capability.MintRequest{
		User:      user,
		Route:     route,
		Mint:      quoteMint,
		AmountMax: params.Quantity,
		TTLMs:     ttlOr(s.CapTTLMs, domain.MaxCapTTLMs),
	})
	if err != nil {
		return s.compensate(a, intent, user, StepMintCap, err)
	}
	a.CapAddress = &capToken.Address
	intent.Cap = &capToken
	intent.Drafts = append(intent.Drafts, capDraft)
	a.transition(PhaseAuthorized)

	// 3. Commit the hold against the cap.
	commitDraft, err := s.Commits.Commit(user, receipt, capToken)
	if err != nil {
		return s.compensate(a, intent, user, StepCommit, err)
	}
	intent.Drafts = append(intent.Drafts, commitDraft)
	intent.Hold.Status = domain.HoldCommitted
	a.transition(PhaseCommitted)

	intent.Phase = string(a.Phase)
	s.Metrics.outcome(OutcomeCommitted)
	return intent, nil
}

func (s *Saga) precheck(ctx context.Context, params domain.PlaceOrderParams, route domain.Address) (Step, error) {
	if s.Guard != nil {
		d, err := s.Guard.Check(ctx, route, params.Side, params.Leverage)
		if err != nil {
			return StepGuard, err
		}
		if !d.Allowed {
			return StepGuard, domain.Errorf(domain.ErrAuthorization, "warmup guard", "%s", d.Reason)
		}
	}

	if params.OraclePrice > 0 && !params.IsMarket() {
		if !risk.ValidatePriceBands(params.LimitPrice, params.OraclePrice, params.BandBps) {
			lower, upper := risk.PriceBand(params.OraclePrice, params.BandBps)
			return StepPriceBand, domain.Errorf(domain.ErrValidation, "price band",
				"limit %s outside [%s, %s]", params.LimitPrice, lower, upper)
		}
	}
	return "", nil
}

// compensate moves a reserved attempt to Cancelled with a cancel-hold
// draft, or leaves it in CancelPending when that draft cannot be built.
func (s *Saga) compensate(a *Attempt, intent *domain.OrderIntent, user domain.Address, step Step, cause error) (*domain.OrderIntent, error) {
	a.LastErr = cause
	a.transition(PhaseCancelPending)
	s.Metrics.compensated(step)

	cancel, err := s.Holds.CancelHold(user, *intent.Hold)
	if err != nil {
		a.LastErr = domain.Wrap(domain.ErrCompensationFailure, "cancel hold "+a.HoldID.String(), errors.Join(cause, err))
		a.log.Error("Saga compensation failed; hold stays reserved until its ttl lapses",
			slog.String("hold", a.HoldID.String()), slog.Any("error", err))
		intent.Phase = string(a.Phase)
		s.Metrics.outcome(OutcomeCompensationFailed)
		return intent, &Error{AttemptID: a.ID, Step: step, Phase: a.Phase, Err: a.LastErr}
	}

	intent.Drafts = append(intent.Drafts, cancel)
	intent.Compensation = &intent.Drafts[len(intent.Drafts)-1]
	intent.Hold.Status = domain.HoldCancelled
	a.transition(PhaseCancelled)

	intent.Phase = string(a.Phase)
	s.Metrics.outcome(OutcomeCancelled)
	return intent, &Error{AttemptID: a.ID, Step: step, Phase: a.Phase, Err: cause, Compensation: intent.Compensation}
}

func ttlOr(v, ceiling uint32) uint32 {
	if v == 0 {
		return ceiling
	}
	return v
}
