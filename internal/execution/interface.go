package execution

import (
	"context"
	"fmt"

	"github.com/Miminimi234/padd/internal/domain"
)

// SignedDraft pairs a draft with the payload its signer produced.
type SignedDraft struct {
	Kind    domain.DraftKind `json:"kind"`
	Payload []byte           `json:"payload"`
}

// SignAll signs the intent's drafts in submission order. The
// compensation draft is not signed here: the caller signs it only if the
// reserve was actually submitted. Signing stops at the first failure and
// returns what was signed so far.
func SignAll(ctx context.Context, signer domain.Signer, intent *domain.OrderIntent) ([]SignedDraft, error) {
	out := make([]SignedDraft, 0, len(intent.Drafts))
	for i, d := range intent.Drafts {
		if d.Kind == domain.DraftCancelHold {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		payload, err := signer.Sign(ctx, d)
		if err != nil {
			return out, fmt.Errorf("failed to sign draft %d (%s): %w", i, d.Kind, err)
		}
		out = append(out, SignedDraft{Kind: d.Kind, Payload: payload})
	}
	return out, nil
}
