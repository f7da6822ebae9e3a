package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ProPlanKeyField is the public-metadata field holding the pro-plan key.
const ProPlanKeyField = "proPlanKey"

// Demoter clears an expired pro-plan key from a user's profile so future
// requests fall back to the free plan. It is only ever invoked after the key
// validator reported the pro key as UNAUTHORIZED; an UNKNOWN_ERROR result must
// never reach it.
type Demoter struct {
	identity *IdentityClient
	logger   *zap.Logger
}

// NewDemoter creates a demoter backed by the given identity client.
func NewDemoter(identity *IdentityClient, logger *zap.Logger) *Demoter {
	return &Demoter{identity: identity, logger: logger}
}

// Demote performs a read-modify-write on the user's public metadata, clearing
// only the pro-plan key field and preserving everything else.
//
// A failed profile fetch is reported as an error: the caller cannot tell
// whether the user even exists and must reject the original request. A failed
// write is logged and swallowed; correctness depends on the caller
// re-validating the free-plan key, not on the demotion landing.
func (d *Demoter) Demote(ctx context.Context, userID string) error {
	user, err := d.identity.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetching user profile: %w", err)
	}

	meta := make(map[string]any, len(user.PublicMetadata)+1)
	for k, v := range user.PublicMetadata {
		meta[k] = v
	}
	meta[ProPlanKeyField] = nil

	if _, err := d.identity.UpdateUserMetadata(ctx, userID, meta); err != nil {
		d.logger.Error("could not clear expired pro plan key",
			zap.String("user_id", userID), zap.Error(err))
	}

	return nil
}
