// internal/app/membership/privacy.go
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/guildhall/internal/app/policy/privacypolicy"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// PrivacyView is a user's privacy settings plus the flags their bound
// category forces hidden. Violations lists stored flags that are shown
// although the category hides them; the next edit switches them off.
type PrivacyView struct {
	Settings     models.UserPrivacySettings `json:"settings"`
	ForcedFields []string                   `json:"forced_fields"`
	Violations   []string                   `json:"violations,omitempty"`
}

// PrivacyUpdate is the result of UpdatePrivacySettings.
type PrivacyUpdate struct {
	Settings models.UserPrivacySettings `json:"settings"`
	// Applied lists the fields whose value changed.
	Applied []string `json:"applied"`
	// BlockedFields lists requested fields dropped because the user's
	// category forces them hidden.
	BlockedFields []string `json:"blocked_fields"`
}

// GetPrivacySettings returns userID's settings, creating the platform
// defaults on first read.
func (e *Engine) GetPrivacySettings(ctx context.Context, userID primitive.ObjectID) (PrivacyView, error) {
	now := e.clock()
	ps, found, err := e.privacy.GetOrDefault(ctx, userID, now)
	if err != nil {
		return PrivacyView{}, fmt.Errorf("load privacy settings: %w", err)
	}
	if !found {
		if err := e.privacy.Save(ctx, ps, now); err != nil {
			return PrivacyView{}, fmt.Errorf("save privacy settings: %w", err)
		}
	}
	cat, err := e.boundCategory(ctx, ps)
	if err != nil {
		return PrivacyView{}, err
	}
	view := PrivacyView{Settings: ps, ForcedFields: forcedFields(cat)}
	if cat != nil {
		if v := privacypolicy.Violations(&ps, cat); len(v) > 0 {
			e.log.Warn("privacy settings violate bound category",
				zap.String("user_id", userID.Hex()),
				zap.String("category_id", cat.ID.Hex()),
				zap.Strings("fields", v))
			view.Violations = v
		}
	}
	return view, nil
}

func forcedFields(cat *models.SensitiveJobCategory) []string {
	out := []string{}
	for _, d := range privacypolicy.Dimensions {
		if d.Forced(cat) {
			out = append(out, d.ShowField)
		}
	}
	return out
}

// boundCategory loads the category on ps, or nil when none is bound.
func (e *Engine) boundCategory(ctx context.Context, ps models.UserPrivacySettings) (*models.SensitiveJobCategory, error) {
	if ps.CategoryID == nil {
		return nil, nil
	}
	cat, err := e.categories.GetByID(ctx, *ps.CategoryID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		e.log.Warn("privacy settings bound to missing sensitive job category",
			zap.String("user_id", ps.UserID.Hex()),
			zap.String("category_id", ps.CategoryID.Hex()))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	return &cat, nil
}

// UpdatePrivacySettings applies a user's own privacy edit.
//
// Fields gated by an active force-hide on the user's category are stripped
// and returned in BlockedFields; the rest are saved. An edit where nothing is
// left to change is a no-op, not an error. Any flag found violating the
// category is switched back off in the same write. Every changed flag gets
// one audit entry.
//
// Fails with ErrForbidden when the platform has privacy changes switched off,
// and with ErrInvalidInput when a field is not a privacy flag.
func (e *Engine) UpdatePrivacySettings(ctx context.Context, userID primitive.ObjectID, changes map[string]bool) (PrivacyUpdate, error) {
	defer e.metrics.ObserveOperation("update_privacy", time.Now())

	site, err := e.settings.Get(ctx)
	if err != nil {
		return PrivacyUpdate{}, fmt.Errorf("load site settings: %w", err)
	}
	if !site.AllowPrivacyChanges {
		e.audit.PrivacyChangesDisabled(ctx, userID)
		return PrivacyUpdate{}, forbidden("privacy changes are currently disabled")
	}
	for field := range changes {
		if !privacypolicy.IsField(field) {
			return PrivacyUpdate{}, invalidInput("unknown privacy field %q", field)
		}
	}

	var (
		out      PrivacyUpdate
		catID    *primitive.ObjectID
		enforced []string
	)
	err = e.inTxn(ctx, func(ctx context.Context) error {
		out, catID, enforced = PrivacyUpdate{}, nil, nil
		now := e.clock()

		ps, _, err := e.privacy.GetOrDefault(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("load privacy settings: %w", err)
		}
		cat, err := e.boundCategory(ctx, ps)
		if err != nil {
			return err
		}
		catID = ps.CategoryID

		allowed, blocked, err := privacypolicy.Strip(changes, cat)
		if err != nil {
			return invalidInput("%s", err.Error())
		}
		applied, err := privacypolicy.Apply(&ps, allowed)
		if err != nil {
			return invalidInput("%s", err.Error())
		}
		reenforced := privacypolicy.Cascade(&ps, cat)

		out.Settings = ps
		out.Applied = changedFields(applied)
		out.BlockedFields = blocked
		if len(applied) == 0 && len(reenforced) == 0 {
			return nil
		}

		if err := e.privacy.Save(ctx, ps, now); err != nil {
			return fmt.Errorf("save privacy settings: %w", err)
		}
		entries := auditEntries(userID, userID, models.ChangedByUser, "user update", applied, now)
		if cat != nil {
			reason := fmt.Sprintf("re-enforced by category %s", cat.Name)
			entries = append(entries, auditEntries(userID, userID, models.ChangedBySystem, reason, reenforced, now)...)
		}
		enforced = changedFields(reenforced)
		return e.privacyAudit.Append(ctx, entries)
	})
	if err != nil {
		return PrivacyUpdate{}, err
	}

	if out.Applied == nil {
		out.Applied = []string{}
	}
	if out.BlockedFields == nil {
		out.BlockedFields = []string{}
	}

	e.metrics.ObservePrivacyUpdate(out.BlockedFields, len(out.Applied))
	if len(out.Applied) > 0 || len(enforced) > 0 {
		e.audit.PrivacyUpdated(ctx, userID, userID, append(out.Applied, enforced...), out.BlockedFields)
	}
	if len(out.BlockedFields) > 0 {
		e.audit.PrivacyFieldsBlocked(ctx, userID, catID, out.BlockedFields)
	}
	return out, nil
}

// ListPrivacyAudit returns userID's privacy history, newest first.
func (e *Engine) ListPrivacyAudit(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.PrivacyAuditLogEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return e.privacyAudit.ListByUser(ctx, userID, limit)
}
