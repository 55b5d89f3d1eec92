package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ModerationActions applies the consequences of a rejection. Flags and Archive are optional.
type ModerationActions struct {
	Flags   UserFlagStore
	Archive Archiver
	Logger  *slog.Logger
}

// StrikeAndArchive records a strike against the author of rejected content and
// archives a snapshot of it. Each step is best effort; failures are logged.
func (m *ModerationActions) StrikeAndArchive(ctx context.Context, snap RejectedContent) {
	if m == nil {
		return
	}
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if m.Flags != nil && snap.AuthorID != "" {
		flag, err := m.Flags.AddStrike(ctx, snap.AuthorID, strikeReason(snap))
		if err != nil {
			logger.Error("strike failed", "user_id", snap.AuthorID, "record_id", snap.RecordID, "error", err)
		} else {
			logger.Info("strike recorded", "user_id", snap.AuthorID, "strikes", flag.Strikes)
		}
	}

	if m.Archive != nil {
		name, err := m.Archive.Archive(ctx, snap)
		if err != nil {
			logger.Error("archive failed", "record_id", snap.RecordID, "error", err)
		} else {
			logger.Info("rejected content archived", "record_id", snap.RecordID, "object", name)
		}
	}
}

func strikeReason(snap RejectedContent) string {
	reason := fmt.Sprintf("%s %s rejected", snap.ContentType, snap.ContentID)
	if len(snap.FlaggedTerms) > 0 {
		reason += " (" + strings.Join(snap.FlaggedTerms, ", ") + ")"
	}
	return reason
}
