package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"time-ledger/internal/middleware"
	"time-ledger/internal/models"
	"time-ledger/internal/tracker"
	"time-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// currentUser fetches the user set by AuthMiddleware and answers 401 when
// it is missing.
func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(middleware.CurrentUserKey)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return nil, false
	}
	return user, true
}

// isDuplicate reports a unique constraint violation.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// entryCodec converts between stored rows and wire records.
type entryCodec struct {
	EncryptKey string
	Loc        *time.Location
}

func msPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	return tracker.Int64(tracker.Millis(*t))
}

func timePtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}

func (ec entryCodec) toTracker(e *models.TimeEntry) tracker.TimeEntry {
	start := tracker.Millis(e.StartedAt)
	return tracker.TimeEntry{
		ID:                 e.ID,
		TaskName:           e.TaskName,
		ClientID:           e.ClientID,
		StartTime:          start,
		EndTime:            msPtr(e.EndedAt),
		Duration:           e.Duration,
		TargetDuration:     e.TargetDuration,
		Comment:            util.DecryptField(ec.EncryptKey, e.CommentEnc),
		IsPaused:           e.IsPaused,
		PausedAt:           msPtr(e.PausedAt),
		TotalPauseDuration: e.TotalPauseDuration,
		Date:               tracker.DateOf(start, ec.Loc),
	}
}

// apply copies the mutable fields of t onto row. Completed durations are
// recomputed from the timestamps and an open pause is dropped.
func (ec entryCodec) apply(row *models.TimeEntry, t tracker.TimeEntry) error {
	comment, err := util.EncryptField(ec.EncryptKey, tracker.TruncateComment(t.Comment))
	if err != nil {
		return err
	}
	row.TaskName = strings.TrimSpace(t.TaskName)
	row.ClientID = t.ClientID
	row.StartedAt = time.UnixMilli(t.StartTime).UTC()
	row.EndedAt = timePtr(t.EndTime)
	row.TargetDuration = t.TargetDuration
	row.CommentEnc = comment
	row.TotalPauseDuration = t.TotalPauseDuration
	if t.EndTime != nil {
		row.IsPaused = false
		row.PausedAt = nil
		row.Duration = tracker.CompletedDuration(t.StartTime, *t.EndTime, t.TotalPauseDuration)
		return nil
	}
	row.IsPaused = t.IsPaused
	row.PausedAt = nil
	if t.IsPaused {
		paused := t.StartTime
		if t.PausedAt != nil {
			paused = *t.PausedAt
		}
		row.PausedAt = timePtr(&paused)
	}
	row.Duration = 0
	return nil
}

// validateEntry runs the field checks shared by create and update.
func validateEntry(t tracker.TimeEntry) error {
	if err := tracker.ValidateNew(t.TaskName, t.ClientID); err != nil {
		return err
	}
	if t.StartTime <= 0 {
		return errors.New("start time is required")
	}
	if err := tracker.ValidateTimes(t.StartTime, t.EndTime); err != nil {
		return err
	}
	if t.IsPaused && t.PausedAt != nil && *t.PausedAt < t.StartTime {
		return errors.New("pause cannot precede the start")
	}
	if t.TotalPauseDuration < 0 {
		return errors.New("total pause duration cannot be negative")
	}
	return util.ValidateTarget(t.TargetDuration)
}

func toTrackerClient(c *models.Client) tracker.Client {
	return tracker.Client{ID: c.ID, Name: c.Name, Color: c.Color}
}
