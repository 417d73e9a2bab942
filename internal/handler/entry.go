package handler

import (
	"errors"
	"net/http"
	"time"

	"time-ledger/internal/models"
	"time-ledger/internal/tracker"
	"time-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntryHandler serves time entries, the active timer and analytics.
type EntryHandler struct {
	DB    *gorm.DB
	Codec entryCodec
	Now   func() time.Time
}

func NewEntryHandler(db *gorm.DB, encryptKey string, loc *time.Location) *EntryHandler {
	if loc == nil {
		loc = time.Local
	}
	return &EntryHandler{
		DB:    db,
		Codec: entryCodec{EncryptKey: encryptKey, Loc: loc},
		Now:   time.Now,
	}
}

// ---------- request types ----------

type entryReq struct {
	TaskName           string `json:"task_name" binding:"max=255"`
	ClientID           string `json:"client_id" binding:"max=36"`
	StartTime          int64  `json:"start_time"`
	EndTime            *int64 `json:"end_time"`
	TargetDuration     *int64 `json:"target_duration"`
	Comment            string `json:"comment"`
	IsPaused           bool   `json:"is_paused"`
	PausedAt           *int64 `json:"paused_at"`
	TotalPauseDuration int64  `json:"total_pause_duration"`
}

func (r entryReq) entry() tracker.TimeEntry {
	return tracker.TimeEntry{
		TaskName:           r.TaskName,
		ClientID:           r.ClientID,
		StartTime:          r.StartTime,
		EndTime:            r.EndTime,
		TargetDuration:     r.TargetDuration,
		Comment:            r.Comment,
		IsPaused:           r.IsPaused,
		PausedAt:           r.PausedAt,
		TotalPauseDuration: r.TotalPauseDuration,
	}
}

type bulkEntryReq struct {
	Entries []entryReq `json:"entries" binding:"required,min=1,max=200,dive"`
}

var errClientNotFound = errors.New("client not found")

func (h *EntryHandler) ownsClient(tx *gorm.DB, userID uint, clientID string) error {
	var n int64
	if err := tx.Model(&models.Client{}).
		Where("id = ? AND user_id = ?", clientID, userID).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return errClientNotFound
	}
	return nil
}

// writeSaveError maps storage errors of a create or update.
func writeSaveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errClientNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, err.Error())
	case isDuplicate(err):
		util.Error(c, http.StatusConflict, util.CodeConflict, "another timer is already running")
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save entry failed")
	}
}

// ---------- create ----------

// CreateEntry starts a timer (no end_time) or records a manual entry.
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req entryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	t := req.entry()
	if err := validateEntry(t); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	row := models.TimeEntry{ID: uuid.NewString(), UserID: user.ID}
	if err := h.Codec.apply(&row, t); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "encrypt comment failed")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := h.ownsClient(tx, user.ID, row.ClientID); err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		writeSaveError(c, err)
		return
	}

	util.Success(c, util.Response{"entry": h.Codec.toTracker(&row)})
}

// CreateEntries stores several completed manual entries atomically.
func (h *EntryHandler) CreateEntries(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req bulkEntryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	rows := make([]models.TimeEntry, len(req.Entries))
	for i, r := range req.Entries {
		t := r.entry()
		if t.EndTime == nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "bulk entries must have an end time")
			return
		}
		if err := validateEntry(t); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return
		}
		rows[i] = models.TimeEntry{ID: uuid.NewString(), UserID: user.ID}
		if err := h.Codec.apply(&rows[i], t); err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "encrypt comment failed")
			return
		}
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := h.ownsClient(tx, user.ID, rows[i].ClientID); err != nil {
				return err
			}
			if err := tx.Create(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		writeSaveError(c, err)
		return
	}

	items := make([]tracker.TimeEntry, 0, len(rows))
	for i := range rows {
		items = append(items, h.Codec.toTracker(&rows[i]))
	}
	util.Success(c, util.Response{"items": items})
}

// ---------- update ----------

// UpdateEntry replaces the mutable state of an entry: pause bookkeeping,
// stop, and edits of times, task, client and comment.
func (h *EntryHandler) UpdateEntry(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req entryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	t := req.entry()
	if err := validateEntry(t); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	var row models.TimeEntry
	if err := h.DB.Where("id = ? AND user_id = ?", c.Param("id"), user.ID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "entry not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query entry failed")
		}
		return
	}

	if row.EndedAt != nil && t.EndTime == nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, tracker.ErrEntryCompleted.Error())
		return
	}
	if t.TotalPauseDuration < row.TotalPauseDuration {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "total pause duration cannot decrease")
		return
	}

	if err := h.Codec.apply(&row, t); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "encrypt comment failed")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := h.ownsClient(tx, user.ID, row.ClientID); err != nil {
			return err
		}
		return tx.Omit("User", "Client").Save(&row).Error
	})
	if err != nil {
		writeSaveError(c, err)
		return
	}

	util.Success(c, util.Response{"entry": h.Codec.toTracker(&row)})
}

// ---------- list / delete ----------

// ListEntries returns the user's entries, newest start first. ?filter=
// narrows the list with the analytics date filters.
func (h *EntryHandler) ListEntries(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	filter := tracker.FilterAll
	if s := c.Query("filter"); s != "" {
		f, err := tracker.ParseDateFilter(s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return
		}
		filter = f
	}

	entries, err := h.loadEntries(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query entries failed")
		return
	}

	now := h.Now().In(h.Codec.Loc)
	items := make([]tracker.TimeEntry, 0, len(entries))
	for _, e := range entries {
		if filter.Includes(e, now) {
			items = append(items, e)
		}
	}

	util.Success(c, util.Response{
		"items": items,
		"total": len(items),
	})
}

func (h *EntryHandler) loadEntries(userID uint) ([]tracker.TimeEntry, error) {
	var rows []models.TimeEntry
	if err := h.DB.Where("user_id = ?", userID).
		Order("started_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]tracker.TimeEntry, 0, len(rows))
	for i := range rows {
		out = append(out, h.Codec.toTracker(&rows[i]))
	}
	return out, nil
}

// DeleteEntry removes one of the user's entries.
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	res := h.DB.Where("id = ? AND user_id = ?", c.Param("id"), user.ID).Delete(&models.TimeEntry{})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete entry failed")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "entry not found")
		return
	}

	util.Success(c, util.Response{"message": "deleted"})
}
