package handler

import (
	"errors"
	"net/http"

	"time-ledger/internal/models"
	"time-ledger/internal/tracker"
	"time-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetTimer reports the active entry with its live duration and goal status.
func (h *EntryHandler) GetTimer(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var row models.TimeEntry
	err := h.DB.Where("user_id = ? AND ended_at IS NULL", user.ID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.Success(c, util.Response{"entry": nil})
		return
	}
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query timer failed")
		return
	}

	e := h.Codec.toTracker(&row)
	now := tracker.Millis(h.Now())
	effective := tracker.EffectiveDuration(e, now)
	resp := util.Response{
		"entry":     e,
		"state":     e.State().String(),
		"effective": effective,
		"display":   tracker.FormatDuration(effective),
		"goal":      nil,
	}
	if g, ok := tracker.Goal(e, now); ok {
		resp["goal"] = g
	}
	util.Success(c, resp)
}

// GetAnalytics aggregates the user's entries for ?filter= (default thisMonth).
func (h *EntryHandler) GetAnalytics(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	filter, err := tracker.ParseDateFilter(c.Query("filter"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	entries, err := h.loadEntries(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query entries failed")
		return
	}
	var rows []models.Client
	if err := h.DB.Where("user_id = ?", user.ID).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query clients failed")
		return
	}
	clients := make([]tracker.Client, 0, len(rows))
	for i := range rows {
		clients = append(clients, toTrackerClient(&rows[i]))
	}

	report := tracker.Aggregate(entries, clients, filter, h.Now(), h.Codec.Loc)
	util.Success(c, util.Response{
		"report":       report,
		"recent_tasks": tracker.RecentTaskNames(entries, 10),
	})
}
