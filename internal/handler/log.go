package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"time-ledger/internal/models"
	"time-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LogHandler serves the audit log.
type LogHandler struct {
	DB         *gorm.DB
	EncryptKey string
}

func NewLogHandler(db *gorm.DB, encryptKey string) *LogHandler {
	return &LogHandler{
		DB:         db,
		EncryptKey: encryptKey,
	}
}

type logResp struct {
	ID        uint      `json:"id"`
	Action    string    `json:"action"`
	Path      string    `json:"path"`
	Method    string    `json:"method"`
	Status    int       `json:"status"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

func pageParams(c *gin.Context, defSize int) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defSize)))
	if size <= 0 || size > 100 {
		size = defSize
	}
	return page, size
}

func paginate[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// decoded returns every log of the user in the optional [start, end] date
// range, newest first, with path and action decrypted.
func (h *LogHandler) decoded(c *gin.Context, userID uint) ([]logResp, bool) {
	base := h.DB.Model(&models.AuditLog{}).Where("user_id = ?", userID)
	if s := c.Query("start"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid start date")
			return nil, false
		}
		base = base.Where("created_at >= ?", t)
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid end date")
			return nil, false
		}
		base = base.Where("created_at < ?", t.AddDate(0, 0, 1))
	}

	var logs []models.AuditLog
	if err := base.Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query logs failed")
		return nil, false
	}

	out := make([]logResp, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		out = append(out, logResp{
			ID:        l.ID,
			Action:    util.DecryptField(h.EncryptKey, l.ActionEnc),
			Path:      util.DecryptField(h.EncryptKey, l.PathEnc),
			Method:    l.Method,
			Status:    l.Status,
			IP:        l.IP,
			UserAgent: l.UserAgent,
			CreatedAt: l.CreatedAt,
		})
	}
	return out, true
}

// ListLogs pages through the audit log. ?q= matches path or action after
// decryption.
func (h *LogHandler) ListLogs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	page, size := pageParams(c, 20)

	all, ok := h.decoded(c, user.ID)
	if !ok {
		return
	}

	q := strings.TrimSpace(c.Query("q"))
	items := all
	if q != "" {
		items = items[:0:0]
		for _, l := range all {
			if strings.Contains(l.Path, q) || strings.Contains(l.Action, q) {
				items = append(items, l)
			}
		}
	}

	util.Success(c, util.Response{
		"items": paginate(items, page, size),
		"total": len(items),
		"page":  page,
		"size":  size,
	})
}

type entryHistoryResp struct {
	ID        uint      `json:"id"`
	Operation string    `json:"operation"`
	EntryID   string    `json:"entry_id,omitempty"`
	TaskName  string    `json:"task_name,omitempty"`
	ClientID  string    `json:"client_id,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	Status    int       `json:"status"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}

// entryOperation names a time entry mutation, or "" for other requests.
func entryOperation(method, path string, body map[string]interface{}) string {
	switch {
	case method == http.MethodPost && path == "/api/entries":
		if body["end_time"] == nil {
			return "start timer"
		}
		return "add entry"
	case method == http.MethodPost && path == "/api/entries/bulk":
		return "add entries"
	case method == http.MethodPut && strings.HasPrefix(path, "/api/entries/"):
		return "update entry"
	case method == http.MethodDelete && strings.HasPrefix(path, "/api/entries/"):
		return "delete entry"
	}
	return ""
}

// actionBody extracts the JSON request body stored after "METHOD path ".
func actionBody(action string) map[string]interface{} {
	i := strings.Index(action, "{")
	j := strings.LastIndex(action, "}")
	if i < 0 || j <= i {
		return nil
	}
	var body map[string]interface{}
	if json.Unmarshal([]byte(action[i:j+1]), &body) != nil {
		return nil
	}
	return body
}

// ListEntryHistory lists time entry mutations only.
func (h *LogHandler) ListEntryHistory(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	page, size := pageParams(c, 50)

	all, ok := h.decoded(c, user.ID)
	if !ok {
		return
	}

	items := make([]entryHistoryResp, 0)
	for _, l := range all {
		body := actionBody(l.Action)
		op := entryOperation(l.Method, l.Path, body)
		if op == "" {
			continue
		}
		item := entryHistoryResp{
			ID:        l.ID,
			Operation: op,
			Status:    l.Status,
			IP:        l.IP,
			CreatedAt: l.CreatedAt,
		}
		if strings.HasPrefix(l.Path, "/api/entries/") && l.Path != "/api/entries/bulk" {
			item.EntryID = strings.TrimPrefix(l.Path, "/api/entries/")
		}
		if v, ok := body["task_name"].(string); ok {
			item.TaskName = v
		}
		if v, ok := body["client_id"].(string); ok {
			item.ClientID = v
		}
		if v, ok := body["comment"].(string); ok {
			item.Comment = v
		}
		items = append(items, item)
	}

	util.Success(c, util.Response{
		"items": paginate(items, page, size),
		"total": len(items),
		"page":  page,
		"size":  size,
	})
}
