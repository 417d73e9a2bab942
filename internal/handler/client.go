package handler

import (
	"errors"
	"net/http"
	"strings"

	"time-ledger/internal/models"
	"time-ledger/internal/tracker"
	"time-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientHandler serves the client list.
type ClientHandler struct {
	DB *gorm.DB
}

func NewClientHandler(db *gorm.DB) *ClientHandler {
	return &ClientHandler{DB: db}
}

type createClientReq struct {
	Name  string `json:"name" binding:"required,max=64"`
	Color string `json:"color" binding:"max=16"`
}

// ListClients returns the user's clients in creation order.
func (h *ClientHandler) ListClients(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var list []models.Client
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("created_at ASC, id ASC").
		Find(&list).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query clients failed")
		return
	}

	items := make([]tracker.Client, 0, len(list))
	for i := range list {
		items = append(items, toTrackerClient(&list[i]))
	}
	util.Success(c, util.Response{"items": items})
}

// CreateClient is the quick-add path: a name and an optional colour.
func (h *ClientHandler) CreateClient(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createClientReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := util.ValidateClientName(req.Name); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	color, err := tracker.ResolveColor(req.Name, req.Color)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	client := models.Client{
		ID:     uuid.NewString(),
		UserID: user.ID,
		Name:   req.Name,
		Color:  color,
	}
	if err := h.DB.Create(&client).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save client failed")
		return
	}

	util.Success(c, util.Response{"client": toTrackerClient(&client)})
}

// DeleteClient removes a client together with all of its entries.
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var removed int64
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.Where("id = ? AND user_id = ?", id, user.ID).First(&client).Error; err != nil {
			return err
		}
		res := tx.Where("client_id = ? AND user_id = ?", client.ID, user.ID).Delete(&models.TimeEntry{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return tx.Delete(&client).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "client not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete client failed")
		}
		return
	}

	util.Success(c, util.Response{
		"message":         "deleted",
		"entries_deleted": removed,
	})
}
