package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"time-ledger/internal/models"
	"time-ledger/internal/tracker"
	"time-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BackupHandler serves encrypted snapshots of a user's clients and entries.
type BackupHandler struct {
	DB        *gorm.DB
	Codec     entryCodec
	BackupDir string
}

func NewBackupHandler(db *gorm.DB, encryptKey, backupDir string, loc *time.Location) *BackupHandler {
	if loc == nil {
		loc = time.Local
	}
	return &BackupHandler{
		DB:        db,
		Codec:     entryCodec{EncryptKey: encryptKey, Loc: loc},
		BackupDir: backupDir,
	}
}

// backupData is the plaintext of a backup file.
type backupData struct {
	UserID  uint                `json:"user_id"`
	Created time.Time           `json:"created"`
	Clients []tracker.Client    `json:"clients"`
	Entries []tracker.TimeEntry `json:"entries"`
}

func backupResp(b *models.Backup) gin.H {
	return gin.H{
		"id":         b.ID,
		"file_name":  b.FileName,
		"size":       b.Size,
		"created_at": b.CreatedAt,
	}
}

// findBackup loads one of the user's backups, answering 404/500 itself.
func (h *BackupHandler) findBackup(c *gin.Context, userID uint) (*models.Backup, bool) {
	var backup models.Backup
	if err := h.DB.
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		First(&backup).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "backup not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query backup failed")
		}
		return nil, false
	}
	return &backup, true
}

// CreateBackup writes an encrypted snapshot of the current user's data.
func (h *BackupHandler) CreateBackup(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var clients []models.Client
	if err := h.DB.Where("user_id = ?", user.ID).Order("created_at ASC, id ASC").Find(&clients).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query data failed")
		return
	}
	var entries []models.TimeEntry
	if err := h.DB.Where("user_id = ?", user.ID).Order("started_at ASC, id ASC").Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query data failed")
		return
	}

	data := backupData{
		UserID:  user.ID,
		Created: time.Now(),
		Clients: make([]tracker.Client, 0, len(clients)),
		Entries: make([]tracker.TimeEntry, 0, len(entries)),
	}
	for i := range clients {
		data.Clients = append(data.Clients, toTrackerClient(&clients[i]))
	}
	for i := range entries {
		data.Entries = append(data.Entries, h.Codec.toTracker(&entries[i]))
	}

	raw, err := json.Marshal(&data)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "encode backup failed")
		return
	}
	enc, err := util.EncryptAES(h.Codec.EncryptKey, raw)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "encrypt backup failed")
		return
	}

	if err := os.MkdirAll(h.BackupDir, 0o755); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create backup dir failed")
		return
	}

	fileName := fmt.Sprintf("backup-%d-%s.bin", user.ID, uuid.NewString())
	filePath := filepath.Join(h.BackupDir, fileName)
	if err := os.WriteFile(filePath, enc, 0o600); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "write backup failed")
		return
	}

	backup := models.Backup{
		UserID:   user.ID,
		FileName: fileName,
		FilePath: filePath,
		Size:     int64(len(enc)),
	}
	if err := h.DB.Create(&backup).Error; err != nil {
		_ = os.Remove(filePath)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save backup record failed")
		return
	}

	util.Success(c, util.Response{"backup": backupResp(&backup)})
}

// ListBackups lists the user's backups, newest first.
func (h *BackupHandler) ListBackups(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var list []models.Backup
	if err := h.DB.
		Where("user_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query backups failed")
		return
	}

	items := make([]gin.H, 0, len(list))
	for i := range list {
		items = append(items, backupResp(&list[i]))
	}
	util.Success(c, util.Response{"items": items})
}

// DownloadBackup streams the encrypted file.
func (h *BackupHandler) DownloadBackup(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	backup, ok := h.findBackup(c, user.ID)
	if !ok {
		return
	}

	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", backup.FileName))
	c.File(backup.FilePath)
}

// DeleteBackup removes the file and its record.
func (h *BackupHandler) DeleteBackup(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	backup, ok := h.findBackup(c, user.ID)
	if !ok {
		return
	}

	_ = os.Remove(backup.FilePath)
	if err := h.DB.Delete(backup).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete backup record failed")
		return
	}

	util.Success(c, util.Response{"message": "deleted"})
}

// RestoreBackup replaces the user's clients and entries with a snapshot.
// Record ids are kept so entries still point at their clients.
func (h *BackupHandler) RestoreBackup(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	backup, ok := h.findBackup(c, user.ID)
	if !ok {
		return
	}

	encData, err := os.ReadFile(backup.FilePath)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "read backup failed")
		return
	}
	raw, err := util.DecryptAES(h.Codec.EncryptKey, encData)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "decrypt backup failed")
		return
	}
	var data backupData
	if err := json.Unmarshal(raw, &data); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "decode backup failed")
		return
	}
	if data.UserID != 0 && data.UserID != user.ID {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "backup belongs to another user")
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.TimeEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Client{}).Error; err != nil {
			return err
		}
		for _, cl := range data.Clients {
			row := models.Client{ID: cl.ID, UserID: user.ID, Name: cl.Name, Color: cl.Color}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		for _, e := range data.Entries {
			row := models.TimeEntry{ID: e.ID, UserID: user.ID}
			if err := h.Codec.apply(&row, e); err != nil {
				return err
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "restore failed")
		return
	}

	util.Success(c, util.Response{
		"message":       "restored",
		"clients_count": len(data.Clients),
		"entries_count": len(data.Entries),
	})
}
