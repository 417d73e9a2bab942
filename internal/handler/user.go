package handler

import (
	"github.com/gin-gonic/gin"

	"time-ledger/internal/util"
)

// GetMe returns the logged-in user.
func GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	util.Success(c, util.Response{"user": userResp(user)})
}
