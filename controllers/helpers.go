package controllers

import (
	"net/http"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	apperrors "github.com/yashrajoria/storefront-service/common/errors"
	"github.com/yashrajoria/storefront-service/common/logger"
	"github.com/yashrajoria/storefront-service/middleware"
	"github.com/yashrajoria/storefront-service/models"
	"go.uber.org/zap"
)

var paymentReferencePattern = regexp.MustCompile(`^[A-Za-z0-9._=\-]{1,100}$`)

var registerOnce sync.Once

// RegisterValidators adds the storefront's custom tags to gin's validator.
// It is safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("payment_reference", func(fl validator.FieldLevel) bool {
				return paymentReferencePattern.MatchString(fl.Field().String())
			})
		}
	})
}

// respondError writes err as {"error": message} with the status carried by
// the error. Anything that is not an application error becomes a generic 500.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	_ = c.Error(err)
	if appErr.Code >= http.StatusInternalServerError {
		logger.Error(c, "request failed", err, zap.String("path", c.FullPath()))
	}
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
}

// currentUser returns the authenticated user or writes a 401.
func currentUser(c *gin.Context) (models.CurrentUser, bool) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: missing user"})
	}
	return user, ok
}
