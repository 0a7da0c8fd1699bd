package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"auditorium/internal/middleware"
	"auditorium/internal/service"
	"auditorium/pkg/constraints"
	"auditorium/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var registerTagNames sync.Once

// useJSONFieldNames makes binding errors report json field names.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func respondBindError(c *gin.Context, err error) {
	var fields []fieldError
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields = append(fields, fieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrorBody(c, constraints.CodeValidation, "invalid request", fields))
}

func respondError(c *gin.Context, err error) {
	if e := service.AsError(err); e != nil {
		middleware.AbortWithError(c, e.Status, e.Code, e.Message)
		return
	}
	logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	middleware.AbortWithError(c, http.StatusInternalServerError, constraints.CodeInternal, "internal server error")
}

func operator(c *gin.Context) *service.OperatorInfo {
	return service.GetOperatorInfo(c.Request.Context())
}
