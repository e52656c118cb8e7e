// Package response writes the JSON envelope every endpoint answers with.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/sinar-app/sinar-api/internal/query"
)

type Envelope struct {
	Status     bool   `json:"status"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
	Total      *int64 `json:"total,omitempty"`
	Page       *int   `json:"page,omitempty"`
	Limit      *int   `json:"limit,omitempty"`
	TotalPages *int   `json:"totalPages,omitempty"`
	HasNext    *bool  `json:"hasNext,omitempty"`
	HasPrev    *bool  `json:"hasPrev,omitempty"`
}

func OK(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Envelope{Status: true, Code: code, Message: message, Data: data})
}

// Page writes one page of a listing with its pagination fields.
func Page[T any](c *gin.Context, code int, message string, p *query.Page[T]) {
	c.JSON(code, Envelope{
		Status:     true,
		Code:       code,
		Message:    message,
		Data:       p.Data,
		Total:      &p.Total,
		Page:       &p.Page,
		Limit:      &p.Limit,
		TotalPages: &p.TotalPages,
		HasNext:    &p.HasNext,
		HasPrev:    &p.HasPrev,
	})
}

// Error renders err and aborts the chain. Internal causes are logged and
// replaced by the error's generic message.
func Error(c *gin.Context, err error) {
	appErr := FromBinding(err)
	if appErr.Kind == apperror.KindInternal && appErr.Cause != nil {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, appErr.Cause)
	}
	status := appErr.Kind.Status()
	c.AbortWithStatusJSON(status, Envelope{Status: false, Code: status, Message: appErr.Message})
}

// FromBinding converts gin binding failures into validation errors and
// defers everything else to apperror.From.
func FromBinding(err error) *apperror.Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return apperror.Validation("%s", strings.Join(msgs, "; "))
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return apperror.Validation("Invalid request body")
	}
	return apperror.From(err)
}

// UseFieldTags makes gin's validator report fields by their json or form
// tag instead of the Go field name.
func UseFieldTags() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(key), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	}
	return field + " is " + fe.Tag()
}
