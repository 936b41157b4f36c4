package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope shared by every /api endpoint.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AppError carries an HTTP status and an application code to the response layer.
type AppError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

// NewAppError uses status as both the HTTP status and the envelope code.
func NewAppError(status int, msg string) *AppError {
	return &AppError{HTTPStatus: status, Code: status, Message: msg}
}

func NewBadRequest(msg string) *AppError   { return NewAppError(http.StatusBadRequest, msg) }
func NewUnauthorized(msg string) *AppError { return NewAppError(http.StatusUnauthorized, msg) }
func NewForbidden(msg string) *AppError    { return NewAppError(http.StatusForbidden, msg) }
func NewNotFound(msg string) *AppError     { return NewAppError(http.StatusNotFound, msg) }
func NewTooManyRequests(msg string) *AppError {
	return NewAppError(http.StatusTooManyRequests, msg)
}

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "ok", Data: data})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

// Error writes err as a JSON error. *AppError keeps its status and message;
// anything else becomes a 500 without leaking the underlying error text.
func Error(c *gin.Context, err error) {
	c.JSON(statusAndBody(c, err))
}

// Abort is Error for middleware: it also stops the handler chain.
func Abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusAndBody(c, err))
}

func statusAndBody(c *gin.Context, err error) (int, Response) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus, Response{Code: appErr.Code, Message: appErr.Message}
	}
	_ = c.Error(err)
	return http.StatusInternalServerError, Response{Code: http.StatusInternalServerError, Message: "internal server error"}
}

func BadRequest(c *gin.Context, msg string)   { Error(c, NewBadRequest(msg)) }
func Unauthorized(c *gin.Context, msg string) { Error(c, NewUnauthorized(msg)) }
