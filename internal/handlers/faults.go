package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/austinhq/austin-web/internal/apierror"
)

// UnauthorizedError reports a caller without permission for a resource.
type UnauthorizedError struct {
	Permission string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("missing permission %q", e.Permission)
}

// UnauthenticatedError reports a request without a valid session.
type UnauthenticatedError struct{}

func (e *UnauthenticatedError) Error() string { return "not authenticated" }

// LockedAccountError reports a login against a locked account.
type LockedAccountError struct {
	Account string
}

func (e *LockedAccountError) Error() string {
	return fmt.Sprintf("account %s is locked", e.Account)
}

// FaultHandler exposes routes that fail on purpose so error views and
// classification can be checked in development.
type FaultHandler struct{}

// NewFaultHandler creates a new fault handler
func NewFaultHandler() *FaultHandler {
	return &FaultHandler{}
}

// Register mounts the fault routes under group
func (h *FaultHandler) Register(group *gin.RouterGroup) {
	group.GET("/arithmetic", h.Arithmetic)
	group.GET("/nil", h.NilReference)
	group.GET("/unauthorized", h.Unauthorized)
	group.GET("/unauthenticated", h.Unauthenticated)
	group.GET("/locked", h.Locked)
	group.GET("/error", h.Plain)
	group.GET("/panic", h.Panic)
}

// Arithmetic handles GET /arithmetic?divisor=N
// An absent or zero divisor triggers an integer divide by zero; a
// non-integer one is a bad request.
func (h *FaultHandler) Arithmetic(c *gin.Context) {
	divisor, err := strconv.Atoi(c.DefaultQuery("divisor", "0"))
	if err != nil {
		apierror.WriteProblem(c, apierror.NewValidationError(apierror.GetRequestID(c), []apierror.FieldError{
			{Field: "divisor", Message: "divisor must be an integer", Code: "invalid"},
		}))
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": 100 / divisor})
}

type faultSample struct {
	Name string
}

// NilReference handles GET /nil
func (h *FaultHandler) NilReference(c *gin.Context) {
	var samples map[string]*faultSample
	c.JSON(http.StatusOK, gin.H{"name": samples["missing"].Name})
}

// Unauthorized handles GET /unauthorized
func (h *FaultHandler) Unauthorized(c *gin.Context) {
	_ = c.Error(fmt.Errorf("load settings: %w", &UnauthorizedError{Permission: "settings:view"}))
}

// Unauthenticated handles GET /unauthenticated
func (h *FaultHandler) Unauthenticated(c *gin.Context) {
	_ = c.Error(&UnauthenticatedError{})
}

// Locked handles GET /locked
func (h *FaultHandler) Locked(c *gin.Context) {
	_ = c.Error(&LockedAccountError{Account: c.DefaultQuery("account", "admin")})
}

// Plain handles GET /error
func (h *FaultHandler) Plain(c *gin.Context) {
	_ = c.Error(errors.New("something went wrong"))
}

// Panic handles GET /panic
func (h *FaultHandler) Panic(c *gin.Context) {
	panic(c.DefaultQuery("value", "unexpected state"))
}
