package middleware

import (
	"errors"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/austinhq/austin-web/internal/classifier"
	"github.com/austinhq/austin-web/internal/logger"
)

// ErrorRenderer presents a classification result to the client
type ErrorRenderer interface {
	Render(c *gin.Context, res classifier.Result)
}

// ErrorHandler is the terminal handler for request errors. It recovers
// panics and picks up errors attached with c.Error, classifies them and
// renders the resulting view. Only the last attached error is rendered.
func ErrorHandler(cls *classifier.Classifier, renderer ErrorRenderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			err := classifier.FromPanic(rec)
			if isBrokenConnection(err) {
				logger.Ctx(c.Request.Context()).Warn("client connection lost", logger.Err(err))
				c.Abort()
				return
			}
			handleError(c, cls, renderer, err, debug.Stack())
		}()

		c.Next()

		if last := c.Errors.Last(); last != nil {
			handleError(c, cls, renderer, last.Err, nil)
		}
	}
}

func handleError(c *gin.Context, cls *classifier.Classifier, renderer ErrorRenderer, err error, stack []byte) {
	res := cls.Classify(err)

	fields := []logger.Field{
		logger.String("view", res.View),
		logger.Stringer("category", res.Category),
		logger.String("error_type", res.Type),
		logger.String("path", c.Request.URL.Path),
		logger.String("error", res.Detail),
	}
	if stack != nil {
		fields = append(fields, logger.String("stack", string(stack)))
	}
	logger.Ctx(c.Request.Context()).Error("request failed", fields...)

	c.Abort()
	if c.Writer.Written() {
		// Headers are already out; nothing more can be shown
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Ctx(c.Request.Context()).Error("error view rendering failed",
				logger.Any("panic", rec),
				logger.String("view", res.View),
			)
			if !c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}
	}()
	renderer.Render(c, res)
}

// isBrokenConnection reports errors caused by the client going away,
// which are not worth an error page.
func isBrokenConnection(err error) bool {
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if errors.As(opErr, &sysErr) {
		msg := strings.ToLower(sysErr.Error())
		return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
	}
	return false
}
