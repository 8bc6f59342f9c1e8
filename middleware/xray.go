package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/gofiber/fiber/v2"
)

// untracedPrefixes are probes and static pages that would only add noise.
var untracedPrefixes = []string{"/health", "/docs"}

// XRayMiddleware opens one X-Ray segment per API request and makes it the
// request's user context, so store and stream calls nest under it.
func XRayMiddleware(segmentName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if untraced(c.Path()) {
			return c.Next()
		}

		ctx, seg := xray.BeginSegment(c.UserContext(), segmentName)
		describeRequest(seg, c)
		c.SetUserContext(ctx)

		err := c.Next()

		seg.GetHTTP().GetResponse().Status = responseStatus(c, err)
		seg.Close(err)
		return err
	}
}

// GetXRayContext returns the context handlers pass to services. It carries
// the request segment when tracing is enabled.
func GetXRayContext(c *fiber.Ctx) context.Context {
	return c.UserContext()
}

func untraced(path string) bool {
	for _, prefix := range untracedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func describeRequest(seg *xray.Segment, c *fiber.Ctx) {
	req := seg.GetHTTP().GetRequest()
	req.Method = c.Method()
	req.URL = c.OriginalURL()
	req.ClientIP = c.IP()
	req.UserAgent = c.Get(fiber.HeaderUserAgent)

	_ = seg.AddAnnotation("route", c.Path())
}

// responseStatus is the status the client will see. Errors returned up the
// chain are rendered later by the app's ErrorHandler.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
