package services

import (
	"context"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// capture runs fn inside an X-Ray subsegment when ctx carries a segment,
// and runs it directly otherwise.
func capture(ctx context.Context, name string, fn func(context.Context) error) error {
	if xray.GetSegment(ctx) == nil {
		return fn(ctx)
	}
	return xray.Capture(ctx, name, fn)
}

// annotate attaches metadata to the current subsegment, if any.
func annotate(ctx context.Context, key string, value interface{}) {
	if seg := xray.GetSegment(ctx); seg != nil {
		seg.AddMetadata(key, value)
	}
}
