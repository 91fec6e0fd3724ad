/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package utils

import (
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

// Logger returns the access log middleware. One line per request with
// method, path, status, client address and latency; the errors the
// handlers attached to the context follow on their own lines.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		klog.Infof("%s %s %d %s %v", c.Request.Method, path,
			c.Writer.Status(), c.ClientIP(), time.Since(start).Round(time.Millisecond))
		for _, ginErr := range c.Errors {
			klog.ErrorS(ginErr.Err, "request failed", "method", c.Request.Method, "path", path)
		}
	}
}
