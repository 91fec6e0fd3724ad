/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	apiutils "github.com/labforge/homeops/apiserver/pkg/utils"
	commonconfig "github.com/labforge/homeops/common/pkg/config"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
)

const bearerPrefix = "Bearer "

// Authorize returns the middleware enforcing the static bearer token.
// With auth disabled the chain passes through untouched. User and
// session management live outside this service; the token only gates
// access to the automation API.
func Authorize(cfg *commonconfig.AuthConfig) gin.HandlerFunc {
	if cfg == nil || !cfg.Enable {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	token := []byte(cfg.Token)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			apiutils.AbortWithApiError(c, commonerrors.NewUnauthorized("the bearer token is required"))
			return
		}
		presented := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if subtle.ConstantTimeCompare([]byte(presented), token) != 1 {
			apiutils.AbortWithApiError(c, commonerrors.NewUnauthorized("the bearer token is wrong"))
			return
		}
		c.Next()
	}
}
