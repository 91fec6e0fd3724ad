/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package vaulthandlers

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	apiutils "github.com/labforge/homeops/apiserver/pkg/utils"
	"github.com/labforge/homeops/common/pkg/constvar"
	"github.com/labforge/homeops/common/pkg/crypto"
	dbclient "github.com/labforge/homeops/common/pkg/database/client"
	dbutils "github.com/labforge/homeops/common/pkg/database/utils"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
)

var secretNameRe = regexp.MustCompile(constvar.SecretNamePattern)

type handleFunc func(*gin.Context) (interface{}, error)

// handle executes the handler function and processes the response/error
func handle(c *gin.Context, fn handleFunc) {
	response, err := fn(c)
	if err != nil {
		apiutils.AbortWithApiError(c, err)
		return
	}
	code := http.StatusOK
	if c.Writer.Status() > 0 {
		code = c.Writer.Status()
	}
	switch responseType := response.(type) {
	case []byte:
		c.Data(code, apiutils.JsonContentType, responseType)
	case string:
		c.Data(code, apiutils.JsonContentType, []byte(responseType))
	default:
		c.JSON(code, responseType)
	}
}

// Handler owns the vault secret endpoints. Plaintext exists only in
// the request payload and in this process while encrypting; neither it
// nor the ciphertext is ever written to a response or a log line.
type Handler struct {
	store  dbclient.Interface
	cipher *crypto.Crypto
}

func NewHandler(store dbclient.Interface, cipher *crypto.Crypto) *Handler {
	return &Handler{
		store:  store,
		cipher: cipher,
	}
}

// CreateVaultSecret stores a new encrypted secret
func (h *Handler) CreateVaultSecret(c *gin.Context) {
	handle(c, h.createVaultSecret)
}

// ListVaultSecrets lists secret metadata
func (h *Handler) ListVaultSecrets(c *gin.Context) {
	handle(c, h.listVaultSecrets)
}

// GetVaultSecret gets secret metadata by id
func (h *Handler) GetVaultSecret(c *gin.Context) {
	handle(c, h.getVaultSecret)
}

// UpdateVaultSecret rotates a secret's content and description
func (h *Handler) UpdateVaultSecret(c *gin.Context) {
	handle(c, h.updateVaultSecret)
}

// DeleteVaultSecret removes a secret
func (h *Handler) DeleteVaultSecret(c *gin.Context) {
	handle(c, h.deleteVaultSecret)
}

func (h *Handler) createVaultSecret(c *gin.Context) (interface{}, error) {
	req := &VaultSecretReq{}
	if err := c.ShouldBindJSON(req); err != nil {
		return nil, commonerrors.NewBadRequest(err.Error())
	}
	if err := validateSecret(req); err != nil {
		return nil, err
	}

	encrypted, err := h.cipher.Encrypt([]byte(req.Content))
	if err != nil {
		return nil, err
	}
	id, err := h.store.InsertVaultSecret(c.Request.Context(), &dbclient.VaultSecret{
		Name:             req.Name,
		Description:      dbutils.NullString(req.Description),
		EncryptedContent: encrypted,
	})
	if err != nil {
		return nil, err
	}

	secret, err := h.store.GetVaultSecret(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	return cvtSecret(secret), nil
}

func (h *Handler) listVaultSecrets(c *gin.Context) (interface{}, error) {
	limit, offset, err := apiutils.PageParams(c)
	if err != nil {
		return nil, err
	}

	orderBy := []string{"name ASC"}
	secrets, err := h.store.SelectVaultSecrets(c.Request.Context(), nil, orderBy, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := h.store.CountVaultSecrets(c.Request.Context(), nil)
	if err != nil {
		return nil, err
	}

	resp := &ListVaultSecretsResp{
		Total: total,
		Items: make([]*VaultSecretItem, 0, len(secrets)),
	}
	for _, secret := range secrets {
		resp.Items = append(resp.Items, cvtSecret(secret))
	}
	return resp, nil
}

func (h *Handler) getVaultSecret(c *gin.Context) (interface{}, error) {
	id, err := apiutils.PathId(c)
	if err != nil {
		return nil, err
	}
	secret, err := h.store.GetVaultSecret(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	return cvtSecret(secret), nil
}

func (h *Handler) updateVaultSecret(c *gin.Context) (interface{}, error) {
	id, err := apiutils.PathId(c)
	if err != nil {
		return nil, err
	}
	req := &VaultSecretReq{}
	if err := c.ShouldBindJSON(req); err != nil {
		return nil, commonerrors.NewBadRequest(err.Error())
	}

	secret, err := h.store.GetVaultSecret(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	// The unique name is the stable handle operators reference; it
	// cannot change, rotation replaces only content and description.
	if req.Name != "" && req.Name != secret.Name {
		return nil, commonerrors.NewBadRequest(
			fmt.Sprintf("the name of vault secret %d cannot be changed", id))
	}
	if req.Content == "" {
		return nil, commonerrors.NewBadRequest("the secret content is required")
	}

	encrypted, err := h.cipher.Encrypt([]byte(req.Content))
	if err != nil {
		return nil, err
	}
	secret.Description = dbutils.NullString(req.Description)
	secret.EncryptedContent = encrypted
	if err := h.store.UpdateVaultSecret(c.Request.Context(), secret); err != nil {
		return nil, err
	}

	updated, err := h.store.GetVaultSecret(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	return cvtSecret(updated), nil
}

func (h *Handler) deleteVaultSecret(c *gin.Context) (interface{}, error) {
	id, err := apiutils.PathId(c)
	if err != nil {
		return nil, err
	}
	if err := h.store.DeleteVaultSecret(c.Request.Context(), id); err != nil {
		return nil, err
	}
	return nil, nil
}

func validateSecret(req *VaultSecretReq) error {
	if !secretNameRe.MatchString(req.Name) {
		return commonerrors.NewBadRequest(fmt.Sprintf(
			"the secret name %q must start with a letter, contain only letters, digits, underscore and hyphen, and be at most 100 characters", req.Name))
	}
	if req.Content == "" {
		return commonerrors.NewBadRequest("the secret content is required")
	}
	return nil
}
