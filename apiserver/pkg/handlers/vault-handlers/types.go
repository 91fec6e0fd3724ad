/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package vaulthandlers

import (
	dbclient "github.com/labforge/homeops/common/pkg/database/client"
	dbutils "github.com/labforge/homeops/common/pkg/database/utils"
)

// VaultSecretReq defines the payload for creating or replacing a
// secret. Content is the plaintext to protect; it is encrypted before
// it reaches the store and never appears in any response.
type VaultSecretReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// VaultSecretItem is the metadata view of a secret. The ciphertext is
// deliberately absent.
type VaultSecretItem struct {
	Id          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ListVaultSecretsResp is the list response.
type ListVaultSecretsResp struct {
	Total int                `json:"total"`
	Items []*VaultSecretItem `json:"items"`
}

func cvtSecret(secret *dbclient.VaultSecret) *VaultSecretItem {
	return &VaultSecretItem{
		Id:          secret.Id,
		Name:        secret.Name,
		Description: dbutils.ParseNullString(secret.Description),
		CreatedAt:   dbutils.ParseNullTimeToString(secret.CreatedAt),
		UpdatedAt:   dbutils.ParseNullTimeToString(secret.UpdatedAt),
	}
}
