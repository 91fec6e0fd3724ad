/*
 * Copyright (c) 2025, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package errors

import (
	"fmt"
	"net/http"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const HomeOpsPrefix = "HomeOps."

/*
   5-digit Error Code Convention: [xx][yyy]
   [xx] Business ID (00–99), used to distinguish errors from different business interfaces.
   00: General errors
   01: Job-related errors
   02: Workflow-related errors
   03: Vault-related errors
   04: Executor-related errors
   05: Task-queue-related errors
   [yyy] Error code range (000–999)
*/

// public: 00xxx
const (
	InternalError         = HomeOpsPrefix + "00001"
	BadRequest            = HomeOpsPrefix + "00002"
	Forbidden             = HomeOpsPrefix + "00003"
	AlreadyExist          = HomeOpsPrefix + "00004"
	NotFound              = HomeOpsPrefix + "00005"
	Unauthorized          = HomeOpsPrefix + "00006"
	Conflict              = HomeOpsPrefix + "00007"
	ServiceUnavailable    = HomeOpsPrefix + "00008"
	RequestEntityTooLarge = HomeOpsPrefix + "00009"
)

// job: 01xxx
const (
	JobNotFound    = HomeOpsPrefix + "01001"
	JobNotPending  = HomeOpsPrefix + "01002"
	JobNotTerminal = HomeOpsPrefix + "01003"
	DeviceNotFound = HomeOpsPrefix + "01004"
)

// workflow: 02xxx
const (
	WorkflowTemplateNotFound = HomeOpsPrefix + "02001"
	WorkflowInstanceNotFound = HomeOpsPrefix + "02002"
	WorkflowNotCancellable   = HomeOpsPrefix + "02003"
)

// vault: 03xxx
const (
	VaultSecretNotFound = HomeOpsPrefix + "03001"
	InvalidSecret       = HomeOpsPrefix + "03002"
)

// executor: 04xxx
const (
	ExecutorNotFound = HomeOpsPrefix + "04001"
	ActionNotFound   = HomeOpsPrefix + "04002"
)

// queue: 05xxx
const (
	QueueUnavailable = HomeOpsPrefix + "05001"
)

// Resource kinds used in not-found details.
const (
	KindJob              = "Job"
	KindWorkflowTemplate = "WorkflowTemplate"
	KindWorkflowInstance = "WorkflowInstance"
	KindVaultSecret      = "VaultSecret"
	KindDevice           = "Device"
	KindExecutor         = "Executor"
	KindAction           = "Action"
)

// IsHomeOps returns true if the specified error carries a HomeOps error code.
func IsHomeOps(err error) bool {
	if err == nil {
		return false
	}
	return strings.HasPrefix(string(apierrors.ReasonForError(err)), HomeOpsPrefix)
}

func IsAlreadyExist(err error) bool {
	return apierrors.ReasonForError(err) == AlreadyExist
}

func IsBadRequest(err error) bool {
	return apierrors.ReasonForError(err) == BadRequest
}

func IsInternal(err error) bool {
	return apierrors.ReasonForError(err) == InternalError
}

func IsConflict(err error) bool {
	reason := apierrors.ReasonForError(err)
	return reason == Conflict || reason == WorkflowNotCancellable ||
		reason == JobNotPending || reason == JobNotTerminal
}

func IsUnauthorized(err error) bool {
	return apierrors.ReasonForError(err) == Unauthorized
}

func IsForbidden(err error) bool {
	return apierrors.ReasonForError(err) == Forbidden
}

func IsNotFound(err error) bool {
	switch apierrors.ReasonForError(err) {
	case NotFound, JobNotFound, DeviceNotFound, WorkflowTemplateNotFound,
		WorkflowInstanceNotFound, VaultSecretNotFound, ExecutorNotFound,
		ActionNotFound:
		return true
	}
	return false
}

func IsQueueUnavailable(err error) bool {
	return apierrors.ReasonForError(err) == QueueUnavailable
}

func IsInvalidSecret(err error) bool {
	return apierrors.ReasonForError(err) == InvalidSecret
}

func IgnoreFound(err error) error {
	if err == nil || IsNotFound(err) {
		return nil
	}
	return err
}

func GetErrorCode(err error) string {
	if err == nil || !IsHomeOps(err) {
		return ""
	}
	return string(apierrors.ReasonForError(err))
}

func NewBadRequest(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusBadRequest,
		Reason:  BadRequest,
		Message: fmt.Sprintf("Bad request. %s", message),
	}}
}

func NewInternalError(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusInternalServerError,
		Reason:  InternalError,
		Message: fmt.Sprintf("Internal error. %s", message),
	}}
}

func NewAlreadyExist(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusConflict,
		Reason:  AlreadyExist,
		Message: message,
	}}
}

func NewForbidden(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusForbidden,
		Reason:  Forbidden,
		Message: message,
	}}
}

func NewUnauthorized(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusUnauthorized,
		Reason:  Unauthorized,
		Message: message,
	}}
}

func NotFoundErrorCode(kind string) metav1.StatusReason {
	switch kind {
	case KindJob:
		return JobNotFound
	case KindDevice:
		return DeviceNotFound
	case KindWorkflowTemplate:
		return WorkflowTemplateNotFound
	case KindWorkflowInstance:
		return WorkflowInstanceNotFound
	case KindVaultSecret:
		return VaultSecretNotFound
	case KindExecutor:
		return ExecutorNotFound
	case KindAction:
		return ActionNotFound
	default:
		return NotFound
	}
}

func NewNotFound(kind, name string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status: metav1.StatusFailure,
		Code:   http.StatusNotFound,
		Reason: NotFoundErrorCode(kind),
		Details: &metav1.StatusDetails{
			Kind: kind,
			Name: name,
		},
		Message: fmt.Sprintf("%s %s not found.", kind, name),
	}}
}

func NewNotFoundWithMessage(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusNotFound,
		Reason:  NotFound,
		Message: message,
	}}
}

// NewConflict reports an illegal state transition, carrying the state
// that actually holds so callers can render a precise refusal.
func NewConflict(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusConflict,
		Reason:  Conflict,
		Message: message,
	}}
}

func NewConflictWithReason(reason metav1.StatusReason, message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusConflict,
		Reason:  reason,
		Message: message,
	}}
}

func NewQueueUnavailable(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusServiceUnavailable,
		Reason:  QueueUnavailable,
		Message: fmt.Sprintf("Task queue unavailable. %s", message),
	}}
}

func NewServiceUnavailable(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusServiceUnavailable,
		Reason:  ServiceUnavailable,
		Message: message,
	}}
}

// NewInvalidSecret reports a vault ciphertext that cannot be decrypted,
// from tampering or a wrong key.
func NewInvalidSecret(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusUnprocessableEntity,
		Reason:  InvalidSecret,
		Message: fmt.Sprintf("Invalid secret. %s", message),
	}}
}

func NewRequestEntityTooLargeError(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusRequestEntityTooLarge,
		Reason:  RequestEntityTooLarge,
		Message: fmt.Sprintf("Request entity is too large: %s", message),
	}}
}
