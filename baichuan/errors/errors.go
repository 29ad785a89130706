// Copyright (C) 2026 The go-baichuan Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors defines the sentinel error taxonomy shared by every
// go-baichuan package, so callers can distinguish retryable conditions from
// fatal ones with errors.Is instead of a type switch.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrFraming indicates a malformed header, bad magic, or an out-of-range body length.
	ErrFraming = errors.New("framing error")
	// ErrCodec indicates an XML schema mismatch or a cipher that produced unparseable output.
	ErrCodec = errors.New("codec error")
	// ErrTransport indicates socket I/O failure, discovery timeout, or a dropped connection.
	ErrTransport = errors.New("transport error")
	// ErrProtocol indicates an unexpected reply shape or a non-OK response code.
	ErrProtocol = errors.New("protocol error")
	// ErrAuthFailed indicates the login handshake was rejected. Fatal, non-retryable.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrCancelled indicates the caller's context was cancelled. Not logged as an error.
	ErrCancelled = errors.New("cancelled")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target, and if so, sets target to that error value and returns true.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// UnintelligibleReply indicates a reply whose shape did not match what the caller expected.
type UnintelligibleReply struct {
	MsgID uint32
	Why   string
}

func NewUnintelligibleReply(msgID uint32, why string) error {
	return &UnintelligibleReply{MsgID: msgID, Why: why}
}

func (e *UnintelligibleReply) Error() string {
	return fmt.Sprintf("unintelligible reply to message %d: %s", e.MsgID, e.Why)
}

func (e *UnintelligibleReply) Unwrap() error {
	return ErrProtocol
}

// CameraServiceUnavailable indicates a reply header carried a non-OK response code.
type CameraServiceUnavailable struct {
	Code uint16
}

func NewCameraServiceUnavailable(code uint16) error {
	return &CameraServiceUnavailable{Code: code}
}

func (e *CameraServiceUnavailable) Error() string {
	return fmt.Sprintf("camera service unavailable (code %d)", e.Code)
}

func (e *CameraServiceUnavailable) Unwrap() error {
	return ErrProtocol
}
