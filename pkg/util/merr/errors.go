// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// IO related
	ErrIoKeyNotFound = newObjpackError("key not found", 1000, false)
	ErrIoFailed      = newObjpackError("IO failed", 1001, false)
	ErrIoUnexpectEOF = newObjpackError("unexpected EOF", 1002, false)

	// Parameter related
	ErrParameterInvalid  = newObjpackError("invalid parameter", 1100, false)
	ErrParameterMissing  = newObjpackError("missing parameter", 1101, false)
	ErrParameterTooLarge = newObjpackError("parameter too large", 1102, false)

	// Codec related
	// 读取 Blob/File 负载失败，整个编码过程随之终止，不做重试。
	ErrBlobReadFailed = newObjpackError("blob payload read failed", 3100, false)
	// 解码器只信任编码器产出的字节流，该错误仅由 API 边界处 recover 的 panic 转换而来。
	ErrMalformedStream = newObjpackError("malformed stream", 3101, false)
	// 绝对指针固定为 4 字节，流总长度不能超过 uint32 表示范围。
	ErrStreamTooLarge = newObjpackError("stream too large", 3102, false)

	// General
	ErrOperationNotSupported = newObjpackError("unsupported operation", 3000, false)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to objpackError
	errUnexpected = newObjpackError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*objpackError)

func WithDetail(detail string) errorOption {
	return func(err *objpackError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *objpackError) {
		err.errType = etype
	}
}

type objpackError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newObjpackError(msg string, code int32, retriable bool, options ...errorOption) objpackError {
	err := objpackError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e objpackError) code() int32 {
	return e.errCode
}

func (e objpackError) Error() string {
	return e.msg
}

func (e objpackError) Detail() string {
	return e.detail
}

func (e objpackError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(objpackError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
