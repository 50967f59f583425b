package core

// Error codes reference
//
// Every error shown to a user carries a code they can quote to the office
// that runs the service. Codes are grouped by area:
//
// Category column (CAT001-CAT099)
//
//	CAT001 - College column not found in the header
//	CAT002 - Sheet has a header but no data rows
//	CAT003 - Roster is longer than UPLOAD_MAX_ROWS
//
// File (FILE001-FILE099)
//
//	FILE001 - File exceeds UPLOAD_MAX_FILE_SIZE
//	FILE002 - File could not be decoded (corrupt xlsx, broken CSV)
//	FILE003 - Format not supported (.xls, .numbers, images ...)
//	FILE004 - No file in the request
//	FILE005 - Requested worksheet does not exist
//
// Columns (COL001-COL099)
//
//	COL001 - No columns selected for the table
//	COL002 - A selected column is not in the sheet
//
// Document (DOC001-DOC099)
//
//	DOC001 - Activity details missing or invalid
//	DOC002 - Unknown form kind
//
// Request (UPL001-UPL099)
//
//	UPL001 - Malformed request
//	UPL002 - Too many rosters being processed
//	UPL003 - Unknown output format
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//
//	RATE001 - Rate limited
//	ERR000  - Anything else; check the logs for the technical error
//
// Domain errors are matched with errors.Is / errors.As first. Plain text
// patterns (case-insensitive substring, first match wins) catch errors
// from libraries and the HTTP stack.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/panda279/leave-note/internal/document"
	"github.com/panda279/leave-note/internal/roster"
	"github.com/panda279/leave-note/internal/sheet"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Support reference
}

var (
	msgMissingCategory = UserMessage{"未找到学院列", "请确认表头中有“学院”列，或在表单中手动选择学院所在的列", "CAT001"}
	msgEmptyRoster     = UserMessage{"表格中没有数据行", "请检查表头下方是否填写了名单", "CAT002"}
	msgTooManyRows     = UserMessage{"名单行数超出上限", "请拆分名单后分批生成", "CAT003"}
	msgFileTooLarge    = UserMessage{"文件超过大小上限", "请删除无关的工作表或拆分文件后再上传", "FILE001"}
	msgDecode          = UserMessage{"文件无法解析", "请用 Excel 打开并重新另存为 .xlsx 后再上传", "FILE002"}
	msgUnsupported     = UserMessage{"不支持的文件格式", "请上传 .xlsx 或 .csv 文件", "FILE003"}
	msgNoFile          = UserMessage{"没有选择文件", "请选择要上传的名单文件", "FILE004"}
	msgSheetNotFound   = UserMessage{"找不到指定的工作表", "请检查工作表名称，留空则使用第一个工作表", "FILE005"}
	msgNoColumns       = UserMessage{"没有选择表格列", "请至少勾选一列", "COL001"}
	msgUnknownColumn   = UserMessage{"所选列不在表格中", "请重新检查表头后再选择列", "COL002"}
	msgBadMetadata     = UserMessage{"活动信息不完整", "请补全活动名称、日期和时间段", "DOC001"}
	msgUnknownKind     = UserMessage{"未知的请假单类型", "请选择公假单、抵晚单或抵早单", "DOC002"}
	msgBadRequest      = UserMessage{"请求格式不正确", "请刷新页面后重试", "UPL001"}
	msgBusy            = UserMessage{"系统正忙，正在处理其他名单", "请稍候片刻再试", "UPL002"}
	msgBadOutput       = UserMessage{"未知的输出格式", "请选择 docx 或 xlsx", "UPL003"}
	msgCancelled       = UserMessage{"请求已取消", "请重试", "UPL004"}
	msgTimeout         = UserMessage{"处理超时", "请上传较小的文件或稍后再试", "UPL005"}
	msgRateLimited     = UserMessage{"请求过于频繁", "请稍等一分钟后再试", "RATE001"}
)

// errorTargets maps sentinel errors to messages. Checked in order with errors.Is.
var errorTargets = []struct {
	target error
	msg    UserMessage
}{
	{roster.ErrMissingCategoryField, msgMissingCategory},
	{roster.ErrEmptyDataset, msgEmptyRoster},
	{ErrTooManyRows, msgTooManyRows},
	{ErrFileTooLarge, msgFileTooLarge},
	{sheet.ErrUnsupportedFormat, msgUnsupported},
	{ErrNoFile, msgNoFile},
	{sheet.ErrSheetNotFound, msgSheetNotFound},
	{document.ErrNoColumns, msgNoColumns},
	{roster.ErrUnknownField, msgUnknownColumn},
	{roster.ErrDuplicateField, msgUnknownColumn},
	{document.ErrInvalidMetadata, msgBadMetadata},
	{document.ErrUnknownKind, msgUnknownKind},
	{ErrBadRequest, msgBadRequest},
	{ErrTooManyUploads, msgBusy},
	{ErrUnknownOutput, msgBadOutput},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
}

// errorPatterns catch errors that only carry text. First match wins.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"request body too large", msgFileTooLarge},
	{"no such file", msgNoFile},
	{"multipart", msgBadRequest},
	{"rate limit", msgRateLimited},
	{"timeout", msgTimeout},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "发生未知错误",
	Action:  "请重试，若仍失败请联系管理员并提供错误代码",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-facing message.
//
//	msg := MapError(fmt.Errorf("inspect: %w", roster.ErrMissingCategoryField))
//	// msg.Code == "CAT001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	for _, t := range errorTargets {
		if errors.Is(err, t.target) {
			return t.msg
		}
	}

	var de *roster.DecodeError
	if errors.As(err, &de) {
		return msgDecode
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// StatusCode is the HTTP status that fits err.
func StatusCode(err error) int {
	switch code := MapError(err).Code; {
	case code == "":
		return http.StatusOK
	case code == msgFileTooLarge.Code:
		return http.StatusRequestEntityTooLarge
	case code == msgBusy.Code:
		return http.StatusServiceUnavailable
	case code == msgRateLimited.Code:
		return http.StatusTooManyRequests
	case code == msgTimeout.Code:
		return http.StatusGatewayTimeout
	case code == msgUnsupported.Code:
		return http.StatusUnsupportedMediaType
	case code == defaultMessage.Code:
		return http.StatusInternalServerError
	case strings.HasPrefix(code, "CAT"), strings.HasPrefix(code, "COL"), strings.HasPrefix(code, "DOC"), code == msgDecode.Code:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// FormatUserError creates a display string: "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with the message shown to users.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
