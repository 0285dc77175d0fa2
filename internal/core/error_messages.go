package core

// # Error Codes Reference
//
// This file maps technical errors to user-friendly messages with codes for
// support reference. Users can quote the code to speed up diagnosis.
//
// # Sitemap Errors (SMAP001-SMAP099)
//
//	SMAP001 - Malformed sitemap: The file could not be read as XML
//	          Action: Upload the sitemap.xml exported by your site
//	          Patterns: "malformed sitemap"
//
// # Redirect Errors (RDR001-RDR099)
//
//	RDR001 - No sitemap: Redirects need the sitemap slugs first
//	         Action: Upload a sitemap first
//	         Patterns: "no sitemap loaded"
//
//	RDR002 - Empty table: The redirect CSV has no rows
//	         Action: Upload a CSV with a header row
//	         Patterns: "empty table"
//
//	RDR003 - Missing columns: Old Page URL or Redirect Type column not found
//	         Action: Add both columns to the CSV header
//	         Patterns: "missing required columns"
//
//	RDR004 - Bad row: The redirect row does not exist
//	         Action: Reload the redirect list
//	         Patterns: "index out of range"
//
// # Workspace and Export Errors (WS001, EXP001, EXP002)
//
//	WS001  - Workspace not found: It may have expired
//	         Patterns: "workspace not found"
//
//	EXP001 - Nothing to export: The list is empty
//	         Patterns: "nothing to export"
//
//	EXP002 - Unknown format: Only csv and xlsx are supported
//	         Patterns: "unsupported export format"
//
// # File and Upload Errors (FILE, UPL)
//
//	FILE001 - File too large
//	          Patterns: "file too large", "request body too large"
//	FILE004 - No file was selected
//	          Patterns: "no file provided"
//	UPL002  - Too many uploads in progress
//	          Patterns: "too many uploads"
//	UPL004  - Request cancelled
//	          Patterns: "context canceled"
//	UPL005  - Request timed out
//	          Patterns: "context deadline exceeded"
//
// # Infrastructure (RATE001, DB004, DB006)
//
//	RATE001 - Too many requests. Patterns: "rate limit"
//	DB004   - Database unreachable. Patterns: "connection refused"
//	DB006   - Operation timed out. Patterns: "timeout"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the logs for the original error.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is ordered: "context deadline exceeded" must precede the
// generic "timeout" pattern.
var errorPatterns = []errorPattern{
	// Sitemap
	{
		pattern: "malformed sitemap",
		msg: UserMessage{
			Message: "The sitemap could not be read as XML",
			Action:  "Upload the sitemap.xml exported by your site",
			Code:    "SMAP001",
		},
	},

	// Redirects
	{
		pattern: "no sitemap loaded",
		msg: UserMessage{
			Message: "No sitemap slugs are loaded yet",
			Action:  "Upload a sitemap first",
			Code:    "RDR001",
		},
	},
	{
		pattern: "empty table",
		msg: UserMessage{
			Message: "The redirect CSV is empty",
			Action:  "Upload a CSV with a header row",
			Code:    "RDR002",
		},
	},
	{
		pattern: "missing required columns",
		msg: UserMessage{
			Message: "CSV must include Old Page URL and Redirect Type columns",
			Action:  "Add both columns to the header row",
			Code:    "RDR003",
		},
	},
	{
		pattern: "index out of range",
		msg: UserMessage{
			Message: "That redirect row does not exist",
			Action:  "Reload the redirect list and try again",
			Code:    "RDR004",
		},
	},

	// Workspace / export
	{
		pattern: "workspace not found",
		msg: UserMessage{
			Message: "Workspace not found",
			Action:  "It may have expired. Start a new workspace",
			Code:    "WS001",
		},
	},
	{
		pattern: "nothing to export",
		msg: UserMessage{
			Message: "There is nothing to export yet",
			Action:  "Load a sitemap or redirect CSV first",
			Code:    "EXP001",
		},
	},
	{
		pattern: "unsupported export format",
		msg: UserMessage{
			Message: "Unsupported export format",
			Action:  "Choose csv or xlsx",
			Code:    "EXP002",
		},
	},

	// Files
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a file to upload",
			Code:    "FILE004",
		},
	},

	// Uploads
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// Infrastructure
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Unknown
// errors map to ERR000; a nil error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
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

// NewUserError maps err. It returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
