package autoclose

import "errors"

var (
	ErrPendingNotFound  = errors.New("no pending auto-closeout found")
	ErrSettingsNotFound = errors.New("no auto-closeout settings for this tenant")
)
