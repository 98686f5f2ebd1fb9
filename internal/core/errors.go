package core

import "errors"

var (
	ErrDuplicateUser      = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidTimeFilter  = errors.New("invalid time_filter")
	ErrBadStoredDate      = errors.New("invalid 'created' date format in store")
	ErrCrawlUpstream      = errors.New("crawl server failed")
)

// CooldownError rejects a crawl request that came too soon after the last
// crawl. Reason names the specific ladder rung so the caller knows whether
// waiting or a finer time_filter would help.
type CooldownError struct {
	Reason string
}

func (e *CooldownError) Error() string {
	return e.Reason
}
