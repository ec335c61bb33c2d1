package config

import "time"

type SessionConfig interface {
	GetRefreshMargin() time.Duration
	GetMinimumRefreshLead() time.Duration
	GetRefreshTimeout() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetRefreshMargin is the widest advance window used to renew a token before it expires
func (Session) GetRefreshMargin() time.Duration {
	return GetEnvDuration("REFRESH_MARGIN", 60*time.Second)
}

func (Session) GetMinimumRefreshLead() time.Duration {
	return GetEnvDuration("REFRESH_MIN_LEAD", time.Second)
}

func (Session) GetRefreshTimeout() time.Duration {
	return GetEnvDuration("REFRESH_TIMEOUT", 15*time.Second)
}
