package redisstage

import "errors"

var (
	ErrEmptyConnectionURL           = errors.New("redisstage.empty_connection_url: set REDIS_URL")
	ErrFailedToParseRedisConnString = errors.New("redisstage.invalid_connection_url")
	ErrRedisNotReady                = errors.New("redisstage.not_ready")
	ErrHealthcheckFailed            = errors.New("redisstage.healthcheck_failed")
	ErrCorruptEntry                 = errors.New("redisstage.corrupt_entry")
)
