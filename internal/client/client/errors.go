package client

import (
	"errors"

	"github.com/dmitrijs2005/labkeeper/internal/common"
)

var (
	ErrUnavailable = common.ErrUnavailable

	// Simulator outcomes.
	ErrOffline         = errors.New("offline: remote not reachable")
	ErrForcedFailure   = errors.New("forced failure")
	ErrScriptedFailure = errors.New("transient remote failure")
)
