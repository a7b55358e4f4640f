package syncqueue

import "github.com/dmitrijs2005/labkeeper/internal/client/models"

// Indicator is the aggregate sync status shown to the user.
type Indicator string

const (
	IndicatorSynced  Indicator = "synced"
	IndicatorSyncing Indicator = "syncing"
	IndicatorPending Indicator = "pending"
	IndicatorFailed  Indicator = "failed"
)

type Summary struct {
	Pending   int       `json:"pending"`
	Failed    int       `json:"failed"`
	Synced    int       `json:"synced"`
	Syncing   bool      `json:"syncing"`
	Indicator Indicator `json:"indicator"`
}

// State is what subscribers receive after every queue change.
type State struct {
	Items   []models.ChangeQueueItem `json:"items"`
	Summary Summary                  `json:"summary"`
}

func summarize(items []*models.ChangeQueueItem, syncing bool) Summary {
	s := Summary{Syncing: syncing}
	for _, it := range items {
		switch it.Status {
		case models.StatusPending:
			s.Pending++
		case models.StatusFailed:
			s.Failed++
		case models.StatusSynced:
			s.Synced++
		}
	}

	switch {
	case syncing:
		s.Indicator = IndicatorSyncing
	case s.Failed > 0:
		s.Indicator = IndicatorFailed
	case s.Pending > 0:
		s.Indicator = IndicatorPending
	default:
		s.Indicator = IndicatorSynced
	}
	return s
}
