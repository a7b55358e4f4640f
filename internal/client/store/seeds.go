package store

import (
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/client/models"
)

// GeneralProjectID is the id of the project shipped with every install.
const GeneralProjectID = "project-general"

// DefaultSeeds returns the entities every notebook starts with.
func DefaultSeeds(now time.Time) Seeds {
	return Seeds{
		Projects: []models.Project{
			{ID: GeneralProjectID, Title: "General", CreatedAt: now},
		},
	}
}
