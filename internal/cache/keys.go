package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func JobSnapshotKey(jobID uuid.UUID) string {
	return fmt.Sprintf("clipper:job:%s", jobID)
}
