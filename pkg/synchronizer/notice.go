package synchronizer

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"liyu1981.xyz/platform-dashboard/pkg/gateway"
)

const maxNotices = 20

// Notice tells the user that a background fetch failed. It does not block the
// screen; the user retries by repeating the action that triggered the fetch.
type Notice struct {
	ID        string            `json:"id"`
	Operation gateway.Operation `json:"operation"`
	Subject   string            `json:"subject,omitempty"`
	Message   string            `json:"message"`
	Detail    string            `json:"detail"`
	At        time.Time         `json:"at"`
}

func noticeMessage(op gateway.Operation, subject string, err error) string {
	if fe, ok := gateway.AsFetchError(err); ok && fe.Unauthorized() {
		return "your session is no longer accepted, please log in again"
	}
	switch op {
	case gateway.OpListPlatforms:
		return "could not load the platform list"
	case gateway.OpGetPlatformDetail:
		return fmt.Sprintf("could not load the details of platform %s", subject)
	case gateway.OpGetSensorRecords:
		return fmt.Sprintf("could not load the records of sensor %s", subject)
	default:
		return fmt.Sprintf("%s failed", op)
	}
}

func (s *Synchronizer) noticeLocked(op gateway.Operation, subject string, err error) {
	logger(string(op)).Warn("Fetch failed",
		zap.String("subject", subject),
		zap.Uint64("epoch", s.epoch),
		zap.Error(err),
	)

	s.notices = append(s.notices, Notice{
		ID:        uuid.NewString(),
		Operation: op,
		Subject:   subject,
		Message:   noticeMessage(op, subject, err),
		Detail:    err.Error(),
		At:        time.Now(),
	})
	if len(s.notices) > maxNotices {
		s.notices = slices.Clone(s.notices[len(s.notices)-maxNotices:])
	}
}
