package delivery

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devsergyo/sales-commissions/internal/reports"
)

// Envelope is the JSON body published for each report email.
type Envelope struct {
	TaskID     uuid.UUID       `json:"task_id"`
	Kind       reports.Kind    `json:"kind"`
	Recipient  string          `json:"recipient"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Report     reports.Payload `json:"report"`
}

func (e Envelope) Validate() error {
	if e.TaskID == uuid.Nil {
		return errors.New("task id missing")
	}
	if !e.Kind.Valid() {
		return errors.New("unknown report kind " + string(e.Kind))
	}
	if strings.TrimSpace(e.Recipient) == "" {
		return errors.New("recipient missing")
	}
	switch e.Kind {
	case reports.KindSellerDaily:
		if e.Report.Seller == nil {
			return errors.New("seller report missing")
		}
	case reports.KindAdminDaily:
		if e.Report.Admin == nil {
			return errors.New("admin report missing")
		}
	}
	return nil
}
