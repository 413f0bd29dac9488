package models

import (
	"errors"
	"time"
)

// ScribeQuota is a monthly token budget. A facility default quota has no user;
// a user quota inside a facility references both. At most one default quota
// per facility and one quota per (user, facility) pair.
type ScribeQuota struct {
	ID         string `json:"id" bson:"_id"`
	UserID     string `json:"userId,omitempty" bson:"userId,omitempty"`
	FacilityID string `json:"facilityId,omitempty" bson:"facilityId,omitempty"`

	Tokens        int  `json:"tokens" bson:"tokens"`
	TokensPerUser int  `json:"tokensPerUser" bson:"tokensPerUser"`
	Used          int  `json:"used" bson:"used"`
	AllowOCR      bool `json:"allowOcr" bson:"allowOcr"`

	TncHash       string     `json:"tncHash,omitempty" bson:"tncHash,omitempty"`
	TncAcceptedAt *time.Time `json:"tncAcceptedAt,omitempty" bson:"tncAcceptedAt,omitempty"`

	TimeModel `bson:",inline"`
}

func (q *ScribeQuota) Validate() error {
	if q.UserID == "" && q.FacilityID == "" {
		return errors.New("either user or facility must be set on a scribe quota")
	}
	return nil
}

func (q *ScribeQuota) IsFacilityDefault() bool {
	return q.UserID == "" && q.FacilityID != ""
}

// PeriodBounds returns the current accounting period, which is the calendar
// month containing now.
func PeriodBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}
