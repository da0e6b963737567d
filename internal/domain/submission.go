package domain

import "time"

type Submission struct {
	ID               string
	PinID            string
	StudentProfileID string
	Files            []string
	Comment          string
	SubmittedAt      time.Time
}
