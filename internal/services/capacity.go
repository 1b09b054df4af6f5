package services

import "eventparticipation/internal/domain"

// DecideAdmission returns the status a new or reinstated registration receives
// given the event's current active participant count and its capacity.
func DecideAdmission(activeCount, capacity int) domain.ParticipationStatus {
	if activeCount < capacity {
		return domain.StatusRegistered
	}
	return domain.StatusWaitlisted
}
