package services

import (
	"fieldops/internal/authz"
	"fieldops/internal/entities"
)

// VacancyCount is the effective remaining capacity of one pool on one
// date. Counts never go negative: an over-booked pool reports zero.
type VacancyCount struct {
	Amount      uint
	RuralAmount uint
}

// Vacancies recomputes remaining capacity from the configured pool and
// the orders occupying it on the date in question. There is no persisted
// remaining counter; the count is always derived from the order set at
// read time.
func Vacancies(pool *entities.ShiftCityPool, ordersOnDate []entities.Order) VacancyCount {
	var urban, rural uint
	for i := range ordersOnDate {
		o := &ordersOnDate[i]
		if !o.Active() {
			continue
		}
		if o.Rural {
			rural++
		} else {
			urban++
		}
	}

	return VacancyCount{
		Amount:      subtractToZero(pool.Vacancies, urban),
		RuralAmount: subtractToZero(pool.RuralVacancies, rural),
	}
}

func subtractToZero(configured, taken uint) uint {
	if taken >= configured {
		return 0
	}
	return configured - taken
}

// Eligibility is the schedule-gate verdict for a requested slot.
type Eligibility struct {
	Allowed bool
	Reason  string
	// SuggestRural marks a full urban pool whose rural half still has
	// room and the actor may use it. A suggestion, never an automatic
	// substitution.
	SuggestRural bool
}

// ScheduleEligibility applies the capacity gate for creating or moving
// an order into a (shift, city, date) slot.
func ScheduleEligibility(caps *authz.Capabilities, rural bool, vac VacancyCount) Eligibility {
	if !caps.Order.Schedule.Allow {
		return Eligibility{Reason: "no permission to schedule orders"}
	}
	if rural {
		if !caps.Order.Schedule.Rural {
			return Eligibility{Reason: "no permission to schedule rural orders"}
		}
		if vac.RuralAmount == 0 && !caps.Order.Schedule.ShiftFull {
			return Eligibility{Reason: "shift is full for rural orders"}
		}
		return Eligibility{Allowed: true}
	}

	if vac.Amount == 0 && !caps.Order.Schedule.ShiftFull {
		return Eligibility{
			Reason:       "shift is full",
			SuggestRural: vac.RuralAmount > 0 && caps.Order.Schedule.Rural,
		}
	}
	return Eligibility{Allowed: true}
}
