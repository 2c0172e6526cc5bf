package authz

// Capability paths known to the system. The set is closed: a permission
// row whose resolved path is not listed here grants nothing.
const (
	OrderScheduleAllow     = "order.schedule.allow"
	OrderScheduleRural     = "order.schedule.rural"
	OrderScheduleOtherCity = "order.schedule.another_city"
	OrderScheduleShiftFull = "order.schedule.shift_full"
	OrderScheduleDuplicate = "order.schedule.duplicate_schedule"
	OrderScheduleSysClosed = "order.schedule.system_closed"
	OrderEdit              = "order.edit"
	OrderClose             = "order.close"
	OrderCancel            = "order.cancel"
	OrderReschedule        = "order.reschedule"

	PhoneAddAllow        = "phone_number.add.allow"
	PhoneAddInterval     = "phone_number.add.interval"
	PhoneAddChangeDDD    = "phone_number.add.change_ddd_prefix"
	PhoneBindAllow       = "phone_number.bind.allow"
	PhoneBindOtherCity   = "phone_number.bind.another_city"
	PhoneUnbind          = "phone_number.unbind"
	PhoneReserve         = "phone_number.reserve"
	PhoneRelease         = "phone_number.release"
	PhoneReleaseExpired  = "phone_number.release_expired"

	ShiftCityEdit          = "shift_city.edit"
	ShiftCityVacancyAdjust = "shift_city.vacancy_adjust"

	ReportSchedule = "report.schedule"
)

// Capabilities is the session's capability tree. Every known slot is a
// pre-declared boolean so the full set is enumerable at compile time and
// the zero value means "nothing permitted".
type Capabilities struct {
	Order struct {
		Schedule struct {
			Allow             bool
			Rural             bool
			AnotherCity       bool
			ShiftFull         bool
			DuplicateSchedule bool
			SystemClosed      bool
		}
		Edit       bool
		Close      bool
		Cancel     bool
		Reschedule bool
	}

	PhoneNumber struct {
		Add struct {
			Allow           bool
			Interval        bool
			ChangeDDDPrefix bool
		}
		Bind struct {
			Allow       bool
			AnotherCity bool
		}
		Unbind         bool
		Reserve        bool
		Release        bool
		ReleaseExpired bool
	}

	ShiftCity struct {
		Edit          bool
		VacancyAdjust bool
	}

	Report struct {
		Schedule bool
	}
}

// setters maps a resolved dotted path to the field it enables. Paths not
// present are ignored by Build.
var setters = map[string]func(*Capabilities){
	OrderScheduleAllow:     func(c *Capabilities) { c.Order.Schedule.Allow = true },
	OrderScheduleRural:     func(c *Capabilities) { c.Order.Schedule.Rural = true },
	OrderScheduleOtherCity: func(c *Capabilities) { c.Order.Schedule.AnotherCity = true },
	OrderScheduleShiftFull: func(c *Capabilities) { c.Order.Schedule.ShiftFull = true },
	OrderScheduleDuplicate: func(c *Capabilities) { c.Order.Schedule.DuplicateSchedule = true },
	OrderScheduleSysClosed: func(c *Capabilities) { c.Order.Schedule.SystemClosed = true },
	OrderEdit:              func(c *Capabilities) { c.Order.Edit = true },
	OrderClose:             func(c *Capabilities) { c.Order.Close = true },
	OrderCancel:            func(c *Capabilities) { c.Order.Cancel = true },
	OrderReschedule:        func(c *Capabilities) { c.Order.Reschedule = true },

	PhoneAddAllow:       func(c *Capabilities) { c.PhoneNumber.Add.Allow = true },
	PhoneAddInterval:    func(c *Capabilities) { c.PhoneNumber.Add.Interval = true },
	PhoneAddChangeDDD:   func(c *Capabilities) { c.PhoneNumber.Add.ChangeDDDPrefix = true },
	PhoneBindAllow:      func(c *Capabilities) { c.PhoneNumber.Bind.Allow = true },
	PhoneBindOtherCity:  func(c *Capabilities) { c.PhoneNumber.Bind.AnotherCity = true },
	PhoneUnbind:         func(c *Capabilities) { c.PhoneNumber.Unbind = true },
	PhoneReserve:        func(c *Capabilities) { c.PhoneNumber.Reserve = true },
	PhoneRelease:        func(c *Capabilities) { c.PhoneNumber.Release = true },
	PhoneReleaseExpired: func(c *Capabilities) { c.PhoneNumber.ReleaseExpired = true },

	ShiftCityEdit:          func(c *Capabilities) { c.ShiftCity.Edit = true },
	ShiftCityVacancyAdjust: func(c *Capabilities) { c.ShiftCity.VacancyAdjust = true },

	ReportSchedule: func(c *Capabilities) { c.Report.Schedule = true },
}

// KnownPaths returns every capability path the system recognizes, used
// by the permission seeder to pre-populate all slots.
func KnownPaths() []string {
	paths := make([]string, 0, len(setters))
	for p := range setters {
		paths = append(paths, p)
	}
	return paths
}

var getters = map[string]func(*Capabilities) bool{
	OrderScheduleAllow:     func(c *Capabilities) bool { return c.Order.Schedule.Allow },
	OrderScheduleRural:     func(c *Capabilities) bool { return c.Order.Schedule.Rural },
	OrderScheduleOtherCity: func(c *Capabilities) bool { return c.Order.Schedule.AnotherCity },
	OrderScheduleShiftFull: func(c *Capabilities) bool { return c.Order.Schedule.ShiftFull },
	OrderScheduleDuplicate: func(c *Capabilities) bool { return c.Order.Schedule.DuplicateSchedule },
	OrderScheduleSysClosed: func(c *Capabilities) bool { return c.Order.Schedule.SystemClosed },
	OrderEdit:              func(c *Capabilities) bool { return c.Order.Edit },
	OrderClose:             func(c *Capabilities) bool { return c.Order.Close },
	OrderCancel:            func(c *Capabilities) bool { return c.Order.Cancel },
	OrderReschedule:        func(c *Capabilities) bool { return c.Order.Reschedule },

	PhoneAddAllow:       func(c *Capabilities) bool { return c.PhoneNumber.Add.Allow },
	PhoneAddInterval:    func(c *Capabilities) bool { return c.PhoneNumber.Add.Interval },
	PhoneAddChangeDDD:   func(c *Capabilities) bool { return c.PhoneNumber.Add.ChangeDDDPrefix },
	PhoneBindAllow:      func(c *Capabilities) bool { return c.PhoneNumber.Bind.Allow },
	PhoneBindOtherCity:  func(c *Capabilities) bool { return c.PhoneNumber.Bind.AnotherCity },
	PhoneUnbind:         func(c *Capabilities) bool { return c.PhoneNumber.Unbind },
	PhoneReserve:        func(c *Capabilities) bool { return c.PhoneNumber.Reserve },
	PhoneRelease:        func(c *Capabilities) bool { return c.PhoneNumber.Release },
	PhoneReleaseExpired: func(c *Capabilities) bool { return c.PhoneNumber.ReleaseExpired },

	ShiftCityEdit:          func(c *Capabilities) bool { return c.ShiftCity.Edit },
	ShiftCityVacancyAdjust: func(c *Capabilities) bool { return c.ShiftCity.VacancyAdjust },

	ReportSchedule: func(c *Capabilities) bool { return c.Report.Schedule },
}

// Has reports whether the capability at the given dotted path is set.
// It exists for callers that receive a path as data; static call sites
// address the struct fields directly.
func (c *Capabilities) Has(path string) bool {
	get, ok := getters[path]
	if !ok {
		return false
	}
	return get(c)
}
