package report

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/kubryk/vegetables-shop/internal/data"
)

// Location is the zone the export timestamp is shown in.
var Location = mustLoad("Europe/Berlin")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Title names a report sheet after its calendar days and the moment of the
// export, e.g. "Звіт 01.03 - 07.03 (08.03 14:05)". Repeated exports of the
// same range differ by the timestamp.
func Title(rng data.DateRange, now time.Time) string {
	local := now.In(Location)
	return fmt.Sprintf("Звіт %s - %s (%s %s)",
		rng.From.Format("02.01"),
		rng.To.Format("02.01"),
		local.Format("02.01"),
		local.Format("15:04"),
	)
}
