package imagery

import (
	"fmt"
	"time"

	"sentinel-desktop/internal/common"
)

// Step is one time slice of a batch run. From/To are RFC3339 instants
// passed to the process API verbatim.
type Step struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PlanSteps splits an inclusive date range into count contiguous steps of
// whole days. Days that do not divide evenly are spread over the leading
// steps, so every day of the range belongs to exactly one step.
func PlanSteps(fromDate, toDate string, count int) ([]Step, error) {
	if count < 1 {
		return nil, fmt.Errorf("step count must be at least 1")
	}

	from, err := common.ParseISO8601(fromDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	to, err := common.ParseISO8601(toDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end date %s is before start date %s", toDate, fromDate)
	}

	days := int(to.Sub(from).Hours()/24) + 1
	if count > days {
		count = days
	}

	base := days / count
	extra := days % count

	steps := make([]Step, 0, count)
	cursor := from
	for i := 0; i < count; i++ {
		length := base
		if i < extra {
			length++
		}
		stepEnd := cursor.AddDate(0, 0, length-1)

		fromStr, err := common.DayStartRFC3339(common.FormatISO8601(cursor))
		if err != nil {
			return nil, err
		}
		toStr, err := common.DayEndRFC3339(common.FormatISO8601(stepEnd))
		if err != nil {
			return nil, err
		}
		steps = append(steps, Step{From: fromStr, To: toStr})

		cursor = stepEnd.AddDate(0, 0, 1)
	}

	return steps, nil
}

// StepDays returns the number of whole days a step spans
func StepDays(s Step) (int, error) {
	from, err := time.Parse(common.RFC3339UTC, s.From)
	if err != nil {
		return 0, err
	}
	to, err := time.Parse(common.RFC3339UTC, s.To)
	if err != nil {
		return 0, err
	}
	return int(to.Sub(from).Hours()/24) + 1, nil
}
