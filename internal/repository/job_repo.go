package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"reservas/internal/db"
)

// ReservationsOn returns the reservations whose datetime falls on the same
// calendar day as day in loc, sorted by datetime.
func ReservationsOn(ctx context.Context, store ReservationStore, day time.Time, loc *time.Location) ([]db.Reservation, error) {
	all, err := store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing reservations for %s: %w", day.Format(time.DateOnly), err)
	}

	y, m, d := day.In(loc).Date()
	var out []db.Reservation
	for _, res := range all {
		ry, rm, rd := res.DateTime.In(loc).Date()
		if ry == y && rm == m && rd == d {
			out = append(out, res)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateTime.Before(out[j].DateTime)
	})
	return out, nil
}
