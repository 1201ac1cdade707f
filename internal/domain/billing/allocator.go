package billing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/clinicore/clinicore/pkg/apperr"
)

// NumberSource yields the highest invoice number already issued under a day
// prefix, or "" when the day has none.
type NumberSource interface {
	MaxNumberForDay(ctx context.Context, prefix string) (string, error)
}

// NumberAllocator hands out day-scoped sequential invoice numbers of the
// form INV-YYYYMMDD-NNNN, starting at 0001 each day. A returned number is
// only a candidate: the unique index on invoice_number is the arbiter under
// concurrency, and callers re-allocate when the insert collides.
type NumberAllocator struct {
	source NumberSource
}

func NewNumberAllocator(source NumberSource) *NumberAllocator {
	return &NumberAllocator{source: source}
}

func numberPrefix(onDate time.Time) string {
	return "INV-" + onDate.Format("20060102") + "-"
}

// Next returns the next free number for the given day.
func (na *NumberAllocator) Next(ctx context.Context, onDate time.Time) (string, error) {
	prefix := numberPrefix(onDate)
	current, err := na.source.MaxNumberForDay(ctx, prefix)
	if err != nil {
		return "", err
	}
	seq := 1
	if current != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(current, prefix))
		if err != nil {
			return "", apperr.New(apperr.KindInternal, "malformed invoice number %q in sequence", current)
		}
		seq = n + 1
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}
