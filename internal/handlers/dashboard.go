package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/format"
	"ecommerce-dashboard/internal/pipeline"
	"ecommerce-dashboard/internal/services"
)

const cacheMaxAge = "public, max-age=300"

// base holds what every handler needs to turn a request into views.
type base struct {
	dashboard *services.Dashboard
	money     *format.Money
	topN      int
	logger    *slog.Logger
}

// resolveRange parses optional YYYY-MM-DD bounds. A missing bound defaults to
// the matching dataset bound.
func (b *base) resolveRange(start, end string) (dataset.DateRange, error) {
	bounds, err := b.dashboard.Bounds()
	if err != nil {
		return dataset.DateRange{}, unavailable(err)
	}

	from, to := bounds.Start, bounds.End
	if start != "" {
		if from, err = time.Parse(dataset.DateLayout, start); err != nil {
			return dataset.DateRange{}, errors.BadRequestWrap(err, "invalid start date, expected YYYY-MM-DD")
		}
	}
	if end != "" {
		if to, err = time.Parse(dataset.DateLayout, end); err != nil {
			return dataset.DateRange{}, errors.BadRequestWrap(err, "invalid end date, expected YYYY-MM-DD")
		}
	}

	r, err := dataset.NewDateRange(from, to)
	if err != nil {
		return dataset.DateRange{}, errors.ValidationWrap(err, "start date must not be after end date")
	}
	return r, nil
}

func (b *base) views(r *http.Request, start, end string) (*pipeline.Views, error) {
	rng, err := b.resolveRange(start, end)
	if err != nil {
		return nil, err
	}
	v, err := b.dashboard.Views(r.Context(), rng)
	if err != nil {
		return nil, unavailable(err)
	}
	return v, nil
}

func unavailable(err error) error {
	if stderrors.Is(err, services.ErrNotLoaded) {
		return errors.ServiceUnavailableWrap(err, "dataset is not loaded")
	}
	return err
}
