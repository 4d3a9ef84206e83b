package warehouse

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"sqldeck/pkg/errors"
	"sqldeck/pkg/stats"
)

// verifyTolerance bounds the allowed absolute difference between the
// warehouse result and the native computation.
const verifyTolerance = 1e-6

// VerifyJackknife runs the deployed jackknife routine with literal
// inputs and cross-checks the result against the native
// implementation. A mismatch beyond tolerance is a validation error.
func (s *Service) VerifyJackknife(routine string, expectedBuckets int, counts []float64) error {
	if !s.connected {
		return errors.New(errors.ErrCodeConnectionFailed, "Not connected to warehouse")
	}

	want, err := stats.JackknifeSumCI(expectedBuckets, counts)
	if err != nil {
		return err
	}

	literals := make([]string, len(counts))
	for i, c := range counts {
		literals[i] = strconv.FormatFloat(c, 'g', -1, 64)
	}
	query := fmt.Sprintf(
		"SELECT r:total_estimate::FLOAT, r:ci_low::FLOAT, r:ci_high::FLOAT FROM (SELECT %s(%d, ARRAY_CONSTRUCT(%s)) AS r)",
		routine, expectedBuckets, strings.Join(literals, ", "),
	)

	ctx, cancel := s.getContext()
	defer cancel()

	var total, low, high float64
	if err := s.db.QueryRowContext(ctx, query).Scan(&total, &low, &high); err != nil {
		return errors.SQLError(
			fmt.Sprintf("Failed to evaluate routine %s", routine),
			query,
			err,
		)
	}

	checks := []struct {
		field string
		got   float64
		want  float64
	}{
		{"total_estimate", total, want.Total},
		{"ci_low", low, want.Low},
		{"ci_high", high, want.High},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > verifyTolerance {
			return errors.New(errors.ErrCodeValidationFailed,
				fmt.Sprintf("Routine %s disagrees with native computation on %s", routine, c.field)).
				WithContext("field", c.field).
				WithContext("warehouse", c.got).
				WithContext("native", c.want)
		}
	}

	return nil
}
