package dashboard

import (
	"fmt"
	"math"
	"sync"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/thunderstorm509/dashboard/utils"
)

// ErrNoFrames is returned by Summary before any frame has been recorded.
var ErrNoFrames = errors.New("no frames recorded")

// Stats accumulates chassis speed, turn rate and residual over a session. It is safe for
// concurrent use.
type Stats struct {
	mu        sync.Mutex
	speeds    []float64
	omegas    []float64
	residuals []float64
}

// Add records a frame. Frames with a non-finite chassis estimate are skipped.
func (s *Stats) Add(f Frame) {
	if !utils.IsFinite(f.Chassis.VxMPS, f.Chassis.VyMPS, f.Chassis.OmegaRadPerSec) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speeds = append(s.speeds, f.Chassis.Speed())
	s.omegas = append(s.omegas, math.Abs(f.Chassis.OmegaRadPerSec))
	if f.HasResidual && utils.IsFinite(f.Residual) {
		s.residuals = append(s.residuals, f.Residual)
	}
}

// Series is the summary of one recorded quantity.
type Series struct {
	Mean float64
	Max  float64
	P95  float64
}

func summarize(name string, data []float64) (Series, error) {
	mean, err := stats.Mean(data)
	if err != nil {
		return Series{}, errors.Wrapf(err, "cannot average %s", name)
	}
	top, err := stats.Max(data)
	if err != nil {
		return Series{}, errors.Wrapf(err, "cannot take max of %s", name)
	}
	p95, err := stats.Percentile(data, 95)
	if err != nil {
		return Series{}, errors.Wrapf(err, "cannot take 95th percentile of %s", name)
	}
	return Series{Mean: mean, Max: top, P95: p95}, nil
}

// Summary describes a session.
type Summary struct {
	Frames int
	Speed  Series
	// Omega is of the absolute turn rate.
	Omega    Series
	Residual *Series
}

func (s Summary) String() string {
	out := fmt.Sprintf("%d frames, speed mean %.3f max %.3f p95 %.3f m/s, |ω| mean %.3f max %.3f p95 %.3f rad/s",
		s.Frames, s.Speed.Mean, s.Speed.Max, s.Speed.P95, s.Omega.Mean, s.Omega.Max, s.Omega.P95)
	if s.Residual != nil {
		out += fmt.Sprintf(", residual mean %.4f max %.4f p95 %.4f", s.Residual.Mean, s.Residual.Max, s.Residual.P95)
	}
	return out
}

// Summary computes mean, max and 95th percentile of everything recorded so far.
func (s *Stats) Summary() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.speeds) == 0 {
		return Summary{}, ErrNoFrames
	}

	speed, errSpeed := summarize("speed", s.speeds)
	omega, errOmega := summarize("turn rate", s.omegas)
	if err := multierr.Combine(errSpeed, errOmega); err != nil {
		return Summary{}, err
	}
	summary := Summary{Frames: len(s.speeds), Speed: speed, Omega: omega}
	if len(s.residuals) > 0 {
		residual, err := summarize("residual", s.residuals)
		if err != nil {
			return Summary{}, err
		}
		summary.Residual = &residual
	}
	return summary, nil
}
