// Package adjust converts situational events into a net point-value
// adjustment with time decay and source-weighted confidence.
package adjust

import (
	"math"
	"time"

	"github.com/yourusername/sharp-line/internal/config"
)

// Decay returns the confidence-currency factor for an event of the given
// curve after elapsed time. The factor is 1 at zero elapsed time, strictly
// decreasing in elapsed time, and asymptotically approaches the configured
// floor rather than zero — decay applies to the currency of the information,
// not to the existence of the condition.
func Decay(elapsed time.Duration, curve config.DecayConfig) float64 {
	if elapsed <= 0 {
		return 1.0
	}
	hours := elapsed.Hours()
	halfLives := hours / curve.HalfLifeHours
	return curve.Floor + (1.0-curve.Floor)*math.Pow(0.5, halfLives)
}
