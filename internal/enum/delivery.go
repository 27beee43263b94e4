package enum

type DeliveryStrategy string

const (
	StrategyThrottled DeliveryStrategy = "throttled"
	StrategyFast      DeliveryStrategy = "fast"
	StrategyParallel  DeliveryStrategy = "parallel"
)

func (t DeliveryStrategy) String() string {
	return string(t)
}

// DecodeDeliveryStrategy returns the matching strategy, or empty string
// when the input names no known strategy.
func DecodeDeliveryStrategy(s string) DeliveryStrategy {
	switch s {
	case string(StrategyThrottled):
		return StrategyThrottled
	case string(StrategyFast):
		return StrategyFast
	case string(StrategyParallel):
		return StrategyParallel
	default:
		return ""
	}
}
