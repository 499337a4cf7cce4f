package core

// CounterSpan is the number of states of the 16-bit free-running counter
const CounterSpan = 1 << 16

// Frequency is a displayed frequency: whole hertz and truncated hundredths
type Frequency struct {
	Hz    uint32
	Centi uint8 // 0..99
}

// FrequencyModel maps a reload value and prescaler to the output frequency
type FrequencyModel struct {
	clockRate  uint32
	prescalers PrescalerTable
}

// NewFrequencyModel creates a model for a timer clocked at clockRate Hz
func NewFrequencyModel(clockRate uint32, prescalers PrescalerTable) *FrequencyModel {
	return &FrequencyModel{
		clockRate:  clockRate,
		prescalers: prescalers,
	}
}

// Ticks returns the prescaled counter ticks between two overflows.
// Always in [1, CounterSpan], so the model never divides by zero.
func Ticks(reload uint16) uint32 {
	return CounterSpan - uint32(reload)
}

// Hertz returns the output frequency as a float. The output toggles once per
// overflow, so a full period spans two overflows.
func (m *FrequencyModel) Hertz(reload uint16, prescalerIndex uint8) float64 {
	divisor := 2 * float64(m.prescalers.Divider(prescalerIndex)) * float64(Ticks(reload))
	return float64(m.clockRate) / divisor
}

// Compute returns the displayed frequency. Both parts are truncated:
// Centi is floor(f*100) - Hz*100, not a rounded fraction.
func (m *FrequencyModel) Compute(reload uint16, prescalerIndex uint8) Frequency {
	freq := m.Hertz(reload, prescalerIndex)

	whole := uint64(freq)
	centi := uint64(freq*100) - whole*100
	// freq*100 can round up to the next whole hertz
	if centi > 99 {
		centi = 99
	}

	return Frequency{
		Hz:    uint32(whole),
		Centi: uint8(centi),
	}
}
