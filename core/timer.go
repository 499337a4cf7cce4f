package core

import "sync/atomic"

// TimerFreq is the rate of the system tick used for debounce scheduling.
// Both supported targets expose a 1MHz microsecond counter.
const TimerFreq = 1000000

var (
	systemTicks uint32
	bootTime    uint32
)

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return atomic.LoadUint32(&systemTicks)
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	atomic.StoreUint32(&systemTicks, ticks)
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32((uint64(us) * TimerFreq) / 1000000)
}

// TimerFromMS converts milliseconds to timer ticks
func TimerFromMS(ms uint32) uint32 {
	return uint32((uint64(ms) * TimerFreq) / 1000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32((uint64(ticks) * 1000000) / TimerFreq)
}

// TimerInit records the boot time
func TimerInit() {
	bootTime = GetTime()
}

// Uptime returns the ticks elapsed since TimerInit
func Uptime() uint32 {
	return GetTime() - bootTime
}

// ProcessTimers runs every scheduler entry that has come due.
// Called from the idle main loop.
func ProcessTimers() {
	TimerDispatch(GetTime())
}
