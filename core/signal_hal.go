package core

// SignalPin is the square-wave output pin
type SignalPin interface {
	// Set drives the pin high (true) or low (false)
	Set(high bool)
}
