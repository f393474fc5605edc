package model

// Signal is the conviction label attached to a passing screen result.
type Signal string

const (
	SignalStrongBuy Signal = "STRONG_BUY"
	SignalBuy       Signal = "BUY"
	SignalWatch     Signal = "WATCH"
	SignalNeutral   Signal = "NEUTRAL"
	SignalNone      Signal = "NONE"
)

// Rank orders signals from strongest (0) to none.
func (s Signal) Rank() int {
	switch s {
	case SignalStrongBuy:
		return 0
	case SignalBuy:
		return 1
	case SignalWatch:
		return 2
	case SignalNeutral:
		return 3
	default:
		return 4
	}
}

func (s Signal) String() string { return string(s) }
