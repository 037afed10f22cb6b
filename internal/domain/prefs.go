package domain

type PanelMode string

const (
	PanelMini     PanelMode = "mini"
	PanelExpanded PanelMode = "expanded"
)

type MotionMode string

const (
	MotionBalanced MotionMode = "balanced"
	MotionHigh     MotionMode = "high"
	MotionLow      MotionMode = "low"
)

type ReadabilityMode string

const (
	ReadabilityAdaptive ReadabilityMode = "adaptive"
	ReadabilityPure     ReadabilityMode = "pure"
	ReadabilityStrong   ReadabilityMode = "strong"
)

type ReduceMotionOverride string

const (
	ReduceMotionSystem ReduceMotionOverride = "system"
	ReduceMotionOn     ReduceMotionOverride = "on"
	ReduceMotionOff    ReduceMotionOverride = "off"
)

// WindowPrefs is persisted window geometry and behavior. The core
// never interprets it; it round-trips through the store for the
// front-end.
type WindowPrefs struct {
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Width       float64   `json:"width"`
	Height      float64   `json:"height"`
	Mode        PanelMode `json:"mode"`
	AlwaysOnTop bool      `json:"alwaysOnTop"`
}

type UIPrefs struct {
	MotionMode           MotionMode           `json:"motionMode"`
	ReadabilityMode      ReadabilityMode      `json:"readabilityMode"`
	ReduceMotionOverride ReduceMotionOverride `json:"reduceMotionOverride"`
}

func DefaultWindowPrefs() WindowPrefs {
	return WindowPrefs{
		X:           80,
		Y:           80,
		Width:       380,
		Height:      520,
		Mode:        PanelMini,
		AlwaysOnTop: true,
	}
}

func DefaultUIPrefs() UIPrefs {
	return UIPrefs{
		MotionMode:           MotionBalanced,
		ReadabilityMode:      ReadabilityAdaptive,
		ReduceMotionOverride: ReduceMotionSystem,
	}
}

// PanelSize returns the fixed logical size for a panel mode.
func PanelSize(mode PanelMode) (width, height float64) {
	if mode == PanelExpanded {
		return 920, 680
	}
	return 380, 520
}
