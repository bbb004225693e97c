package domain

// HandleState es un enumerado para controlar el ciclo de vida de un proceso
// lanzado. Un handle es de un solo uso: no hay vuelta atrás desde Stopped.
type HandleState int

const (
	Requested HandleState = iota
	Running
	Stopped
	Failed
)

func (s HandleState) String() string {
	switch s {
	case Requested:
		return "Requested"
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

var stateTransitionMap = map[HandleState][]HandleState{
	Requested: {Requested, Running, Stopped, Failed},
	Running:   {Running, Stopped},
	Stopped:   {},
	Failed:    {},
}

func Contains(states []HandleState, state HandleState) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}

// ValidStateTransition valida si es posible pasar de src a dst según stateTransitionMap
func ValidStateTransition(src HandleState, dst HandleState) bool {
	return Contains(stateTransitionMap[src], dst)
}
