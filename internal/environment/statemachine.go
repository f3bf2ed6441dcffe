package environment

import "habitat/internal/api"

// transitions is the full set of legal lifecycle edges. ERROR is reachable
// from every in-flight state; STOPPED and ERROR have no outgoing edges, so a
// restart enters through a fresh PENDING record.
var transitions = map[api.EnvironmentState][]api.EnvironmentState{
	api.StatePending:      {api.StateProvisioning, api.StateError},
	api.StateProvisioning: {api.StateReady, api.StateError},
	api.StateReady:        {api.StateScaling, api.StateUpdating, api.StateStopping, api.StateError},
	api.StateScaling:      {api.StateReady, api.StateError},
	api.StateUpdating:     {api.StateReady, api.StateError},
	api.StateStopping:     {api.StateStopped, api.StateError},
	api.StateStopped:      {},
	api.StateError:        {},
}

// CanTransition reports whether the edge from → to is legal.
func CanTransition(from, to api.EnvironmentState) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// States returns every state the machine defines.
func States() []api.EnvironmentState {
	return []api.EnvironmentState{
		api.StatePending,
		api.StateProvisioning,
		api.StateReady,
		api.StateScaling,
		api.StateUpdating,
		api.StateStopping,
		api.StateStopped,
		api.StateError,
	}
}
