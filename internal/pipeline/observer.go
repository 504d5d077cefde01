// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// Observer receives step notifications as the run progresses. Purely
// observational; a panicking observer is recovered and ignored.
type Observer interface {
	OnStep(name string, paradigm types.Paradigm, status string, details map[string]any)
}

// notify sends a step notification, isolating observer panics.
func (p *Pipeline) notify(name string, paradigm types.Paradigm, status string, details map[string]any) {
	notifyObserver(p.obs, name, paradigm, status, details)
}

func notifyObserver(obs Observer, name string, paradigm types.Paradigm, status string, details map[string]any) {
	if obs == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	obs.OnStep(name, paradigm, status, details)
}
