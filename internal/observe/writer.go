// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package observe provides pipeline step observers: a structured zap
// sink and a plain-text writer for terminal progress. Observers are
// passive; step events never feed back into pipeline control flow.
// Implements: prd001-pipeline (R4.2-R4.3);
//
//	docs/ARCHITECTURE § Observability.
package observe

import (
	"fmt"
	"io"

	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// Stepper is the step-event contract shared with the pipeline.
type Stepper interface {
	OnStep(name string, paradigm types.Paradigm, status string, details map[string]any)
}

// WriterObserver prints one progress line per step event.
type WriterObserver struct {
	w io.Writer
}

// NewWriter returns an observer that prints progress lines to w.
func NewWriter(w io.Writer) *WriterObserver {
	return &WriterObserver{w: w}
}

func (o *WriterObserver) OnStep(name string, paradigm types.Paradigm, status string, _ map[string]any) {
	fmt.Fprintf(o.w, "[%s] %s: %s\n", paradigm, name, status)
}

// Tee fans step events out to several observers.
func Tee(obs ...Stepper) Stepper {
	return teeObserver(obs)
}

type teeObserver []Stepper

func (t teeObserver) OnStep(name string, paradigm types.Paradigm, status string, details map[string]any) {
	for _, o := range t {
		o.OnStep(name, paradigm, status, details)
	}
}
