package session

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/drake/scythe/event"
)

// Ask sends prompt to the inference server and shows the answer in the
// side panel. Only the newest question's answer is shown.
func (s *Session) Ask(prompt string) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return
	}
	s.askSeq++
	seq := s.askSeq
	s.stats.asks.Add(1)

	s.aiState.Prompt = prompt
	s.aiState.Err = ""

	if s.ai == nil {
		s.aiState.Pending = false
		s.aiState.Response = "AI Response: " + prompt
		s.ui.SetAI(s.aiState)
		return
	}

	s.aiState.Pending = true
	s.aiState.Response = ""
	s.ui.SetAI(s.aiState)

	gen := s.ai
	timeout := s.cfg.AITimeout
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, timeout)
		defer cancel()
		answer, err := gen.Generate(ctx, prompt)
		s.post(event.Event{
			Type: event.AsyncResult,
			Callback: func() {
				if seq != s.askSeq {
					return
				}
				s.aiState.Pending = false
				if err != nil {
					log.Warn("inference failed", "model", gen.Model(), "err", err)
					s.aiState.Err = err.Error()
				} else {
					s.aiState.Response = answer
				}
				s.ui.SetAI(s.aiState)
			},
		})
	}()
}

// probeTimeout bounds the reachability check.
const probeTimeout = 5 * time.Second

// probeAI checks in the background that the inference server answers and
// has the model, and marks the panel unreachable when it does not.
func (s *Session) probeAI() {
	s.probeSeq++
	seq := s.probeSeq
	p, ok := s.ai.(Prober)
	if !ok {
		return
	}
	model := s.aiState.Model
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, probeTimeout)
		defer cancel()
		up := p.Available(ctx)
		s.post(event.Event{
			Type: event.AsyncResult,
			Callback: func() {
				if seq != s.probeSeq {
					return
				}
				s.aiState.Unreachable = !up
				s.ui.SetAI(s.aiState)
				if !up {
					log.Warn("inference server unavailable", "model", model)
					s.notifyErr("AI model %s is not available", model)
				}
			},
		})
	}()
}
