package service

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"sentirec/pkg/types"
)

// Ready reports whether every component is loaded and no breaker is open.
func (s *Service) Ready() bool {
	for _, c := range s.components() {
		if c.State != string(StateReady) {
			return false
		}
	}
	return true
}

// PredictReady reports whether /predict can be served.
func (s *Service) PredictReady() bool { return s.classifier != nil }

// RecommendReady reports whether /recommend can be served.
func (s *Service) RecommendReady() bool {
	return s.embedder != nil && s.store != nil &&
		s.embedBreaker.State() != gobreaker.StateOpen &&
		s.searchBreaker.State() != gobreaker.StateOpen &&
		s.storeHealth.check() == nil
}

// Status builds a detailed status response for /status.
func (s *Service) Status() types.StatusResponse {
	comps := s.components()
	state := StateReady
	for _, c := range comps {
		if c.State != string(StateReady) {
			state = StateDegraded
			break
		}
	}
	now := time.Now()
	return types.StatusResponse{
		State:                string(state),
		Components:           comps,
		UptimeSeconds:        int64(now.Sub(s.startTime).Seconds()),
		ServerTimeUnix:       now.Unix(),
		PredictionsTotal:     s.predictions.Load(),
		RecommendationsTotal: s.recommendations.Load(),
	}
}

func (s *Service) components() []types.ComponentStatus {
	cls := types.ComponentStatus{Name: ComponentClassifier, Backend: s.classifierBackend}
	if s.classifier == nil {
		cls.State = string(StateUnavailable)
		cls.Error = s.loadErrors[ComponentClassifier]
	} else {
		cls.State = string(StateReady)
	}

	emb := types.ComponentStatus{Name: ComponentEmbedder, Breaker: s.embedBreaker.State().String()}
	if s.embedder == nil {
		emb.State = string(StateUnavailable)
		emb.Error = s.loadErrors[ComponentEmbedder]
	} else {
		emb.Backend = s.embedder.Backend()
		emb.State = breakerComponentState(s.embedBreaker.State())
	}

	vs := types.ComponentStatus{Name: ComponentVectorStore, Breaker: s.searchBreaker.State().String()}
	if s.store == nil {
		vs.State = string(StateUnavailable)
		vs.Error = s.loadErrors[ComponentVectorStore]
	} else {
		vs.Backend = s.store.Backend()
		vs.State = breakerComponentState(s.searchBreaker.State())
		if err := s.storeHealth.check(); err != nil {
			vs.State = string(StateUnavailable)
			vs.Error = "ping: " + err.Error()
		}
	}
	return []types.ComponentStatus{cls, emb, vs}
}

func breakerComponentState(st gobreaker.State) string {
	if st == gobreaker.StateOpen {
		return string(StateDegraded)
	}
	return string(StateReady)
}
