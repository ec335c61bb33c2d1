package server

import (
	"github.com/jrsteele09/star-console/sessions"
	"github.com/rs/zerolog/log"
)

// watchSession follows session changes for the lifetime of the server.
func (s *Server) watchSession() {
	s.signedIn.Store(s.session.IsAuthenticated())
	s.unsubscribe = s.session.Subscribe(s.onSessionChange)
}

func (s *Server) onSessionChange(state sessions.State) {
	signedIn := state.Token != ""
	if s.signedIn.Swap(signedIn) == signedIn {
		return
	}
	if signedIn {
		log.Info().Msg("Dashboard session started")
		return
	}
	// Whatever was loading belonged to the ended session
	s.indicator.Finish()
	log.Info().Msg("Dashboard session ended")
}

// Close detaches the server from the session.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
