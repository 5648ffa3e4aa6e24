package http

import (
	"net/http"

	"jellybank/internal/core"
	"jellybank/internal/services"
)

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request, actor core.Profile) {
	var in services.GrantInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.svc.Grants.Grant(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, res)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request, actor core.Profile) {
	var in services.ClaimInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.svc.Rewards.Claim(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, res)
}

func (s *Server) handleSelectChallenges(w http.ResponseWriter, r *http.Request, actor core.Profile) {
	var in services.SelectInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.svc.Challenges.Select(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, res)
}

func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request, actor core.Profile) {
	var in services.ExchangeInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.svc.Exchanges.Exchange(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, res)
}

func (s *Server) handleAllowanceRequest(w http.ResponseWriter, r *http.Request, actor core.Profile) {
	var in services.RequestInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.svc.Allowance.Request(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, res)
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request, actor core.Profile) {
	var in services.SettleInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.svc.Allowance.Settle(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleProofURL(w http.ResponseWriter, r *http.Request, actor core.Profile) {
	var in services.ProofURLInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.svc.Allowance.ProofURL(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleHolidaySync(w http.ResponseWriter, r *http.Request, actor core.Profile) {
	var in services.SyncInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.svc.Holidays.Sync(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
