package main

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"blackjack-engine/server/engine"
	"blackjack-engine/server/judge"
	"blackjack-engine/server/store"
	"blackjack-engine/server/table"
)

type server struct {
	db  store.Store // nil when no DATABASE_URL
	cfg Config
}

// Router wires the JSON API. db may be nil; run history endpoints then
// answer 503.
func Router(db store.Store, cfg Config) http.Handler {
	s := &server{db: db, cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/recommend", s.handleRecommend)
		r.Post("/simulate", s.handleSimulate)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"ok": true, "db": s.db != nil}
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "db: "+err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type recommendRequest struct {
	Player         engine.Hand `json:"player"`
	Dealer         engine.Hand `json:"dealer"` // visible dealer cards
	Deck           engine.Deck `json:"deck"`   // omitted: full shoe minus both hands
	Seed           *int64      `json:"seed"`
	Trials         int         `json:"trials"`
	DealerStandsOn int         `json:"dealer_stands_on"`
}

type recommendResponse struct {
	judge.Evaluation
	Seed int64 `json:"seed"`
}

func (s *server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	if len(req.Player) == 0 || len(req.Dealer) == 0 {
		writeError(w, http.StatusBadRequest, "player and dealer hands are required")
		return
	}
	if req.Deck == nil {
		deck, err := engine.Unseen(req.Player, req.Dealer)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Deck = deck
	}
	if err := engine.CheckShoe(req.Deck, req.Player, req.Dealer); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Player.Busted() {
		writeError(w, http.StatusBadRequest, "player hand is already bust")
		return
	}

	seed := int64(secureBaseSeed())
	if req.Seed != nil {
		seed = *req.Seed
	}
	e := judge.New(s.judgeConfig(req.Trials, req.DealerStandsOn))
	ev, err := e.Recommend(r.Context(), rand.New(rand.NewSource(seed)), judge.Spot{
		Player: req.Player,
		Dealer: req.Dealer,
		Deck:   req.Deck,
	})
	switch {
	case errors.Is(err, judge.ErrNoCardsLeft), errors.Is(err, engine.ErrEmptyDeck), errors.Is(err, engine.ErrCardNotInDeck):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recommendResponse{Evaluation: ev, Seed: seed})
}

type simulateRequest struct {
	Hands          int     `json:"hands"`
	Seed           *uint64 `json:"seed"`
	Trials         int     `json:"trials"`
	DealerStandsOn int     `json:"dealer_stands_on"`
}

type simulateResponse struct {
	Run     store.Run   `json:"run"`
	Tally   table.Tally `json:"tally"`
	WinPct  string      `json:"win_pct"`
	LossPct string      `json:"loss_pct"`
	TiePct  string      `json:"tie_pct"`
	Summary string      `json:"summary"`
	Stored  bool        `json:"stored"`
}

func (s *server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
			return
		}
	}
	hands := req.Hands
	if hands <= 0 {
		hands = s.cfg.Hands
	}
	if hands > maxAPIHands {
		writeError(w, http.StatusBadRequest, "hands must be at most "+strconv.Itoa(maxAPIHands))
		return
	}
	seed := secureBaseSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	rep, err := table.RunBatch(r.Context(), table.Config{
		Hands: hands,
		Seed:  seed,
		Judge: s.judgeConfig(req.Trials, req.DealerStandsOn),
	}, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := simulateResponse{
		Run:     runRecord(rep),
		Tally:   rep.Tally,
		WinPct:  rep.Tally.WinPct().StringFixed(2),
		LossPct: rep.Tally.LossPct().StringFixed(2),
		TiePct:  rep.Tally.TiePct().StringFixed(2),
		Summary: rep.Tally.Summary(),
	}
	if s.db != nil {
		if err := s.db.InsertRun(r.Context(), &out.Run); err != nil {
			writeError(w, http.StatusInternalServerError, "store run: "+err.Error())
			return
		}
		out.Stored = true
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.db.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}
	run, err := s.db.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// judgeConfig applies per-request overrides on top of the process defaults.
func (s *server) judgeConfig(trials, standOn int) judge.Config {
	jc := s.cfg.Judge
	if trials > 0 {
		jc.Trials = min(trials, maxAPITrials)
	}
	if standOn > 0 {
		jc.Rules.DealerStandsOn = standOn
	}
	return jc
}

// runRecord flattens a batch report into the row we persist.
func runRecord(rep table.Report) store.Run {
	jc := rep.Config.Judge
	return store.Run{
		Seed:           rep.Config.Seed,
		Hands:          rep.Tally.Hands,
		Trials:         jc.Trials,
		Workers:        jc.Workers,
		DealerStandsOn: jc.Rules.DealerStandsOn,
		Wins:           rep.Tally.Wins,
		Losses:         rep.Tally.Losses,
		Ties:           rep.Tally.Ties,
		PlayerBusts:    rep.Tally.PlayerBusts,
		DealerBusts:    rep.Tally.DealerBusts,
		DurationMS:     rep.Duration.Milliseconds(),
		Stopped:        rep.Stopped,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
