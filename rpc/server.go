package rpc

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/woof-software/migrator-v2-sub003/convert"
	"github.com/woof-software/migrator-v2-sub003/migrate"
	"github.com/woof-software/migrator-v2-sub003/observability/logging"
	"github.com/woof-software/migrator-v2-sub003/pathfinder"
)

// Server exposes the migration engine over HTTP: a public read surface, a
// rate-limited migrate endpoint and a token-gated admin surface.
type Server struct {
	engine     *migrate.Engine
	finder     pathfinder.Finder
	converter  *convert.Module
	owner      common.Address
	adminToken string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Config wires one Server.
type Config struct {
	Engine *migrate.Engine
	// Finder serves route quotes; may be nil when no routes are configured.
	Finder pathfinder.Finder
	// Converter serves the bridge-pair conversion paths; may be nil or disabled.
	Converter *convert.Module
	// Owner is the address admin calls act as.
	Owner common.Address
	// AdminToken guards the admin surface. Empty disables it.
	AdminToken string
	// RatePerSecond and Burst bound the migrate endpoint.
	RatePerSecond float64
	Burst         int
	Logger        *slog.Logger
}

// NewServer constructs the HTTP surface for the supplied engine.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}
	return &Server{
		engine:     cfg.Engine,
		finder:     cfg.Finder,
		converter:  cfg.Converter,
		owner:      cfg.Owner,
		adminToken: strings.TrimSpace(cfg.AdminToken),
		limiter:    rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:     logger,
	}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/adapters", s.listAdapters)
		v1.Get("/flash-configs", s.listFlashConfigs)
		v1.Get("/flash-configs/{comet}", s.getFlashConfig)
		v1.Get("/routes/best", s.bestRoute)
		v1.Get("/conversion-paths", s.conversionPaths)
		v1.Post("/migrate", s.migrate)

		v1.Route("/admin", func(admin chi.Router) {
			admin.Use(s.requireAdmin)
			admin.Post("/pause", s.pause)
			admin.Post("/unpause", s.unpause)
			admin.Delete("/adapters/{address}", s.removeAdapter)
			admin.Delete("/flash-configs/{comet}", s.removeFlashConfig)
		})
	})
	return r
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			writeError(w, http.StatusForbidden, "admin surface disabled")
			return
		}
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) != s.adminToken {
			s.logger.Warn("admin request rejected",
				slog.String("path", r.URL.Path),
				logging.MaskField("token", token),
			)
			writeError(w, http.StatusUnauthorized, "invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type adapterListResponse struct {
	Adapters []string `json:"adapters"`
	Paused   bool     `json:"paused"`
}

func (s *Server) listAdapters(w http.ResponseWriter, _ *http.Request) {
	addrs := s.engine.Adapters()
	out := adapterListResponse{
		Adapters: make([]string, 0, len(addrs)),
		Paused:   s.engine.Paused(),
	}
	for _, addr := range addrs {
		out.Adapters = append(out.Adapters, addr.Hex())
	}
	writeJSON(w, http.StatusOK, out)
}

type flashConfigResponse struct {
	Comet     string `json:"comet"`
	Pool      string `json:"pool"`
	Token0    string `json:"token0"`
	Token1    string `json:"token1"`
	BaseToken string `json:"baseToken"`
}

func flashView(view migrate.FlashView) flashConfigResponse {
	return flashConfigResponse{
		Comet:     view.Comet.Hex(),
		Pool:      view.Pool.Hex(),
		Token0:    view.Token0.Hex(),
		Token1:    view.Token1.Hex(),
		BaseToken: view.BaseToken.Hex(),
	}
}

func (s *Server) listFlashConfigs(w http.ResponseWriter, _ *http.Request) {
	views := s.engine.FlashConfigs()
	out := make([]flashConfigResponse, 0, len(views))
	for _, view := range views {
		out = append(out, flashView(view))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getFlashConfig(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "comet")
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid comet address")
		return
	}
	view, ok := s.engine.FlashConfig(common.HexToAddress(raw))
	if !ok {
		writeError(w, http.StatusNotFound, "comet not configured")
		return
	}
	writeJSON(w, http.StatusOK, flashView(view))
}

type routeResponse struct {
	Path        string `json:"path"`
	AmountOut   string `json:"amountOut"`
	GasEstimate uint64 `json:"gasEstimate"`
}

func (s *Server) bestRoute(w http.ResponseWriter, r *http.Request) {
	if s.finder == nil {
		writeError(w, http.StatusNotFound, "no routes configured")
		return
	}
	query := r.URL.Query()
	tokenIn, tokenOut := query.Get("tokenIn"), query.Get("tokenOut")
	if !common.IsHexAddress(tokenIn) || !common.IsHexAddress(tokenOut) {
		writeError(w, http.StatusBadRequest, "tokenIn and tokenOut must be hex addresses")
		return
	}
	amountIn, ok := new(big.Int).SetString(query.Get("amountIn"), 10)
	if !ok || amountIn.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, "amountIn must be a positive integer")
		return
	}
	quote, err := s.finder.BestRoute(common.HexToAddress(tokenIn), common.HexToAddress(tokenOut), amountIn)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, routeResponse{
		Path:        "0x" + hex.EncodeToString(quote.Path),
		AmountOut:   quote.AmountOut.String(),
		GasEstimate: quote.GasEstimate,
	})
}

type conversionPathsResponse struct {
	TokenA   string `json:"tokenA"`
	TokenB   string `json:"tokenB"`
	PathAToB string `json:"pathAToB"`
	PathBToA string `json:"pathBToA"`
}

func (s *Server) conversionPaths(w http.ResponseWriter, _ *http.Request) {
	if s.converter == nil || !s.converter.Enabled() {
		writeError(w, http.StatusNotFound, "no bridge pair configured")
		return
	}
	tokenA, tokenB := s.converter.Pair()
	writeJSON(w, http.StatusOK, conversionPathsResponse{
		TokenA:   tokenA.Hex(),
		TokenB:   tokenB.Hex(),
		PathAToB: "0x" + hex.EncodeToString(s.converter.PathAToB()),
		PathBToA: "0x" + hex.EncodeToString(s.converter.PathBToA()),
	})
}

type migrateRequest struct {
	User          string `json:"user"`
	Adapter       string `json:"adapter"`
	Comet         string `json:"comet"`
	MigrationData string `json:"migrationData"`
	FlashAmount   string `json:"flashAmount"`
}

type migrateResponse struct {
	ID string `json:"id"`
}

func (s *Server) migrate(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	var req migrateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for field, value := range map[string]string{"user": req.User, "adapter": req.Adapter, "comet": req.Comet} {
		if !common.IsHexAddress(value) {
			writeError(w, http.StatusBadRequest, field+" must be a hex address")
			return
		}
	}
	payload, err := hex.DecodeString(strings.TrimPrefix(req.MigrationData, "0x"))
	if err != nil || len(payload) == 0 {
		writeError(w, http.StatusBadRequest, "migrationData must be non-empty hex")
		return
	}
	flashAmount, ok := new(big.Int).SetString(req.FlashAmount, 10)
	if !ok {
		writeError(w, http.StatusBadRequest, "flashAmount must be an integer")
		return
	}

	id, err := s.engine.Migrate(
		common.HexToAddress(req.User),
		common.HexToAddress(req.Adapter),
		common.HexToAddress(req.Comet),
		payload,
		flashAmount,
	)
	if err != nil {
		writeError(w, migrateStatus(err), err.Error())
		return
	}
	s.logger.Info("migration accepted",
		slog.String("migration", id.String()),
		logging.MaskField("user", req.User),
	)
	writeJSON(w, http.StatusOK, migrateResponse{ID: id.String()})
}

func (s *Server) pause(w http.ResponseWriter, _ *http.Request) {
	if err := s.engine.Pause(s.owner); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": true})
}

func (s *Server) unpause(w http.ResponseWriter, _ *http.Request) {
	if err := s.engine.Unpause(s.owner); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": false})
}

func (s *Server) removeAdapter(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "address")
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid adapter address")
		return
	}
	if err := s.engine.RemoveAdapter(s.owner, common.HexToAddress(raw)); err != nil {
		writeError(w, adminStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeFlashConfig(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "comet")
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid comet address")
		return
	}
	if err := s.engine.RemoveFlashData(s.owner, common.HexToAddress(raw)); err != nil {
		writeError(w, adminStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
