package devhost

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
	"github.com/vsc-eco/vsc-fixed-swap/schemas"
)

const maxBodyBytes = 1 << 20

// Server provides the HTTP API of the development host
type Server struct {
	svc  *Service
	http *http.Server
}

// NewServer creates the HTTP server for svc
func NewServer(svc *Service, addr string) *Server {
	s := &Server{svc: svc}

	s.http = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	// Transactions
	r.HandleFunc("/api/v1/deploy", s.handleDeploy).Methods("POST")
	r.HandleFunc("/api/v1/tx", s.handleSubmit).Methods("POST")
	r.HandleFunc("/api/v1/fund", s.handleFund).Methods("POST")

	// Queries
	r.HandleFunc("/api/v1/state", s.handleState).Methods("GET")
	r.HandleFunc("/api/v1/balances/{account}", s.handleBalances).Methods("GET")
	r.HandleFunc("/api/v1/trace/{txid}/{vout}", s.handleTrace).Methods("GET")
	r.HandleFunc("/api/v1/stats", s.handleStats).Methods("GET")

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", s.svc.metrics.Handler()).Methods("GET")
	r.Handle("/ws", s.svc.hub)

	return r
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// statusFor maps ledger errors to HTTP codes.
func statusFor(err error) int {
	var verr *schemas.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicateTx), errors.Is(err, swap.ErrAlreadyInitialized):
		return http.StatusConflict
	case errors.Is(err, ErrTraceNotFound):
		return http.StatusNotFound
	case errors.Is(err, swap.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrBalanceOverflow):
		return http.StatusUnprocessableEntity
	default:
		if isContractError(err) {
			return http.StatusUnprocessableEntity
		}
		return http.StatusInternalServerError
	}
}

func isContractError(err error) bool {
	for _, target := range []error{
		swap.ErrInvalidOpcode, swap.ErrInvalidArguments, swap.ErrNotInitialized,
		swap.ErrTokenMismatch, swap.ErrInsufficientReserve, swap.ErrArithmeticOverflow,
		swap.ErrInexactAmount, swap.ErrAmountTooSmall, swap.ErrTxAlreadyUsed, ErrInsufficientFunds,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func decodeBody(r *http.Request, v interface{}) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if v != nil {
		if err := json.Unmarshal(data, v); err != nil {
			return nil, &schemas.ValidationError{Field: "body", Message: "invalid json body: " + err.Error()}
		}
	}
	return data, nil
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	var req schemas.DeployRequest
	if _, err := decodeBody(r, &req); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	receipt, err := s.svc.ledger.Deploy(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleSubmit always answers 200 for an accepted envelope; reverted calls
// are reported per record.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(r, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tx, err := schemas.ParseTransaction(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	receipt, err := s.svc.ledger.Submit(r.Context(), tx)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleFund(w http.ResponseWriter, r *http.Request) {
	var req schemas.FundRequest
	if _, err := decodeBody(r, &req); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	balance, err := s.svc.ledger.Fund(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": req.Account,
		"token":   req.Token,
		"balance": balance,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.ledger.State(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]
	bals, err := s.svc.ledger.Balances(r.Context(), account)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, bals)
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	vout, err := strconv.ParseUint(vars["vout"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("vout must be an unsigned integer"))
		return
	}
	rec, err := s.svc.ledger.Trace(r.Context(), vars["txid"], uint32(vout))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.readModel.Stats())
}

// handleHealth provides health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"service":        "fixed-swap-devhost",
		"height":         s.svc.ledger.Height(),
		"stream_clients": s.svc.hub.Clients(),
	})
}
