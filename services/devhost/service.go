package devhost

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
	"github.com/vsc-eco/vsc-fixed-swap/schemas"
)

// Service wires the ledger to its read models, the record stream and the
// HTTP API.
type Service struct {
	ledger    *Ledger
	store     Store
	readModel *SwapReadModel
	hub       *Hub
	metrics   *Metrics
	server    *Server
	log       *logrus.Logger

	mu      sync.RWMutex
	readers []ReadModel
}

// NewService opens the configured store and builds the service.
func NewService(ctx context.Context, cfg Config, logger *logrus.Logger) (*Service, error) {
	store, err := cfg.OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := NewServiceWithStore(ctx, cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return svc, nil
}

func NewServiceWithStore(ctx context.Context, cfg Config, store Store, logger *logrus.Logger) (*Service, error) {
	swapCfg, err := cfg.SwapConfig()
	if err != nil {
		return nil, err
	}
	contract, err := swap.New(swapCfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = cfg.NewLogger()
	}

	metrics := NewMetrics()
	ledger, err := NewLedger(ctx, contract, store, LedgerOptions{
		ContractAccount: cfg.ContractAccount,
		Logger:          logger,
		Metrics:         metrics,
	})
	if err != nil {
		return nil, err
	}

	svc := &Service{
		ledger:    ledger,
		store:     store,
		readModel: NewSwapReadModel(swapCfg),
		hub:       NewHub(logger),
		metrics:   metrics,
		log:       logger,
	}
	svc.AddReader(svc.readModel)
	ledger.Subscribe(svc.handleRecord)
	ledger.Subscribe(svc.hub.Broadcast)
	svc.server = NewServer(svc, cfg.Listen)
	return svc, nil
}

// AddReader adds a read model fed by every committed record
func (s *Service) AddReader(reader ReadModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readers = append(s.readers, reader)
}

func (s *Service) handleRecord(rec schemas.ExecutionRecord) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, reader := range s.readers {
		if err := reader.HandleRecord(rec); err != nil {
			s.log.WithError(err).WithField("txid", rec.TxID).Error("read model rejected record")
		}
	}
}

func (s *Service) Ledger() *Ledger { return s.ledger }

func (s *Service) Stats() SwapStats { return s.readModel.Stats() }

// Handler exposes the API router, e.g. for httptest.
func (s *Service) Handler() http.Handler { return s.server.http.Handler }

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Service) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.WithField("addr", s.server.http.Addr).Info("devhost listening")
		if err := s.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.Close()
		return s.server.Stop(shutdownCtx)
	})

	err := g.Wait()
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	return err
}
