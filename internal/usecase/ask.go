package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"ops-agent/internal/compose"
	"ops-agent/internal/domain"
	"ops-agent/internal/engine"
	"ops-agent/internal/intent"
	"ops-agent/internal/metrics"
	"ops-agent/internal/store"
)

const defaultMaxQuestion = 300

// Parameter names, relative to the service's parameter prefix.
const (
	ParamLowStockThreshold = "/config/low_stock_threshold"
	ParamRegionAliases     = "/config/region_aliases"
)

// ParamGetter reads runtime parameters. A parameter that does not exist
// yields fallback without error.
type ParamGetter interface {
	GetParameterOr(ctx context.Context, name, fallback string) (string, error)
}

// SnapshotLoader reads both record collections from the backing store.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (store.Snapshot, error)
}

// Option configures an AskService.
type Option func(*AskService)

func WithLogger(l *slog.Logger) Option {
	return func(s *AskService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLedger writes transfers through to a durable stock ledger before they
// are applied in memory.
func WithLedger(l store.Ledger) Option {
	return func(s *AskService) { s.ledger = l }
}

// AskService answers questions and executes stock transfers against a record
// store that is loaded lazily on first use. Runtime tunables come from the
// parameter store and are cached for the life of the process.
type AskService struct {
	params         ParamGetter
	loader         SnapshotLoader
	ledger         store.Ledger
	sessions       *SessionRegistry
	paramPrefix    string
	maxQuestionLen int
	logger         *slog.Logger

	cacheMu     sync.RWMutex
	cacheLoaded bool
	engine      *engine.Engine
	records     *store.Store
}

type AskInput struct {
	Question  string
	SessionID string
}

type AskOutput struct {
	Answer     string
	Attachment *compose.Attachment
	SessionID  string
}

type TransferInput struct {
	Product  string
	From     string
	To       string
	Quantity int
}

type TransferOutput struct {
	Source      domain.InventoryRecord
	Destination domain.InventoryRecord
}

func NewAskService(p ParamGetter, loader SnapshotLoader, paramPrefix string, maxQuestionLen int, sessionTTL time.Duration, opts ...Option) (*AskService, error) {
	if p == nil {
		return nil, errors.New("usecase: param getter must not be nil")
	}
	if loader == nil {
		return nil, errors.New("usecase: snapshot loader must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("usecase: parameter prefix must not be empty")
	}
	if maxQuestionLen <= 0 {
		maxQuestionLen = defaultMaxQuestion
	}
	s := &AskService{
		params:         p,
		loader:         loader,
		sessions:       NewSessionRegistry(sessionTTL),
		paramPrefix:    paramPrefix,
		maxQuestionLen: maxQuestionLen,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ask answers one question within a session. An empty SessionID starts a new
// session; the id to continue with is returned in the output.
func (s *AskService) Ask(ctx context.Context, in AskInput) (AskOutput, error) {
	question := strings.TrimSpace(in.Question)
	if utf8.RuneCountInString(question) > s.maxQuestionLen {
		return AskOutput{}, newError(ErrorInvalidInput, "question_too_long", nil)
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return AskOutput{}, err
	}
	eng, records := s.loaded()

	session, release := s.sessions.Acquire(strings.TrimSpace(in.SessionID))
	defer release()

	resp := eng.Ask(question, records.Snapshot(), session)
	s.logger.InfoContext(ctx, "question answered",
		"session_id", session.ID,
		"topic", session.Context.LastTopic.Kind,
		"attachment", resp.Kind(),
	)
	return AskOutput{
		Answer:     resp.Text,
		Attachment: resp.Attachment,
		SessionID:  session.ID,
	}, nil
}

// Transfer moves stock between warehouses. Rejected transfers leave every
// record unchanged.
func (s *AskService) Transfer(ctx context.Context, in TransferInput) (TransferOutput, error) {
	if strings.TrimSpace(in.Product) == "" || strings.TrimSpace(in.From) == "" || strings.TrimSpace(in.To) == "" {
		return TransferOutput{}, newError(ErrorInvalidInput, "missing_transfer_field", nil)
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return TransferOutput{}, err
	}
	_, records := s.loaded()

	res, err := records.Transfer(ctx, domain.Transfer{
		Product:  in.Product,
		From:     in.From,
		To:       in.To,
		Quantity: in.Quantity,
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrInvalidTransfer):
		return TransferOutput{}, newError(ErrorInvalidTransfer, "transfer_rejected", err)
	case errors.Is(err, store.ErrUnknownRecord):
		return TransferOutput{}, newError(ErrorNotFound, "unknown_inventory_record", err)
	default:
		return TransferOutput{}, newError(ErrorUpstream, "ledger_error", err)
	}

	s.logger.InfoContext(ctx, "stock transferred",
		"product", res.Source.Product,
		"from", res.Source.Warehouse,
		"to", res.Destination.Warehouse,
		"quantity", in.Quantity,
	)
	return TransferOutput{Source: res.Source, Destination: res.Destination}, nil
}

// Summary returns the dashboard headline figures.
func (s *AskService) Summary(ctx context.Context) (metrics.Summary, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return metrics.Summary{}, err
	}
	_, records := s.loaded()
	snap := records.Snapshot()
	return metrics.Summarize(snap.Inventory, snap.Orders), nil
}

func (s *AskService) loaded() (*engine.Engine, *store.Store) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.engine, s.records
}

func (s *AskService) ensureLoaded(ctx context.Context) error {
	s.cacheMu.RLock()
	if s.cacheLoaded {
		s.cacheMu.RUnlock()
		return nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheLoaded {
		return nil
	}

	eng, err := s.loadEngine(ctx)
	if err != nil {
		return err
	}
	snap, err := s.loader.LoadSnapshot(ctx)
	if err != nil {
		return newError(ErrorUpstream, "snapshot_load_error", err)
	}

	s.engine = eng
	s.records = store.New(snap, s.ledger)
	s.cacheLoaded = true
	s.logger.InfoContext(ctx, "records loaded",
		"inventory", len(snap.Inventory),
		"orders", len(snap.Orders),
		"low_stock_threshold", eng.Threshold(),
	)
	return nil
}

func (s *AskService) loadEngine(ctx context.Context) (*engine.Engine, error) {
	rawThreshold, err := s.params.GetParameterOr(ctx, s.paramPrefix+ParamLowStockThreshold, "")
	if err != nil {
		return nil, newError(ErrorInternal, "ssm_load_error", fmt.Errorf("usecase: load low stock threshold: %w", err))
	}
	threshold := engine.DefaultLowStockThreshold
	if rawThreshold = strings.TrimSpace(rawThreshold); rawThreshold != "" {
		threshold, err = strconv.Atoi(rawThreshold)
		if err != nil || threshold <= 0 {
			return nil, newError(ErrorInternal, "invalid_low_stock_threshold", fmt.Errorf("usecase: low stock threshold %q", rawThreshold))
		}
	}

	rawAliases, err := s.params.GetParameterOr(ctx, s.paramPrefix+ParamRegionAliases, "")
	if err != nil {
		return nil, newError(ErrorInternal, "ssm_load_error", fmt.Errorf("usecase: load region aliases: %w", err))
	}
	aliases, err := intent.LoadAliases(strings.NewReader(rawAliases))
	if err != nil {
		return nil, newError(ErrorInternal, "invalid_region_aliases", err)
	}

	return engine.New(
		engine.WithLowStockThreshold(threshold),
		engine.WithClassifier(intent.New(intent.WithAliases(intent.DefaultAliases().Merge(aliases)))),
		engine.WithLogger(s.logger),
	), nil
}
