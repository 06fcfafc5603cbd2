package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ops-agent/internal/compose"
	"ops-agent/internal/domain"
	"ops-agent/internal/store"
)

type mockParams struct {
	vals map[string]string
	err  error
}

func (m *mockParams) GetParameterOr(_ context.Context, name, fallback string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.vals[name]
	if !ok {
		return fallback, nil
	}
	return v, nil
}

type transientParams struct {
	*mockParams
	failOnce bool
}

func (p *transientParams) GetParameterOr(ctx context.Context, name, fallback string) (string, error) {
	if p.failOnce {
		p.failOnce = false
		return "", errors.New("temporary ssm failure")
	}
	return p.mockParams.GetParameterOr(ctx, name, fallback)
}

type mockLoader struct {
	snap  store.Snapshot
	err   error
	calls int
}

func (m *mockLoader) LoadSnapshot(_ context.Context) (store.Snapshot, error) {
	m.calls++
	return m.snap, m.err
}

type mockLedger struct {
	err       error
	transfers []domain.Transfer
}

func (m *mockLedger) Transfer(_ context.Context, t domain.Transfer) error {
	if m.err != nil {
		return m.err
	}
	m.transfers = append(m.transfers, t)
	return nil
}

func defaultParams() *mockParams {
	return &mockParams{vals: map[string]string{}}
}

func defaultLoader() *mockLoader {
	return &mockLoader{snap: store.Snapshot{
		Inventory: []domain.InventoryRecord{
			{Warehouse: "Dubai Central", Product: "Cola 330ml", Stock: 1200},
			{Warehouse: "Sharjah Hub", Product: "Cola 330ml", Stock: 300},
		},
		Orders: []domain.OrderRecord{
			{ID: "ORD-1", Status: domain.OrderStatusDelivered, Driver: "Saeed", City: "Dubai", Priority: domain.PriorityVIP},
			{ID: "ORD-2", Status: domain.OrderStatusDelayed, Driver: "Ahmed", City: "Sharjah", Priority: domain.PriorityNormal},
		},
	}}
}

func newTestService(t *testing.T, p ParamGetter, l SnapshotLoader, opts ...Option) *AskService {
	t.Helper()
	svc, err := NewAskService(p, l, "/prefix", 300, time.Hour, opts...)
	require.NoError(t, err)
	return svc
}

func expectAskError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}

func TestNewAskService_ValidatesDependencies(t *testing.T) {
	_, err := NewAskService(nil, defaultLoader(), "/prefix", 300, time.Hour)
	require.Error(t, err)

	_, err = NewAskService(defaultParams(), nil, "/prefix", 300, time.Hour)
	require.Error(t, err)

	_, err = NewAskService(defaultParams(), defaultLoader(), " / ", 300, time.Hour)
	require.Error(t, err)
}

func TestAsk_HappyPath(t *testing.T) {
	loader := defaultLoader()
	svc := newTestService(t, defaultParams(), loader)

	out, err := svc.Ask(context.Background(), AskInput{Question: "  total stock?  ", SessionID: "conv-1"})
	require.NoError(t, err)
	require.Equal(t, "Total stock across all warehouses is 1,500 units over 2 items. 1 of them is below 500 units.", out.Answer)
	require.Equal(t, "conv-1", out.SessionID)
	require.Nil(t, out.Attachment)

	_, err = svc.Ask(context.Background(), AskInput{Question: "hello", SessionID: "conv-1"})
	require.NoError(t, err)
	require.Equal(t, 1, loader.calls)
}

func TestAsk_MissingSessionID_GeneratesID(t *testing.T) {
	prev := newUUID
	newUUID = func() string { return "generated-id" }
	t.Cleanup(func() { newUUID = prev })

	svc := newTestService(t, defaultParams(), defaultLoader())
	out, err := svc.Ask(context.Background(), AskInput{Question: "hello"})
	require.NoError(t, err)
	require.Equal(t, "generated-id", out.SessionID)
}

func TestAsk_FollowUpUsesSession(t *testing.T) {
	svc := newTestService(t, defaultParams(), defaultLoader())
	ctx := context.Background()

	out, err := svc.Ask(ctx, AskInput{Question: "any delays?", SessionID: "s1"})
	require.NoError(t, err)
	require.Contains(t, out.Answer, "1 shipment is delayed")

	out, err = svc.Ask(ctx, AskInput{Question: "more", SessionID: "s1"})
	require.NoError(t, err)
	require.Equal(t, "Delayed shipments by city: Sharjah 1.", out.Answer)
	require.Equal(t, compose.AttachmentTable, out.Attachment.Kind)

	// A different session has no topic to continue.
	out, err = svc.Ask(ctx, AskInput{Question: "more", SessionID: "s2"})
	require.NoError(t, err)
	require.Equal(t, compose.Clarify("en").Text, out.Answer)
}

func TestAsk_EmptyQuestionIsFallback(t *testing.T) {
	svc := newTestService(t, defaultParams(), defaultLoader())
	out, err := svc.Ask(context.Background(), AskInput{Question: "   "})
	require.NoError(t, err)
	require.Equal(t, compose.Fallback("en").Text, out.Answer)
}

func TestAsk_ValidationErrors(t *testing.T) {
	svc := newTestService(t, defaultParams(), defaultLoader())
	_, err := svc.Ask(context.Background(), AskInput{Question: strings.Repeat("a", 301)})
	expectAskError(t, err, ErrorInvalidInput, "question_too_long")

	// Length is counted in characters, not bytes.
	_, err = svc.Ask(context.Background(), AskInput{Question: strings.Repeat("م", 300)})
	require.NoError(t, err)
}

func TestAsk_ParamsConfigureEngine(t *testing.T) {
	p := &mockParams{vals: map[string]string{
		"/prefix/config/low_stock_threshold": "1000",
		"/prefix/config/region_aliases":      "Sharjah: [shj]\n",
	}}
	svc := newTestService(t, p, defaultLoader())

	out, err := svc.Ask(context.Background(), AskInput{Question: "low stock"})
	require.NoError(t, err)
	require.Contains(t, out.Answer, "1 item is below 1,000 units")

	out, err = svc.Ask(context.Background(), AskInput{Question: "how is shj"})
	require.NoError(t, err)
	require.Contains(t, out.Answer, "Sharjah has 1 order:")
}

func TestAsk_SSMLoadErrors(t *testing.T) {
	svc := newTestService(t, &mockParams{err: errors.New("ssm unavailable")}, defaultLoader())
	_, err := svc.Ask(context.Background(), AskInput{Question: "stock"})
	expectAskError(t, err, ErrorInternal, "ssm_load_error")

	svc = newTestService(t, &mockParams{vals: map[string]string{"/prefix/config/low_stock_threshold": "lots"}}, defaultLoader())
	_, err = svc.Ask(context.Background(), AskInput{Question: "stock"})
	expectAskError(t, err, ErrorInternal, "invalid_low_stock_threshold")

	svc = newTestService(t, &mockParams{vals: map[string]string{"/prefix/config/region_aliases": "Dubai: [x]\nSharjah: [x]\n"}}, defaultLoader())
	_, err = svc.Ask(context.Background(), AskInput{Question: "stock"})
	expectAskError(t, err, ErrorInternal, "invalid_region_aliases")
}

func TestAsk_SSMLoadError_IsRetriedOnNextRequest(t *testing.T) {
	p := &transientParams{mockParams: defaultParams(), failOnce: true}
	svc := newTestService(t, p, defaultLoader())

	_, err := svc.Ask(context.Background(), AskInput{Question: "stock"})
	expectAskError(t, err, ErrorInternal, "ssm_load_error")

	out, err := svc.Ask(context.Background(), AskInput{Question: "stock"})
	require.NoError(t, err)
	require.Contains(t, out.Answer, "1,500")
}

func TestAsk_SnapshotLoadError(t *testing.T) {
	loader := &mockLoader{err: errors.New("dynamodb down")}
	svc := newTestService(t, defaultParams(), loader)

	_, err := svc.Ask(context.Background(), AskInput{Question: "stock"})
	expectAskError(t, err, ErrorUpstream, "snapshot_load_error")

	loader.err = nil
	loader.snap = defaultLoader().snap
	_, err = svc.Ask(context.Background(), AskInput{Question: "stock"})
	require.NoError(t, err)
	require.Equal(t, 2, loader.calls)
}

func TestTransfer_HappyPath(t *testing.T) {
	ledger := &mockLedger{}
	svc := newTestService(t, defaultParams(), defaultLoader(), WithLedger(ledger))

	out, err := svc.Transfer(context.Background(), TransferInput{Product: "cola 330ml", From: "dubai central", To: "Sharjah Hub", Quantity: 200})
	require.NoError(t, err)
	require.Equal(t, 1000, out.Source.Stock)
	require.Equal(t, 500, out.Destination.Stock)
	require.Equal(t, []domain.Transfer{{Product: "Cola 330ml", From: "Dubai Central", To: "Sharjah Hub", Quantity: 200}}, ledger.transfers)

	ans, err := svc.Ask(context.Background(), AskInput{Question: "stock in sharjah"})
	require.NoError(t, err)
	require.Contains(t, ans.Answer, "Stock in Sharjah is 500 units")
}

func TestTransfer_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, defaultParams(), defaultLoader())

	_, err := svc.Transfer(ctx, TransferInput{Product: "Cola 330ml", From: "Dubai Central", To: "Sharjah Hub", Quantity: 5000})
	expectAskError(t, err, ErrorInvalidTransfer, "transfer_rejected")
	require.ErrorIs(t, err, store.ErrInvalidTransfer)

	_, err = svc.Transfer(ctx, TransferInput{Product: "Cola 330ml", From: "Dubai Central", To: "Sharjah Hub", Quantity: 0})
	expectAskError(t, err, ErrorInvalidTransfer, "transfer_rejected")

	_, err = svc.Transfer(ctx, TransferInput{Product: "Flour 5kg", From: "Dubai Central", To: "Sharjah Hub", Quantity: 1})
	expectAskError(t, err, ErrorNotFound, "unknown_inventory_record")

	_, err = svc.Transfer(ctx, TransferInput{Product: "", From: "Dubai Central", To: "Sharjah Hub", Quantity: 1})
	expectAskError(t, err, ErrorInvalidInput, "missing_transfer_field")

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1500, summary.TotalStock)
}

func TestTransfer_LedgerErrors(t *testing.T) {
	ctx := context.Background()
	in := TransferInput{Product: "Cola 330ml", From: "Dubai Central", To: "Sharjah Hub", Quantity: 100}

	svc := newTestService(t, defaultParams(), defaultLoader(), WithLedger(&mockLedger{err: errors.New("throttled")}))
	_, err := svc.Transfer(ctx, in)
	expectAskError(t, err, ErrorUpstream, "ledger_error")

	// A ledger that holds less stock than memory rejects the transfer.
	svc = newTestService(t, defaultParams(), defaultLoader(), WithLedger(&mockLedger{err: fmt.Errorf("condition failed: %w", store.ErrInvalidTransfer)}))
	_, err = svc.Transfer(ctx, in)
	expectAskError(t, err, ErrorInvalidTransfer, "transfer_rejected")

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1500, summary.TotalStock)
	ans, err := svc.Ask(ctx, AskInput{Question: "stock in dubai"})
	require.NoError(t, err)
	require.Contains(t, ans.Answer, "1,200 units")
}

func TestSummary_LoadError(t *testing.T) {
	svc := newTestService(t, defaultParams(), &mockLoader{err: errors.New("boom")})
	_, err := svc.Summary(context.Background())
	expectAskError(t, err, ErrorUpstream, "snapshot_load_error")
}
