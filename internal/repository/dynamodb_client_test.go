package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"ops-agent/internal/domain"
	"ops-agent/internal/store"
)

var (
	_ store.Ledger = (*DynamoClient)(nil)
	_ store.Ledger = (*MySQLAdapter)(nil)
	_ store.Ledger = (*RedisLedger)(nil)
)

// fakeDynamo serves Scan pages per table; a page's LastEvaluatedKey points at
// the next page.
type fakeDynamo struct {
	pages       map[string][]*dynamodb.ScanOutput
	scanErr     error
	putErr      error
	txErr       error
	scanInputs  []*dynamodb.ScanInput
	putInputs   []*dynamodb.PutItemInput
	lastTxInput *dynamodb.TransactWriteItemsInput
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scanInputs = append(f.scanInputs, in)
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	pages := f.pages[aws.ToString(in.TableName)]
	if len(pages) == 0 {
		return &dynamodb.ScanOutput{}, nil
	}
	idx := 0
	if in.ExclusiveStartKey != nil {
		idx = pageIndex(in.ExclusiveStartKey)
	}
	return pages[idx], nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putInputs = append(f.putInputs, in)
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.lastTxInput = in
	return &dynamodb.TransactWriteItemsOutput{}, f.txErr
}

func pageKey(next int) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"page": &types.AttributeValueMemberN{Value: string(rune('0' + next))}}
}

func pageIndex(key map[string]types.AttributeValue) int {
	return int(key["page"].(*types.AttributeValueMemberN).Value[0] - '0')
}

func invItem(warehouse, product, stock string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"warehouse": &types.AttributeValueMemberS{Value: warehouse},
		"product":   &types.AttributeValueMemberS{Value: product},
		"stock":     &types.AttributeValueMemberN{Value: stock},
	}
}

func ordItem(id, status, driver, city, priority string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"orderId":  &types.AttributeValueMemberS{Value: id},
		"status":   &types.AttributeValueMemberS{Value: status},
		"driver":   &types.AttributeValueMemberS{Value: driver},
		"city":     &types.AttributeValueMemberS{Value: city},
		"priority": &types.AttributeValueMemberS{Value: priority},
	}
}

func mustNewClient(t *testing.T, db *fakeDynamo) *DynamoClient {
	t.Helper()
	c, err := NewDynamoClient(db, "inventory", "orders")
	require.NoError(t, err)
	return c
}

func TestNewDynamoClient_Validates(t *testing.T) {
	_, err := NewDynamoClient(nil, "inventory", "orders")
	require.Error(t, err)
	_, err = NewDynamoClient(&fakeDynamo{}, " ", "orders")
	require.Error(t, err)
	_, err = NewDynamoClient(&fakeDynamo{}, "inventory", "")
	require.Error(t, err)
}

func TestLoadSnapshot_PaginatesAndSorts(t *testing.T) {
	db := &fakeDynamo{pages: map[string][]*dynamodb.ScanOutput{
		"inventory": {
			{Items: []map[string]types.AttributeValue{invItem("Sharjah Hub", "Pasta", "40")}, LastEvaluatedKey: pageKey(1)},
			{Items: []map[string]types.AttributeValue{invItem("Dubai Central", "Water 500ml", "900"), invItem("Dubai Central", "Cola 330ml", "1200")}},
		},
		"orders": {
			{Items: []map[string]types.AttributeValue{
				ordItem("ORD-2", "Delayed ⚠️", "Ahmed", "Dubai", "VIP (AAA)"),
				ordItem("ORD-1", "Delivered ✅", "Saeed", "Sharjah", "Normal (A)"),
			}},
		},
	}}
	c := mustNewClient(t, db)

	snap, err := c.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.InventoryRecord{
		{Warehouse: "Dubai Central", Product: "Cola 330ml", Stock: 1200},
		{Warehouse: "Dubai Central", Product: "Water 500ml", Stock: 900},
		{Warehouse: "Sharjah Hub", Product: "Pasta", Stock: 40},
	}, snap.Inventory)
	require.Equal(t, []domain.OrderRecord{
		{ID: "ORD-1", Status: domain.OrderStatusDelivered, Driver: "Saeed", City: "Sharjah", Priority: domain.PriorityNormal},
		{ID: "ORD-2", Status: domain.OrderStatusDelayed, Driver: "Ahmed", City: "Dubai", Priority: domain.PriorityVIP},
	}, snap.Orders)

	require.Len(t, db.scanInputs, 3)
	require.True(t, aws.ToBool(db.scanInputs[0].ConsistentRead))
}

func TestLoadSnapshot_EmptyTables(t *testing.T) {
	snap, err := mustNewClient(t, &fakeDynamo{}).LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.True(t, snap.IsEmpty())
}

func TestLoadSnapshot_Errors(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{scanErr: errors.New("boom")})
	_, err := c.LoadSnapshot(context.Background())
	require.ErrorContains(t, err, "scan inventory")

	c = mustNewClient(t, &fakeDynamo{pages: map[string][]*dynamodb.ScanOutput{
		"inventory": {{Items: []map[string]types.AttributeValue{invItem("A", "X", "many")}}},
	}})
	_, err = c.LoadSnapshot(context.Background())
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, "inventory", loadErr.Source)
	require.Equal(t, 1, loadErr.Row)

	c = mustNewClient(t, &fakeDynamo{pages: map[string][]*dynamodb.ScanOutput{
		"orders": {{Items: []map[string]types.AttributeValue{ordItem("O1", "lost", "x", "y", "VIP")}}},
	}})
	_, err = c.LoadSnapshot(context.Background())
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, "orders", loadErr.Source)

	c = mustNewClient(t, &fakeDynamo{pages: map[string][]*dynamodb.ScanOutput{
		"inventory": {{Items: []map[string]types.AttributeValue{invItem("A", "X", "-5")}}},
	}})
	_, err = c.LoadSnapshot(context.Background())
	require.ErrorAs(t, err, &loadErr)
	require.ErrorContains(t, err, "negative stock")
}

func TestTransfer_BuildsConditionalTransaction(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	err := c.Transfer(context.Background(), domain.Transfer{Product: "Cola 330ml", From: "Dubai Central", To: "Sharjah Hub", Quantity: 25})
	require.NoError(t, err)

	items := db.lastTxInput.TransactItems
	require.Len(t, items, 2)

	src := items[0].Update
	require.Equal(t, "inventory", aws.ToString(src.TableName))
	require.Equal(t, "SET #stock = #stock - :qty", aws.ToString(src.UpdateExpression))
	require.Equal(t, "#stock >= :qty", aws.ToString(src.ConditionExpression))
	require.Equal(t, "Dubai Central", src.Key["warehouse"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "25", src.ExpressionAttributeValues[":qty"].(*types.AttributeValueMemberN).Value)

	dst := items[1].Update
	require.Equal(t, "SET #stock = #stock + :qty", aws.ToString(dst.UpdateExpression))
	require.Equal(t, "Sharjah Hub", dst.Key["warehouse"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "Cola 330ml", dst.Key["product"].(*types.AttributeValueMemberS).Value)
}

func TestTransfer_ConditionFailureIsInvalidTransfer(t *testing.T) {
	db := &fakeDynamo{txErr: &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: aws.String("ConditionalCheckFailed")}, {Code: aws.String("None")}},
	}}
	err := mustNewClient(t, db).Transfer(context.Background(), domain.Transfer{Product: "X", From: "A", To: "B", Quantity: 1})
	require.ErrorIs(t, err, store.ErrInvalidTransfer)

	db = &fakeDynamo{txErr: errors.New("throttled")}
	err = mustNewClient(t, db).Transfer(context.Background(), domain.Transfer{Product: "X", From: "A", To: "B", Quantity: 1})
	require.Error(t, err)
	require.NotErrorIs(t, err, store.ErrInvalidTransfer)

	err = mustNewClient(t, &fakeDynamo{}).Transfer(context.Background(), domain.Transfer{Product: "X", From: "A", To: "B"})
	require.ErrorIs(t, err, store.ErrInvalidTransfer)
}

func TestSaveSnapshot_PutsEveryRecord(t *testing.T) {
	db := &fakeDynamo{}
	snap := store.Snapshot{
		Inventory: []domain.InventoryRecord{{Warehouse: "A", Product: "X", Stock: 7}},
		Orders:    []domain.OrderRecord{{ID: "O1", Status: domain.OrderStatusInTransit, Driver: "Sam", City: "Dubai", Priority: domain.PriorityHigh}},
	}
	require.NoError(t, mustNewClient(t, db).SaveSnapshot(context.Background(), snap))
	require.Len(t, db.putInputs, 2)
	require.Equal(t, "inventory", aws.ToString(db.putInputs[0].TableName))
	require.Equal(t, "7", db.putInputs[0].Item["stock"].(*types.AttributeValueMemberN).Value)
	require.Equal(t, "InTransit", db.putInputs[1].Item["status"].(*types.AttributeValueMemberS).Value)

	db = &fakeDynamo{putErr: errors.New("denied")}
	require.ErrorContains(t, mustNewClient(t, db).SaveSnapshot(context.Background(), snap), "SaveSnapshot inventory A/X")
}

func TestAttrHelpers(t *testing.T) {
	item := map[string]types.AttributeValue{
		"s": &types.AttributeValueMemberS{Value: "x"},
		"n": &types.AttributeValueMemberN{Value: "12"},
	}
	_, err := strAttr(item, "missing")
	require.Error(t, err)
	_, err = strAttr(item, "n")
	require.Error(t, err)
	n, err := intAttr(item, "n")
	require.NoError(t, err)
	require.Equal(t, 12, n)
	_, err = intAttr(item, "s")
	require.Error(t, err)
}
