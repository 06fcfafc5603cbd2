package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"ops-agent/internal/domain"
	"ops-agent/internal/store"
)

// Inventory items are keyed by warehouse (partition) and product (sort);
// order items by orderId.
const (
	attrWarehouse = "warehouse"
	attrProduct   = "product"
	attrStock     = "stock"
	attrOrderID   = "orderId"
	attrStatus    = "status"
	attrDriver    = "driver"
	attrCity      = "city"
	attrPriority  = "priority"
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoClient.
// Defined here for testability.
type dynamodbAPI interface {
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoClient reads snapshots from the inventory and orders tables and acts
// as the stock ledger for transfers.
type DynamoClient struct {
	api            dynamodbAPI
	inventoryTable string
	ordersTable    string
}

func NewDynamoClient(api dynamodbAPI, inventoryTable, ordersTable string) (*DynamoClient, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(inventoryTable) == "" || strings.TrimSpace(ordersTable) == "" {
		return nil, errors.New("repository: table names must not be empty")
	}
	return &DynamoClient{api: api, inventoryTable: inventoryTable, ordersTable: ordersTable}, nil
}

// LoadSnapshot scans both tables. Items are sorted by key since Scan order is
// unspecified.
func (c *DynamoClient) LoadSnapshot(ctx context.Context) (store.Snapshot, error) {
	invItems, err := c.scanAll(ctx, c.inventoryTable)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("repository: LoadSnapshot scan inventory: %w", err)
	}
	inventory := make([]domain.InventoryRecord, 0, len(invItems))
	for i, item := range invItems {
		r, err := itemToInventory(item)
		if err != nil {
			return store.Snapshot{}, &LoadError{Source: c.inventoryTable, Row: i + 1, Err: err}
		}
		inventory = append(inventory, r)
	}
	sort.Slice(inventory, func(i, j int) bool {
		if inventory[i].Warehouse != inventory[j].Warehouse {
			return inventory[i].Warehouse < inventory[j].Warehouse
		}
		return inventory[i].Product < inventory[j].Product
	})

	orderItems, err := c.scanAll(ctx, c.ordersTable)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("repository: LoadSnapshot scan orders: %w", err)
	}
	orders := make([]domain.OrderRecord, 0, len(orderItems))
	for i, item := range orderItems {
		o, err := itemToOrder(item)
		if err != nil {
			return store.Snapshot{}, &LoadError{Source: c.ordersTable, Row: i + 1, Err: err}
		}
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })

	snap, err := store.NewSnapshot(inventory, orders)
	if err != nil {
		return store.Snapshot{}, &LoadError{Source: "dynamodb", Err: err}
	}
	return snap, nil
}

func (c *DynamoClient) scanAll(ctx context.Context, table string) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	p := dynamodb.NewScanPaginator(c.api, &dynamodb.ScanInput{
		TableName:      aws.String(table),
		ConsistentRead: aws.Bool(true),
	})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
	}
	return items, nil
}

// Transfer decrements the source and increments the destination in one
// transaction. The source update is conditioned on holding enough stock, so
// a concurrent writer cannot drive it negative; that rejection is reported as
// store.ErrInvalidTransfer.
func (c *DynamoClient) Transfer(ctx context.Context, t domain.Transfer) error {
	if t.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", store.ErrInvalidTransfer)
	}
	qty := &types.AttributeValueMemberN{Value: strconv.Itoa(t.Quantity)}

	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName:           aws.String(c.inventoryTable),
					Key:                 inventoryKey(t.From, t.Product),
					UpdateExpression:    aws.String("SET #stock = #stock - :qty"),
					ConditionExpression: aws.String("#stock >= :qty"),
					ExpressionAttributeNames: map[string]string{
						"#stock": attrStock,
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{":qty": qty},
				},
			},
			{
				Update: &types.Update{
					TableName:           aws.String(c.inventoryTable),
					Key:                 inventoryKey(t.To, t.Product),
					UpdateExpression:    aws.String("SET #stock = #stock + :qty"),
					ConditionExpression: aws.String("attribute_exists(#stock)"),
					ExpressionAttributeNames: map[string]string{
						"#stock": attrStock,
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{":qty": qty},
				},
			},
		},
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) && conditionFailed(canceled) {
			return fmt.Errorf("repository: Transfer %s %s->%s: %w", t.Product, t.From, t.To, store.ErrInvalidTransfer)
		}
		return fmt.Errorf("repository: Transfer: %w", err)
	}
	return nil
}

// SaveSnapshot writes every record of snap, replacing items with the same key.
func (c *DynamoClient) SaveSnapshot(ctx context.Context, snap store.Snapshot) error {
	for _, r := range snap.Inventory {
		if _, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(c.inventoryTable),
			Item:      inventoryItem(r),
		}); err != nil {
			return fmt.Errorf("repository: SaveSnapshot inventory %s/%s: %w", r.Warehouse, r.Product, err)
		}
	}
	for _, o := range snap.Orders {
		if _, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(c.ordersTable),
			Item:      orderItem(o),
		}); err != nil {
			return fmt.Errorf("repository: SaveSnapshot order %s: %w", o.ID, err)
		}
	}
	return nil
}

func conditionFailed(e *types.TransactionCanceledException) bool {
	for _, r := range e.CancellationReasons {
		if aws.ToString(r.Code) == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

func inventoryKey(warehouse, product string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrWarehouse: &types.AttributeValueMemberS{Value: warehouse},
		attrProduct:   &types.AttributeValueMemberS{Value: product},
	}
}

func inventoryItem(r domain.InventoryRecord) map[string]types.AttributeValue {
	item := inventoryKey(r.Warehouse, r.Product)
	item[attrStock] = &types.AttributeValueMemberN{Value: strconv.Itoa(r.Stock)}
	return item
}

func orderItem(o domain.OrderRecord) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrOrderID:  &types.AttributeValueMemberS{Value: o.ID},
		attrStatus:   &types.AttributeValueMemberS{Value: string(o.Status)},
		attrDriver:   &types.AttributeValueMemberS{Value: o.Driver},
		attrCity:     &types.AttributeValueMemberS{Value: o.City},
		attrPriority: &types.AttributeValueMemberS{Value: string(o.Priority)},
	}
}

func itemToInventory(item map[string]types.AttributeValue) (domain.InventoryRecord, error) {
	warehouse, err := strAttr(item, attrWarehouse)
	if err != nil {
		return domain.InventoryRecord{}, err
	}
	product, err := strAttr(item, attrProduct)
	if err != nil {
		return domain.InventoryRecord{}, err
	}
	stock, err := intAttr(item, attrStock)
	if err != nil {
		return domain.InventoryRecord{}, err
	}
	return domain.InventoryRecord{Warehouse: warehouse, Product: product, Stock: stock}, nil
}

func itemToOrder(item map[string]types.AttributeValue) (domain.OrderRecord, error) {
	id, err := strAttr(item, attrOrderID)
	if err != nil {
		return domain.OrderRecord{}, err
	}
	rawStatus, err := strAttr(item, attrStatus)
	if err != nil {
		return domain.OrderRecord{}, err
	}
	status, err := domain.ParseOrderStatus(rawStatus)
	if err != nil {
		return domain.OrderRecord{}, err
	}
	driver, _ := strAttr(item, attrDriver) // allow empty
	city, _ := strAttr(item, attrCity)     // allow empty
	rawPriority, _ := strAttr(item, attrPriority)
	priority, err := domain.ParsePriority(rawPriority)
	if err != nil {
		return domain.OrderRecord{}, err
	}
	return domain.OrderRecord{ID: id, Status: status, Driver: driver, City: city, Priority: priority}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
