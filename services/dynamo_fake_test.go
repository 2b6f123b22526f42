package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"pairq_server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamoDB is an in-memory stand-in for the DynamoDB client. It
// reproduces the behavior the services lean on: keyed items per table,
// rank-ordered queries over the queue GSI, attribute_exists /
// attribute_not_exists condition checks, and all-or-nothing transactions
// that cancel when a condition fails. Hooks let tests interleave
// operations to reproduce races.
type fakeDynamoDB struct {
	mu     sync.Mutex
	tables map[string]*fakeTable

	// beforeTransact runs once before the next transaction is evaluated,
	// outside the lock, so a test can consume an entry mid-flight.
	beforeTransact func()
	// beforeBatchWrite runs once before the next batch write.
	beforeBatchWrite func()
	// failTransact, when set, is returned by every transaction attempt.
	failTransact error

	transactCalls int
}

type fakeTable struct {
	keyAttr string
	items   map[string]map[string]types.AttributeValue
}

func newFakeDynamoDB() *fakeDynamoDB {
	return &fakeDynamoDB{
		tables: map[string]*fakeTable{
			models.QueueTable:    {keyAttr: "entryId", items: map[string]map[string]types.AttributeValue{}},
			models.MatchesTable:  {keyAttr: "matchId", items: map[string]map[string]types.AttributeValue{}},
			models.SessionsTable: {keyAttr: "sessionId", items: map[string]map[string]types.AttributeValue{}},
		},
	}
}

func (f *fakeDynamoDB) table(name string) *fakeTable {
	t, ok := f.tables[name]
	if !ok {
		panic(fmt.Sprintf("unknown table %q", name))
	}
	return t
}

func stringAttr(item map[string]types.AttributeValue, attr string) string {
	if v, ok := item[attr].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func (f *fakeDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.table(*params.TableName)
	item, ok := t.items[stringAttr(params.Key, t.keyAttr)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *fakeDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.table(*params.TableName)
	key := stringAttr(params.Item, t.keyAttr)
	if params.ConditionExpression != nil {
		if _, exists := t.items[key]; exists && strings.Contains(*params.ConditionExpression, "attribute_not_exists") {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	t.items[key] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.table(*params.TableName)
	delete(t.items, stringAttr(params.Key, t.keyAttr))
	return &dynamodb.DeleteItemOutput{}, nil
}

// UpdateItem supports the single-assignment SET expressions the services
// issue, e.g. "SET lastActivityAt = :now".
func (f *fakeDynamoDB) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	expr := strings.TrimPrefix(*params.UpdateExpression, "SET ")
	parts := strings.SplitN(expr, "=", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("fake cannot parse update expression %q", *params.UpdateExpression)
	}
	attr := strings.TrimSpace(parts[0])
	valueToken := strings.TrimSpace(parts[1])
	value, ok := params.ExpressionAttributeValues[valueToken]
	if !ok {
		return nil, fmt.Errorf("missing expression value %q", valueToken)
	}

	t := f.table(*params.TableName)
	key := stringAttr(params.Key, t.keyAttr)
	item, exists := t.items[key]
	if !exists {
		item = copyItem(params.Key)
	}
	item[attr] = value
	t.items[key] = item
	return &dynamodb.UpdateItemOutput{Attributes: copyItem(item)}, nil
}

// Query serves the category GSI: equality on category, optional rankKey
// upper bound, rank order, limit.
func (f *fakeDynamoDB) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.table(*params.TableName)
	category, _ := params.ExpressionAttributeValues[":category"].(*types.AttributeValueMemberS)
	if category == nil {
		return nil, fmt.Errorf("fake query requires :category")
	}
	var cutoff string
	if c, ok := params.ExpressionAttributeValues[":cutoff"].(*types.AttributeValueMemberS); ok {
		cutoff = c.Value
	}

	var matched []map[string]types.AttributeValue
	for _, item := range t.items {
		if stringAttr(item, "category") != category.Value {
			continue
		}
		if cutoff != "" && stringAttr(item, "rankKey") >= cutoff {
			continue
		}
		matched = append(matched, copyItem(item))
	}

	ascending := params.ScanIndexForward == nil || *params.ScanIndexForward
	sort.Slice(matched, func(i, j int) bool {
		less := stringAttr(matched[i], "rankKey") < stringAttr(matched[j], "rankKey")
		if ascending {
			return less
		}
		return !less
	})

	if params.Limit != nil && int(*params.Limit) < len(matched) {
		matched = matched[:*params.Limit]
	}
	return &dynamodb.QueryOutput{Items: matched}, nil
}

func (f *fakeDynamoDB) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	hook := f.beforeBatchWrite
	f.beforeBatchWrite = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for tableName, requests := range params.RequestItems {
		t := f.table(tableName)
		for _, request := range requests {
			if request.DeleteRequest != nil {
				// Deleting an absent item is a no-op, as in DynamoDB.
				delete(t.items, stringAttr(request.DeleteRequest.Key, t.keyAttr))
			}
			if request.PutRequest != nil {
				t.items[stringAttr(request.PutRequest.Item, t.keyAttr)] = copyItem(request.PutRequest.Item)
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (f *fakeDynamoDB) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	f.transactCalls++
	hook := f.beforeTransact
	f.beforeTransact = nil
	failure := f.failTransact
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if failure != nil {
		return nil, failure
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Evaluate every condition before touching anything.
	reasons := make([]types.CancellationReason, len(params.TransactItems))
	failed := false
	for i, item := range params.TransactItems {
		reasons[i] = types.CancellationReason{Code: aws.String("None")}
		var tableName, key, condition string
		switch {
		case item.Put != nil:
			tableName = *item.Put.TableName
			key = stringAttr(item.Put.Item, f.table(tableName).keyAttr)
			if item.Put.ConditionExpression != nil {
				condition = *item.Put.ConditionExpression
			}
		case item.Delete != nil:
			tableName = *item.Delete.TableName
			key = stringAttr(item.Delete.Key, f.table(tableName).keyAttr)
			if item.Delete.ConditionExpression != nil {
				condition = *item.Delete.ConditionExpression
			}
		default:
			continue
		}

		_, exists := f.table(tableName).items[key]
		if (strings.Contains(condition, "attribute_not_exists") && exists) ||
			(strings.Contains(condition, "attribute_exists") && !strings.Contains(condition, "attribute_not_exists") && !exists) {
			reasons[i] = types.CancellationReason{Code: aws.String("ConditionalCheckFailed")}
			failed = true
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, item := range params.TransactItems {
		switch {
		case item.Put != nil:
			t := f.table(*item.Put.TableName)
			t.items[stringAttr(item.Put.Item, t.keyAttr)] = copyItem(item.Put.Item)
		case item.Delete != nil:
			t := f.table(*item.Delete.TableName)
			delete(t.items, stringAttr(item.Delete.Key, t.keyAttr))
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

// count returns how many items a table holds
func (f *fakeDynamoDB) count(tableName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.table(tableName).items)
}

// has reports whether a table holds an item under the key
func (f *fakeDynamoDB) has(tableName, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.table(tableName).items[key]
	return ok
}
