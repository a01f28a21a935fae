package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/todo-api-nosql/internal/domain"
	"go.uber.org/multierr"
)

// TodoRepo stores todos keyed by todo_id, indexed by owner and creation time.
type TodoRepo struct {
	client    API
	tableName string
}

func NewTodoRepo(client API, tableName string) *TodoRepo {
	return &TodoRepo{client: client, tableName: tableName}
}

func (r *TodoRepo) Put(ctx context.Context, t *domain.Todo) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal todo: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *TodoRepo) Get(ctx context.Context, todoID string) (*domain.Todo, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldTodoID, todoID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("todo %s: %w", todoID, domain.ErrNotFound)
	}
	var t domain.Todo
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByUser returns every todo owned by userID, newest first.
func (r *TodoRepo) ListByUser(ctx context.Context, userID string) ([]domain.Todo, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(indexTodosByUser),
		KeyConditionExpression:   aws.String("#uid = :uid"),
		ExpressionAttributeNames: map[string]string{"#uid": fieldUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	})
	todos := []domain.Todo{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Todo
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		todos = append(todos, batch...)
	}
	return todos, nil
}

// Update applies the given fields and returns the stored result.
func (r *TodoRepo) Update(ctx context.Context, todoID string, updates map[string]interface{}) (*domain.Todo, error) {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey(fieldTodoID, todoID),
		UpdateExpression: aws.String(ue.Expr),
		ConditionExpression: ue.where("attribute_exists(#pk)",
			map[string]string{"#pk": fieldTodoID}, nil),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, fmt.Errorf("todo %s: %w", todoID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var t domain.Todo
	if err := attributevalue.UnmarshalMap(out.Attributes, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TodoRepo) Delete(ctx context.Context, todoID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldTodoID, todoID),
		ConditionExpression:      aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": fieldTodoID},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("todo %s: %w", todoID, domain.ErrNotFound)
	}
	return err
}

// DeleteByUser removes every todo owned by userID. Individual failures are
// collected and returned together; the count covers successful deletes only.
func (r *TodoRepo) DeleteByUser(ctx context.Context, userID string) (int, error) {
	todos, err := r.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	var errs error
	deleted := 0
	for _, t := range todos {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       strKey(fieldTodoID, t.TodoID),
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete todo %s: %w", t.TodoID, err))
			continue
		}
		deleted++
	}
	return deleted, errs
}
