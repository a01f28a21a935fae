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
)

// UserRepo stores users keyed by user_id. A second table keyed by email holds
// one guard item per user so that email uniqueness is enforced by the store.
type UserRepo struct {
	client     API
	tableName  string
	emailTable string
}

func NewUserRepo(client API, tableName, emailTable string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName, emailTable: emailTable}
}

// Create writes the user and its email guard in one transaction.
// Returns domain.ErrConflict when the email (or id) is already taken.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	guard := map[string]types.AttributeValue{
		fieldEmail:  &types.AttributeValueMemberS{Value: u.Email},
		fieldUserID: &types.AttributeValueMemberS{Value: u.UserID},
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.emailTable),
				Item:                     guard,
				ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
				ExpressionAttributeNames: map[string]string{"#pk": fieldEmail},
			}},
			{Put: &types.Put{
				TableName:                aws.String(r.tableName),
				Item:                     item,
				ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
				ExpressionAttributeNames: map[string]string{"#pk": fieldUserID},
			}},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("email %s: %w", u.Email, domain.ErrConflict)
	}
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldUserID, userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail resolves the email guard with a strongly consistent read, then
// loads the user it points at.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.emailTable),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("email %s: %w", email, domain.ErrNotFound)
	}
	var guard struct {
		UserID string `dynamodbav:"user_id"`
	}
	if err := attributevalue.UnmarshalMap(out.Item, &guard); err != nil {
		return nil, err
	}
	return r.Get(ctx, guard.UserID)
}

// ExistsByEmail reports whether a user already holds the email.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.emailTable),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey(fieldUserID, userID),
		UpdateExpression: aws.String(ue.Expr),
		ConditionExpression: ue.where("attribute_exists(#pk)",
			map[string]string{"#pk": fieldUserID}, nil),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return err
}

// Delete removes the user together with its email guard.
func (r *UserRepo) Delete(ctx context.Context, u *domain.User) error {
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:                aws.String(r.tableName),
				Key:                      strKey(fieldUserID, u.UserID),
				ConditionExpression:      aws.String("attribute_exists(#pk)"),
				ExpressionAttributeNames: map[string]string{"#pk": fieldUserID},
			}},
			{Delete: &types.Delete{
				TableName: aws.String(r.emailTable),
				Key:       strKey(fieldEmail, u.Email),
			}},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("user %s: %w", u.UserID, domain.ErrNotFound)
	}
	return err
}
