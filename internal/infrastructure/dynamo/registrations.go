package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/todo-api-nosql/internal/domain"
)

// RegistrationRepo stores pending registrations keyed by email.
// Records carry expires_at as their TTL attribute.
type RegistrationRepo struct {
	client    API
	tableName string
}

func NewRegistrationRepo(client API, tableName string) *RegistrationRepo {
	return &RegistrationRepo{client: client, tableName: tableName}
}

// Put creates or replaces the pending registration for p.Email.
func (r *RegistrationRepo) Put(ctx context.Context, p *domain.PendingRegistration) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *RegistrationRepo) Get(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("registration %s: %w", email, domain.ErrNotFound)
	}
	var p domain.PendingRegistration
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RegistrationRepo) Delete(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldEmail, email),
	})
	return err
}

// IncrementAttempts atomically adds one failed attempt and returns the new count.
func (r *RegistrationRepo) IncrementAttempts(ctx context.Context, email string) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldEmail, email),
		UpdateExpression:    aws.String("ADD #attempts :one"),
		ConditionExpression: aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{
			"#pk":       fieldEmail,
			"#attempts": fieldAttempts,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if isConditionFailed(err) {
		return 0, fmt.Errorf("registration %s: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	n, ok := out.Attributes[fieldAttempts].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attempts missing from update result")
	}
	return strconv.Atoi(n.Value)
}

// MarkVerified flips verified to true only if the record still holds code and
// has not been verified yet. Exactly one concurrent caller can win; the rest
// get domain.ErrNotFound.
func (r *RegistrationRepo) MarkVerified(ctx context.Context, email, code string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldVerified: true})
	if err != nil {
		return err
	}
	cond := ue.where("attribute_exists(#pk) AND #code = :code AND #verified = :false",
		map[string]string{"#pk": fieldEmail, "#code": fieldCode, "#verified": fieldVerified},
		map[string]types.AttributeValue{
			":code":  &types.AttributeValueMemberS{Value: code},
			":false": &types.AttributeValueMemberBOOL{Value: false},
		})
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEmail, email),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       cond,
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("registration %s: %w", email, domain.ErrNotFound)
	}
	return err
}

// ResetVerified undoes MarkVerified after a failed promotion so the user can retry.
func (r *RegistrationRepo) ResetVerified(ctx context.Context, email string) error {
	return r.update(ctx, email, map[string]interface{}{fieldVerified: false})
}

// Reissue replaces the code on an existing record and clears its attempt counter.
func (r *RegistrationRepo) Reissue(ctx context.Context, email, code string, expiresAt int64, now time.Time) error {
	return r.update(ctx, email, map[string]interface{}{
		fieldCode:         code,
		fieldExpiresAt:    expiresAt,
		fieldAttempts:     0,
		fieldVerified:     false,
		fieldLastResendAt: now,
	})
}

func (r *RegistrationRepo) update(ctx context.Context, email string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey(fieldEmail, email),
		UpdateExpression: aws.String(ue.Expr),
		ConditionExpression: ue.where("attribute_exists(#pk)",
			map[string]string{"#pk": fieldEmail}, nil),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("registration %s: %w", email, domain.ErrNotFound)
	}
	return err
}

// ListExpired returns the emails of records whose expiry is before now.
// DynamoDB TTL deletion is lazy, so this backs the periodic purge.
func (r *RegistrationRepo) ListExpired(ctx context.Context, now time.Time) ([]string, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:            aws.String(r.tableName),
		FilterExpression:     aws.String("#exp < :now"),
		ProjectionExpression: aws.String("#pk"),
		ExpressionAttributeNames: map[string]string{
			"#exp": fieldExpiresAt,
			"#pk":  fieldEmail,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	var emails []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if v, ok := item[fieldEmail].(*types.AttributeValueMemberS); ok {
				emails = append(emails, v.Value)
			}
		}
	}
	return emails, nil
}
