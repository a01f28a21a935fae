package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/todo-api-nosql/internal/domain"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}
func (m *mockAPI) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.ScanOutput)
	return out, args.Error(1)
}
func (m *mockAPI) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.TransactWriteItemsOutput)
	return out, args.Error(1)
}

func TestUserRepo_Create_DuplicateEmailIsConflict(t *testing.T) {
	api := new(mockAPI)
	api.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
		return len(in.TransactItems) == 2 && *in.TransactItems[0].Put.TableName == "user_emails"
	})).Return(nil, &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: aws.String("ConditionalCheckFailed")}, {Code: aws.String("None")}},
	})

	repo := NewUserRepo(api, "users", "user_emails")
	err := repo.Create(context.Background(), &domain.User{UserID: "u1", Email: "a@b.com"})

	assert.ErrorIs(t, err, domain.ErrConflict)
	api.AssertExpectations(t)
}

func TestUserRepo_GetByEmail_ResolvesGuard(t *testing.T) {
	api := new(mockAPI)
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return *in.TableName == "user_emails" && aws.ToBool(in.ConsistentRead)
	})).Return(&dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"email":   &types.AttributeValueMemberS{Value: "a@b.com"},
		"user_id": &types.AttributeValueMemberS{Value: "u1"},
	}}, nil)
	userItem, err := attributevalue.MarshalMap(domain.User{UserID: "u1", Email: "a@b.com", Name: "Al"})
	require.NoError(t, err)
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return *in.TableName == "users"
	})).Return(&dynamodb.GetItemOutput{Item: userItem}, nil)

	repo := NewUserRepo(api, "users", "user_emails")
	u, err := repo.GetByEmail(context.Background(), "a@b.com")

	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	assert.Equal(t, "Al", u.Name)
}

func TestUserRepo_GetByEmail_Missing(t *testing.T) {
	api := new(mockAPI)
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewUserRepo(api, "users", "user_emails").GetByEmail(context.Background(), "x@y.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistrationRepo_IncrementAttempts_ReturnsNewCount(t *testing.T) {
	api := new(mockAPI)
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return *in.UpdateExpression == "ADD #attempts :one" && in.ReturnValues == types.ReturnValueUpdatedNew
	})).Return(&dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
		"attempts": &types.AttributeValueMemberN{Value: "3"},
	}}, nil)

	n, err := NewRegistrationRepo(api, "pending").IncrementAttempts(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRegistrationRepo_MarkVerified_LostRaceIsNotFound(t *testing.T) {
	api := new(mockAPI)
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		code, _ := in.ExpressionAttributeValues[":code"].(*types.AttributeValueMemberS)
		return code != nil && code.Value == "123456" && in.ExpressionAttributeNames["#verified"] == "verified"
	})).Return(nil, &types.ConditionalCheckFailedException{})

	err := NewRegistrationRepo(api, "pending").MarkVerified(context.Background(), "a@b.com", "123456")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistrationRepo_ListExpired(t *testing.T) {
	api := new(mockAPI)
	now := time.Unix(1_700_000_000, 0)
	api.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		v, _ := in.ExpressionAttributeValues[":now"].(*types.AttributeValueMemberN)
		return v != nil && v.Value == "1700000000"
	})).Return(&dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{
		{"email": &types.AttributeValueMemberS{Value: "old@b.com"}},
		{"email": &types.AttributeValueMemberS{Value: "older@b.com"}},
	}}, nil)

	emails, err := NewRegistrationRepo(api, "pending").ListExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"old@b.com", "older@b.com"}, emails)
}

func TestTodoRepo_Get_Missing(t *testing.T) {
	api := new(mockAPI)
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewTodoRepo(api, "todos").Get(context.Background(), "t1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTodoRepo_ListByUser_NewestFirstQuery(t *testing.T) {
	api := new(mockAPI)
	items, err := attributevalue.MarshalList([]domain.Todo{{TodoID: "t2", UserID: "u1"}, {TodoID: "t1", UserID: "u1"}})
	require.NoError(t, err)
	page := make([]map[string]types.AttributeValue, 0, len(items))
	for _, it := range items {
		page = append(page, it.(*types.AttributeValueMemberM).Value)
	}
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return *in.IndexName == indexTodosByUser && !*in.ScanIndexForward
	})).Return(&dynamodb.QueryOutput{Items: page}, nil)

	todos, err := NewTodoRepo(api, "todos").ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, "t2", todos[0].TodoID)
}

func TestTodoRepo_DeleteByUser_AggregatesFailures(t *testing.T) {
	api := new(mockAPI)
	items, err := attributevalue.MarshalList([]domain.Todo{{TodoID: "t1"}, {TodoID: "t2"}, {TodoID: "t3"}})
	require.NoError(t, err)
	page := make([]map[string]types.AttributeValue, 0, len(items))
	for _, it := range items {
		page = append(page, it.(*types.AttributeValueMemberM).Value)
	}
	api.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Items: page}, nil)
	isKey := func(id string) interface{} {
		return mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
			k, _ := in.Key["todo_id"].(*types.AttributeValueMemberS)
			return k != nil && k.Value == id
		})
	}
	api.On("DeleteItem", mock.Anything, isKey("t1")).Return(&dynamodb.DeleteItemOutput{}, nil)
	api.On("DeleteItem", mock.Anything, isKey("t2")).Return(nil, errors.New("throttled"))
	api.On("DeleteItem", mock.Anything, isKey("t3")).Return(&dynamodb.DeleteItemOutput{}, nil)

	n, err := NewTodoRepo(api, "todos").DeleteByUser(context.Background(), "u1")
	assert.Equal(t, 2, n)
	assert.ErrorContains(t, err, "t2")
}

