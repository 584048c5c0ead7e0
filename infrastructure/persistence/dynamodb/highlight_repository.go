package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/annotation"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

type HighlightRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

var _ ports.HighlightRepository = (*HighlightRepository)(nil)

func NewHighlightRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *HighlightRepository {
	return &HighlightRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// highlightItem is the DynamoDB item shape of a highlight.
type highlightItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	GSI1PK         string `dynamodbav:"GSI1PK"`
	GSI1SK         string `dynamodbav:"GSI1SK"`
	EntityType     string `dynamodbav:"EntityType"`
	HighlightID    string `dynamodbav:"HighlightID"`
	UserID         string `dynamodbav:"UserID"`
	NoteID         string `dynamodbav:"NoteID,omitempty"`
	WorkTitle      string `dynamodbav:"WorkTitle"`
	PartTitle      string `dynamodbav:"PartTitle,omitempty"`
	ChapterTitle   string `dynamodbav:"ChapterTitle"`
	SelectedText   string `dynamodbav:"SelectedText"`
	Color          string `dynamodbav:"Color"`
	SelectionStart int    `dynamodbav:"SelectionStart"`
	SelectionEnd   int    `dynamodbav:"SelectionEnd"`
	ElementID      string `dynamodbav:"ElementID,omitempty"`
	XPath          string `dynamodbav:"XPath,omitempty"`
	CreatedAt      string `dynamodbav:"CreatedAt"`
	UpdatedAt      string `dynamodbav:"UpdatedAt"`
}

func highlightToItem(rec annotation.HighlightRecord) highlightItem {
	return highlightItem{
		PK:             fmt.Sprintf("USER#%s", rec.OwnerID),
		SK:             fmt.Sprintf("HL#%s", rec.ID),
		GSI1PK:         fmt.Sprintf("HLID#%s", rec.ID),
		GSI1SK:         "METADATA",
		EntityType:     "HIGHLIGHT",
		HighlightID:    rec.ID,
		UserID:         rec.OwnerID,
		NoteID:         rec.NoteID,
		WorkTitle:      rec.WorkTitle,
		PartTitle:      rec.PartTitle,
		ChapterTitle:   rec.ChapterTitle,
		SelectedText:   rec.SelectedText,
		Color:          rec.Color,
		SelectionStart: rec.SelectionStart,
		SelectionEnd:   rec.SelectionEnd,
		ElementID:      rec.ElementID,
		XPath:          rec.XPath,
		CreatedAt:      rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func itemToHighlightRecord(item highlightItem) (annotation.HighlightRecord, error) {
	rec := annotation.HighlightRecord{
		ID:             item.HighlightID,
		OwnerID:        item.UserID,
		NoteID:         item.NoteID,
		WorkTitle:      item.WorkTitle,
		PartTitle:      item.PartTitle,
		ChapterTitle:   item.ChapterTitle,
		SelectedText:   item.SelectedText,
		Color:          item.Color,
		SelectionStart: item.SelectionStart,
		SelectionEnd:   item.SelectionEnd,
		ElementID:      item.ElementID,
		XPath:          item.XPath,
	}
	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, item.CreatedAt); err != nil {
		return rec, fmt.Errorf("parse CreatedAt: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, item.UpdatedAt); err != nil {
		return rec, fmt.Errorf("parse UpdatedAt: %w", err)
	}
	return rec, nil
}

func (r *HighlightRepository) Create(ctx context.Context, h *annotation.Highlight) error {
	av, err := attributevalue.MarshalMap(highlightToItem(h.Record()))
	if err != nil {
		return pkgerrors.Wrap(err, "marshal highlight item")
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			return pkgerrors.NewConflictError("highlight already exists")
		}
		return pkgerrors.NewDatabaseError("put highlight", err)
	}

	r.logger.Debug("highlight stored",
		zap.String("highlightId", h.ID()),
		zap.String("userId", h.OwnerID()),
	)
	return nil
}

func (r *HighlightRepository) Save(ctx context.Context, h *annotation.Highlight) error {
	av, err := attributevalue.MarshalMap(highlightToItem(h.Record()))
	if err != nil {
		return pkgerrors.Wrap(err, "marshal highlight item")
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			return pkgerrors.NewNotFoundError("highlight")
		}
		return pkgerrors.NewDatabaseError("save highlight", err)
	}
	return nil
}

func (r *HighlightRepository) FindByID(ctx context.Context, id string) (*annotation.Highlight, error) {
	keyEx := expression.Key("GSI1PK").Equal(expression.Value(fmt.Sprintf("HLID#%s", id))).
		And(expression.Key("GSI1SK").Equal(expression.Value("METADATA")))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "build highlight lookup expression")
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(IndexByID),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query highlight", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("highlight")
	}

	var item highlightItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, pkgerrors.Wrap(err, "unmarshal highlight item")
	}
	rec, err := itemToHighlightRecord(item)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "decode highlight item")
	}
	return annotation.HighlightFromRecord(rec)
}

func (r *HighlightRepository) Delete(ctx context.Context, h *annotation.Highlight) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", h.OwnerID())},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("HL#%s", h.ID())},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			return pkgerrors.NewNotFoundError("highlight")
		}
		return pkgerrors.NewDatabaseError("delete highlight", err)
	}
	return nil
}

func (r *HighlightRepository) List(ctx context.Context, ownerID string, filter ports.Filter) ([]*annotation.Highlight, error) {
	builder := expression.NewBuilder().WithKeyCondition(ownerHighlightKey(ownerID))
	if cond, ok := locationFilter(filter); ok {
		builder = builder.WithFilter(cond)
	}
	return r.queryHighlights(ctx, builder)
}

func (r *HighlightRepository) FindByNoteID(ctx context.Context, ownerID, noteID string) ([]*annotation.Highlight, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(ownerHighlightKey(ownerID)).
		WithFilter(expression.Name("NoteID").Equal(expression.Value(noteID)))
	return r.queryHighlights(ctx, builder)
}

func ownerHighlightKey(ownerID string) expression.KeyConditionBuilder {
	return expression.Key("PK").Equal(expression.Value(fmt.Sprintf("USER#%s", ownerID))).
		And(expression.Key("SK").BeginsWith("HL#"))
}

func (r *HighlightRepository) queryHighlights(ctx context.Context, builder expression.Builder) ([]*annotation.Highlight, error) {
	expr, err := builder.Build()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "build highlight query expression")
	}

	var highlights []*annotation.Highlight
	var startKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("list highlights", err)
		}

		for _, raw := range result.Items {
			var item highlightItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, pkgerrors.Wrap(err, "unmarshal highlight item")
			}
			rec, err := itemToHighlightRecord(item)
			if err != nil {
				return nil, pkgerrors.Wrap(err, "decode highlight item")
			}
			h, err := annotation.HighlightFromRecord(rec)
			if err != nil {
				return nil, err
			}
			highlights = append(highlights, h)
		}

		startKey = result.LastEvaluatedKey
		if len(startKey) == 0 {
			break
		}
	}

	sort.Slice(highlights, func(i, j int) bool {
		if !highlights[i].CreatedAt().Equal(highlights[j].CreatedAt()) {
			return highlights[i].CreatedAt().After(highlights[j].CreatedAt())
		}
		return highlights[i].ID() < highlights[j].ID()
	})
	return highlights, nil
}
