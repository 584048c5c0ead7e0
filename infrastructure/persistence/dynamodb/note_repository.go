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

type NoteRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

var _ ports.NoteRepository = (*NoteRepository)(nil)

func NewNoteRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *NoteRepository {
	return &NoteRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// noteItem is the DynamoDB item shape of a note.
type noteItem struct {
	PK             string   `dynamodbav:"PK"`
	SK             string   `dynamodbav:"SK"`
	GSI1PK         string   `dynamodbav:"GSI1PK"`
	GSI1SK         string   `dynamodbav:"GSI1SK"`
	EntityType     string   `dynamodbav:"EntityType"`
	NoteID         string   `dynamodbav:"NoteID"`
	UserID         string   `dynamodbav:"UserID"`
	WorkTitle      string   `dynamodbav:"WorkTitle"`
	PartTitle      string   `dynamodbav:"PartTitle,omitempty"`
	ChapterTitle   string   `dynamodbav:"ChapterTitle"`
	Title          string   `dynamodbav:"Title,omitempty"`
	Content        string   `dynamodbav:"Content"`
	NoteType       string   `dynamodbav:"NoteType"`
	SelectedText   string   `dynamodbav:"SelectedText,omitempty"`
	SelectionStart *int     `dynamodbav:"SelectionStart,omitempty"`
	SelectionEnd   *int     `dynamodbav:"SelectionEnd,omitempty"`
	ElementID      string   `dynamodbav:"ElementID,omitempty"`
	XPath          string   `dynamodbav:"XPath,omitempty"`
	Tags           []string `dynamodbav:"Tags,omitempty"`
	IsPublic       bool     `dynamodbav:"IsPublic"`
	CreatedAt      string   `dynamodbav:"CreatedAt"`
	UpdatedAt      string   `dynamodbav:"UpdatedAt"`
}

func noteToItem(rec annotation.NoteRecord) noteItem {
	item := noteItem{
		PK:           fmt.Sprintf("USER#%s", rec.OwnerID),
		SK:           fmt.Sprintf("NOTE#%s", rec.ID),
		GSI1PK:       fmt.Sprintf("NOTEID#%s", rec.ID),
		GSI1SK:       "METADATA",
		EntityType:   "NOTE",
		NoteID:       rec.ID,
		UserID:       rec.OwnerID,
		WorkTitle:    rec.WorkTitle,
		PartTitle:    rec.PartTitle,
		ChapterTitle: rec.ChapterTitle,
		Title:        rec.Title,
		Content:      rec.Content,
		NoteType:     rec.NoteType,
		Tags:         rec.Tags,
		IsPublic:     rec.IsPublic,
		CreatedAt:    rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	item.SelectedText = rec.SelectedText
	item.SelectionStart = rec.SelectionStart
	item.SelectionEnd = rec.SelectionEnd
	item.ElementID = rec.ElementID
	item.XPath = rec.XPath
	return item
}

func itemToNoteRecord(item noteItem) (annotation.NoteRecord, error) {
	rec := annotation.NoteRecord{
		ID:             item.NoteID,
		OwnerID:        item.UserID,
		WorkTitle:      item.WorkTitle,
		PartTitle:      item.PartTitle,
		ChapterTitle:   item.ChapterTitle,
		Title:          item.Title,
		Content:        item.Content,
		NoteType:       item.NoteType,
		SelectedText:   item.SelectedText,
		SelectionStart: item.SelectionStart,
		SelectionEnd:   item.SelectionEnd,
		ElementID:      item.ElementID,
		XPath:          item.XPath,
		Tags:           item.Tags,
		IsPublic:       item.IsPublic,
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

func (r *NoteRepository) Create(ctx context.Context, note *annotation.Note) error {
	av, err := attributevalue.MarshalMap(noteToItem(note.Record()))
	if err != nil {
		return pkgerrors.Wrap(err, "marshal note item")
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			return pkgerrors.NewConflictError("note already exists")
		}
		return pkgerrors.NewDatabaseError("put note", err)
	}

	r.logger.Debug("note stored",
		zap.String("noteId", note.ID()),
		zap.String("userId", note.OwnerID()),
	)
	return nil
}

func (r *NoteRepository) Save(ctx context.Context, note *annotation.Note) error {
	av, err := attributevalue.MarshalMap(noteToItem(note.Record()))
	if err != nil {
		return pkgerrors.Wrap(err, "marshal note item")
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			return pkgerrors.NewNotFoundError("note")
		}
		return pkgerrors.NewDatabaseError("save note", err)
	}
	return nil
}

func (r *NoteRepository) FindByID(ctx context.Context, id string) (*annotation.Note, error) {
	keyEx := expression.Key("GSI1PK").Equal(expression.Value(fmt.Sprintf("NOTEID#%s", id))).
		And(expression.Key("GSI1SK").Equal(expression.Value("METADATA")))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "build note lookup expression")
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
		return nil, pkgerrors.NewDatabaseError("query note", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("note")
	}

	var item noteItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, pkgerrors.Wrap(err, "unmarshal note item")
	}
	rec, err := itemToNoteRecord(item)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "decode note item")
	}
	return annotation.NoteFromRecord(rec)
}

func (r *NoteRepository) Delete(ctx context.Context, note *annotation.Note) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", note.OwnerID())},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("NOTE#%s", note.ID())},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			return pkgerrors.NewNotFoundError("note")
		}
		return pkgerrors.NewDatabaseError("delete note", err)
	}
	return nil
}

func (r *NoteRepository) List(ctx context.Context, ownerID string, filter ports.Filter) ([]*annotation.Note, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("USER#%s", ownerID))).
		And(expression.Key("SK").BeginsWith("NOTE#"))
	builder := expression.NewBuilder().WithKeyCondition(keyEx)

	if cond, ok := locationFilter(filter); ok {
		builder = builder.WithFilter(cond)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "build note list expression")
	}

	var notes []*annotation.Note
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
			return nil, pkgerrors.NewDatabaseError("list notes", err)
		}

		for _, raw := range result.Items {
			var item noteItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, pkgerrors.Wrap(err, "unmarshal note item")
			}
			rec, err := itemToNoteRecord(item)
			if err != nil {
				return nil, pkgerrors.Wrap(err, "decode note item")
			}
			note, err := annotation.NoteFromRecord(rec)
			if err != nil {
				return nil, err
			}
			notes = append(notes, note)
		}

		startKey = result.LastEvaluatedKey
		if len(startKey) == 0 {
			break
		}
	}

	// The sort key orders by id; newest-first ordering is applied here.
	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].CreatedAt().Equal(notes[j].CreatedAt()) {
			return notes[i].CreatedAt().After(notes[j].CreatedAt())
		}
		return notes[i].ID() < notes[j].ID()
	})
	return notes, nil
}

// locationFilter translates a ports.Filter into a DynamoDB filter condition.
func locationFilter(filter ports.Filter) (expression.ConditionBuilder, bool) {
	var cond expression.ConditionBuilder
	set := false
	if filter.WorkTitle != "" {
		cond = expression.Name("WorkTitle").Equal(expression.Value(filter.WorkTitle))
		set = true
	}
	if filter.ChapterTitle != "" {
		chapterCond := expression.Name("ChapterTitle").Equal(expression.Value(filter.ChapterTitle))
		if set {
			cond = cond.And(chapterCond)
		} else {
			cond = chapterCond
		}
		set = true
	}
	return cond, set
}
