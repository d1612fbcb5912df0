package repository

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

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// Secondary indexes on the appointments and patients tables.
const (
	IndexPatientAppointments = "PatientAppointmentsIndex" // patientId, appointmentDate
	IndexStatusDate          = "StatusDateIndex"          // status, appointmentDate
	IndexEmail               = "EmailIndex"               // email
)

// DynamoAPI is the subset of the DynamoDB client used here.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type DynamoTables struct {
	Appointments string
	Patients     string
}

type AppointmentDynamoRepository struct {
	api    DynamoAPI
	tables DynamoTables
}

func NewAppointmentDynamoRepository(api DynamoAPI, tables DynamoTables) *AppointmentDynamoRepository {
	return &AppointmentDynamoRepository{api: api, tables: tables}
}

func stringKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// --------------------------------------------------
// Patient
// --------------------------------------------------

func (r *AppointmentDynamoRepository) GetPatient(ctx context.Context, patientID string) (*models.Patient, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tables.Patients),
		Key:       stringKey("patientId", patientID),
	})
	if err != nil {
		return nil, httperr.Unavailable(fmt.Errorf("get patient: %w", err))
	}
	if out.Item == nil {
		return nil, domain.ErrPatientNotFound
	}

	var p models.Patient
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("decode patient: %w", err)
	}
	return &p, nil
}

func (r *AppointmentDynamoRepository) GetPatientByEmail(ctx context.Context, email string) (*models.Patient, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("email").Equal(expression.Value(email))).
		Build()
	if err != nil {
		return nil, err
	}

	out, err := r.api.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tables.Patients),
		IndexName:                 aws.String(IndexEmail),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, httperr.Unavailable(fmt.Errorf("query patient by email: %w", err))
	}
	if len(out.Items) == 0 {
		return nil, domain.ErrPatientNotFound
	}

	var p models.Patient
	if err := attributevalue.UnmarshalMap(out.Items[0], &p); err != nil {
		return nil, fmt.Errorf("decode patient: %w", err)
	}
	return &p, nil
}

func (r *AppointmentDynamoRepository) PutPatient(ctx context.Context, p *models.Patient) error {
	return r.putNew(ctx, r.tables.Patients, "patientId", p, domain.ErrDuplicatePatient)
}

// --------------------------------------------------
// Appointment (create / conflict)
// --------------------------------------------------

func (r *AppointmentDynamoRepository) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	return r.putNew(ctx, r.tables.Appointments, "appointmentId", ap, domain.ErrDuplicateAppointment)
}

// putNew writes item only if no record with the same key exists.
func (r *AppointmentDynamoRepository) putNew(ctx context.Context, table, key string, item any, dup error) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(key))).
		Build()
	if err != nil {
		return err
	}

	_, err = r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(table),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return dup
		}
		return httperr.Unavailable(fmt.Errorf("put %s: %w", table, err))
	}
	return nil
}

func (r *AppointmentDynamoRepository) ListActiveForPatientOnDate(ctx context.Context, patientID, date string) ([]models.Appointment, error) {
	kc := expression.Key("patientId").Equal(expression.Value(patientID)).
		And(expression.Key("appointmentDate").Equal(expression.Value(date)))
	filter := expression.Name("status").NotEqual(expression.Value(string(domain.StatusCancelled)))

	return r.query(ctx, IndexPatientAppointments, kc, &filter)
}

// --------------------------------------------------
// Appointment (state change)
// --------------------------------------------------

func (r *AppointmentDynamoRepository) GetAppointment(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tables.Appointments),
		Key:       stringKey("appointmentId", appointmentID),
	})
	if err != nil {
		return nil, httperr.Unavailable(fmt.Errorf("get appointment: %w", err))
	}
	if out.Item == nil {
		return nil, domain.ErrAppointmentNotFound
	}

	var ap models.Appointment
	if err := attributevalue.UnmarshalMap(out.Item, &ap); err != nil {
		return nil, fmt.Errorf("decode appointment: %w", err)
	}
	return &ap, nil
}

// UpdateStatus conditions the write on the record existing with status
// in.From. On failure DynamoDB returns the old item, which tells a
// missing record from a status mismatch without a second read.
func (r *AppointmentDynamoRepository) UpdateStatus(ctx context.Context, in domain.StatusUpdate) error {
	update := expression.
		Set(expression.Name("status"), expression.Value(string(in.To))).
		Set(expression.Name("updatedAt"), expression.Value(in.At))
	if in.Note != "" {
		update = update.Set(expression.Name("notes"), expression.Value(in.Note))
	}
	cond := expression.AttributeExists(expression.Name("appointmentId")).
		And(expression.Name("status").Equal(expression.Value(string(in.From))))

	err := r.update(ctx, in.AppointmentID, update, cond)

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		if len(ccf.Item) == 0 {
			return domain.ErrAppointmentNotFound
		}
		return domain.ErrStatusMismatch
	}
	return err
}

func (r *AppointmentDynamoRepository) MarkReminderSent(ctx context.Context, appointmentID string, at time.Time) error {
	update := expression.
		Set(expression.Name("reminderSent"), expression.Value(true)).
		Set(expression.Name("updatedAt"), expression.Value(at))
	cond := expression.AttributeExists(expression.Name("appointmentId"))

	err := r.update(ctx, appointmentID, update, cond)

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return domain.ErrAppointmentNotFound
	}
	return err
}

// update returns ConditionalCheckFailedException unwrapped so callers can
// inspect it; every other failure is store_unavailable.
func (r *AppointmentDynamoRepository) update(
	ctx context.Context,
	appointmentID string,
	update expression.UpdateBuilder,
	cond expression.ConditionBuilder,
) error {
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return err
	}

	_, err = r.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(r.tables.Appointments),
		Key:                                 stringKey("appointmentId", appointmentID),
		UpdateExpression:                    expr.Update(),
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ccf
		}
		return httperr.Unavailable(fmt.Errorf("update appointment: %w", err))
	}
	return nil
}

// --------------------------------------------------
// Queries
// --------------------------------------------------

func (r *AppointmentDynamoRepository) ListByPatient(ctx context.Context, patientID string, status domain.Status, dates domain.DateRange) ([]models.Appointment, error) {
	kc := withDateRange(expression.Key("patientId").Equal(expression.Value(patientID)), dates)
	return r.query(ctx, IndexPatientAppointments, kc, statusFilter(status))
}

func (r *AppointmentDynamoRepository) ListByStatus(ctx context.Context, status domain.Status, dates domain.DateRange) ([]models.Appointment, error) {
	kc := withDateRange(expression.Key("status").Equal(expression.Value(string(status))), dates)
	return r.query(ctx, IndexStatusDate, kc, nil)
}

// ListByDateRange queries the status index when a status is given and
// falls back to a filtered scan otherwise.
func (r *AppointmentDynamoRepository) ListByDateRange(ctx context.Context, dates domain.DateRange, status domain.Status) ([]models.Appointment, error) {
	if status != "" {
		return r.ListByStatus(ctx, status, dates)
	}

	in := &dynamodb.ScanInput{TableName: aws.String(r.tables.Appointments)}
	if filter := dateFilter(dates); filter != nil {
		expr, err := expression.NewBuilder().WithFilter(*filter).Build()
		if err != nil {
			return nil, err
		}
		in.FilterExpression = expr.Filter()
		in.ExpressionAttributeNames = expr.Names()
		in.ExpressionAttributeValues = expr.Values()
	}

	var out []models.Appointment
	p := dynamodb.NewScanPaginator(r.api, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, httperr.Unavailable(fmt.Errorf("scan appointments: %w", err))
		}
		var batch []models.Appointment
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("decode appointments: %w", err)
		}
		out = append(out, batch...)
	}
	sortAppointments(out)
	return out, nil
}

func (r *AppointmentDynamoRepository) query(
	ctx context.Context,
	index string,
	kc expression.KeyConditionBuilder,
	filter *expression.ConditionBuilder,
) ([]models.Appointment, error) {

	b := expression.NewBuilder().WithKeyCondition(kc)
	if filter != nil {
		b = b.WithFilter(*filter)
	}
	expr, err := b.Build()
	if err != nil {
		return nil, err
	}

	in := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tables.Appointments),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var out []models.Appointment
	p := dynamodb.NewQueryPaginator(r.api, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, httperr.Unavailable(fmt.Errorf("query %s: %w", index, err))
		}
		var batch []models.Appointment
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("decode appointments: %w", err)
		}
		out = append(out, batch...)
	}
	sortAppointments(out)
	return out, nil
}

func withDateRange(kc expression.KeyConditionBuilder, dates domain.DateRange) expression.KeyConditionBuilder {
	k := expression.Key("appointmentDate")
	switch {
	case dates.From != "" && dates.To != "":
		return kc.And(k.Between(expression.Value(dates.From), expression.Value(dates.To)))
	case dates.From != "":
		return kc.And(k.GreaterThanEqual(expression.Value(dates.From)))
	case dates.To != "":
		return kc.And(k.LessThanEqual(expression.Value(dates.To)))
	}
	return kc
}

func statusFilter(status domain.Status) *expression.ConditionBuilder {
	if status == "" {
		return nil
	}
	c := expression.Name("status").Equal(expression.Value(string(status)))
	return &c
}

func dateFilter(dates domain.DateRange) *expression.ConditionBuilder {
	n := expression.Name("appointmentDate")
	var c expression.ConditionBuilder
	switch {
	case dates.From != "" && dates.To != "":
		c = n.Between(expression.Value(dates.From), expression.Value(dates.To))
	case dates.From != "":
		c = n.GreaterThanEqual(expression.Value(dates.From))
	case dates.To != "":
		c = n.LessThanEqual(expression.Value(dates.To))
	default:
		return nil
	}
	return &c
}

func sortAppointments(aps []models.Appointment) {
	sort.SliceStable(aps, func(i, j int) bool {
		if aps[i].AppointmentDate != aps[j].AppointmentDate {
			return aps[i].AppointmentDate < aps[j].AppointmentDate
		}
		return aps[i].StartTime < aps[j].StartTime
	})
}

var _ domain.Store = (*AppointmentDynamoRepository)(nil)
