package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/timestreamwrite"
	"github.com/aws/aws-sdk-go-v2/service/timestreamwrite/types"

	"github.com/mccollumn/home-energy-monitoring/internal/energy/domain"
)

// measureName is the fixed measure for energy usage points.
const measureName = "energy_usage"

// timestreamAPI is the subset of the Timestream Write client used here.
type timestreamAPI interface {
	WriteRecords(ctx context.Context, params *timestreamwrite.WriteRecordsInput, optFns ...func(*timestreamwrite.Options)) (*timestreamwrite.WriteRecordsOutput, error)
}

// TimeSeriesStore appends usage points to a Timestream table. One logical
// measurement per (user, timestamp); duplicates are the caller's problem.
type TimeSeriesStore struct {
	client   timestreamAPI
	database string
	table    string
}

// NewTimeSeriesStore returns a time-series store over the given database and table.
func NewTimeSeriesStore(client timestreamAPI, database, table string) *TimeSeriesStore {
	return &TimeSeriesStore{client: client, database: database, table: table}
}

// WriteUsage appends one point with dimensions {id, date}, the energy_usage
// measure as a DOUBLE, and the given event time in milliseconds.
func (s *TimeSeriesStore) WriteUsage(ctx context.Context, userID, date string, usage float64, at time.Time) error {
	_, err := s.client.WriteRecords(ctx, &timestreamwrite.WriteRecordsInput{
		DatabaseName: aws.String(s.database),
		TableName:    aws.String(s.table),
		Records: []types.Record{
			{
				Dimensions: []types.Dimension{
					{Name: aws.String("id"), Value: aws.String(userID)},
					{Name: aws.String("date"), Value: aws.String(date)},
				},
				MeasureName:      aws.String(measureName),
				MeasureValue:     aws.String(domain.FormatUsage(usage)),
				MeasureValueType: types.MeasureValueTypeDouble,
				Time:             aws.String(strconv.FormatInt(at.UnixMilli(), 10)),
				TimeUnit:         types.TimeUnitMilliseconds,
			},
		},
	})
	return err
}
