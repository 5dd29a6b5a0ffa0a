package sheets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

type recordingWriter struct {
	ranges []string
	rows   [][]interface{}
}

func (w *recordingWriter) WriteRow(_ context.Context, sheetRange string, values []interface{}) error {
	w.ranges = append(w.ranges, sheetRange)
	w.rows = append(w.rows, values)
	return nil
}

func TestAppendWeeklyReport(t *testing.T) {
	writer := &recordingWriter{}
	owner := primitive.NewObjectID()

	err := NewReportExporter(writer).AppendWeeklyReport(context.Background(), models.WeeklyReport{
		UserID: owner, ISOYear: 2025, ISOWeek: 1,
		RangeFrom: "2024-12-30", RangeTo: "2025-01-05",
		Produced: 70, Sold: 50, Revenue: 20000,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"WeeklyReports!A:G"}, writer.ranges)
	assert.Equal(t, []interface{}{"2025-W01", "2024-12-30", "2025-01-05", owner.Hex(), 70.0, 50.0, 20000.0}, writer.rows[0])
}
