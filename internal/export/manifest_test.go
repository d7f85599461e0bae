package export

import (
	"bytes"
	"testing"

	"github.com/seat-planner/backend/internal/chairs"
	"github.com/seat-planner/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteSeatManifest(t *testing.T) {
	table := &models.Element{ID: "t1", Label: "Table 1", Shape: &models.RoundTable{Radius: 50, Seats: 3}}
	line := &models.Element{ID: "l1", Shape: &models.Line{EndX: 10}}
	seats := chairs.RoundTableChairs("t1", 3, 50, 25)
	seats[1].Price = 60
	seats[1].ReservationStatus = models.StatusReserved
	seats[1].ReservedBy = "ann"

	rules := &models.VenueRules{
		DefaultPrice: 25,
		Categories:   []models.PriceCategory{{Name: "VIP", Price: 60}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSeatManifest(&buf, Manifest{
		Name:     "gala",
		Elements: []*models.Element{table, line},
		Chairs:   seats,
		Rules:    rules,
	}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Seats", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Seats")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, SeatHeader, rows[0])
	assert.Equal(t, "t1-chair-1", rows[2][0])
	assert.Equal(t, "Table 1", rows[2][2])
	assert.Equal(t, "VIP", rows[2][5])
	assert.Equal(t, "reserved", rows[2][6])
	assert.Equal(t, "ann", rows[2][7])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, []string{"t1", "Table 1", "3", "2", "1", "60"}, summary[1])
}

func TestWriteSeatManifest_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSeatManifest(&buf, Manifest{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Seats")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
