package event

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(0, 1))

	date := time.Date(2025, 11, 20, 18, 0, 0, 0, time.UTC)
	created, err := NewRepository(db).Create(context.Background(), EventInput{
		Name:  "Tournoi Mario Kart",
		Sport: "Karting",
		Date:  date,
	}, "user-1")
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Tournoi Mario Kart", created.Name)
	assert.Equal(t, "user-1", created.OrganizerID)
	assert.Equal(t, date, created.Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "name", "sport", "location", "date", "organizer_id", "created_at"}).
		AddRow("e1", "Run", "running", "Lyon", now, "user-1", now).
		AddRow("e2", "Match", "football", "", now, "user-2", now)
	mock.ExpectQuery("SELECT (.+) FROM events").WillReturnRows(rows)

	events, err := NewRepository(db).List(context.Background(), 15, 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, "Run", events[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	total, err := NewRepository(db).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), total)
}

func TestRepository_DeleteOlderThan(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM events").WillReturnResult(sqlmock.NewResult(0, 7))

	deleted, err := NewRepository(db).DeleteOlderThan(context.Background(), time.Now().UTC().Add(-90*24*time.Hour), 500)
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
}
