package menu

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/mosaic/internal/apperr"
	"github.com/starford/mosaic/internal/dataset"
	"github.com/starford/mosaic/internal/i18n"
	"github.com/starford/mosaic/internal/query"
	"github.com/starford/mosaic/internal/render"
	"github.com/starford/mosaic/internal/testutil"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func setup(t *testing.T, records ...testutil.Record) *Dispatcher {
	t.Helper()
	_, fs := testutil.TestDatasetDir(t)
	store := dataset.NewStore(fs, "mosaic", "blog")
	if records != nil {
		testutil.WriteDataset(t, fs, store.Paths().Live, records...)
	}
	now := time.Date(2023, time.January, 4, 12, 0, 0, 0, time.UTC)
	engine := query.NewEngine(query.WithClock(func() time.Time { return now }), query.WithLocation(time.UTC))
	return New(store, engine, render.New(i18n.Default(), ""), "", quietLogger())
}

func tokens(rows [][]Button) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		for _, b := range row {
			out[i] = append(out[i], b.Token)
		}
	}
	return out
}

func captions(rows [][]Button) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		for _, b := range row {
			out[i] = append(out[i], b.Caption)
		}
	}
	return out
}

func TestTop(t *testing.T) {
	d := setup(t)
	m := d.Top("de")
	assert.Equal(t, "Was möchtest du sehen?", m.Title)
	assert.Equal(t, [][]string{{"c_ma_latest", "c_ma_previous"}, {"m_ma_calendar"}}, tokens(m.Rows))
	assert.Equal(t, [][]string{{"Heute", "Gestern"}, {"Kalender"}}, captions(m.Rows))
}

func TestDispatch_Latest(t *testing.T) {
	d := setup(t,
		testutil.Rec("2023-01-01", "mosaic"),
		testutil.Rec("2023-01-03", "mosaic"),
		testutil.Rec("2023-01-05", "mosaic"),
	)

	resp, err := d.Dispatch(context.Background(), "c_ma_latest", "en")
	require.NoError(t, err)
	assert.Equal(t, StateEntry, resp.State)
	require.NotNil(t, resp.Message)
	assert.Equal(t, "2023-01-03", resp.Message.Date)
	assert.Equal(t, "Entry 2023-01-03", resp.Message.Title)
	assert.Equal(t, d.Top("en"), resp.Menu)

	resp, err = d.Dispatch(context.Background(), "c_ma_previous", "de")
	require.NoError(t, err)
	require.NotNil(t, resp.Message)
	assert.Equal(t, "2023-01-03", resp.Message.Date)
	assert.Equal(t, "Eintrag 2023-01-03", resp.Message.Title)
}

func TestDispatch_LatestNothingEarlier(t *testing.T) {
	d := setup(t, testutil.Rec("2024-01-01", "mosaic"))

	resp, err := d.Dispatch(context.Background(), "c_ma_latest", "en")
	require.NoError(t, err)
	assert.True(t, resp.NotFound)
	assert.Nil(t, resp.Message)
	assert.Equal(t, "There is no entry for that date.", resp.Notice)
	assert.Equal(t, StateMain, resp.State)
}

func TestDispatch_CalendarWalk(t *testing.T) {
	d := setup(t,
		testutil.Rec("2021-12-31", "mosaic"),
		testutil.Rec("2022-05-01", "mosaic"),
		testutil.Rec("2022-05-03", "mosaic"),
		testutil.Rec("2022-06-10", "mosaic"),
		testutil.Rec("2022-07-01", "blog"),
	)
	ctx := context.Background()

	years, err := d.Dispatch(ctx, "m_ma_calendar", "en")
	require.NoError(t, err)
	assert.Equal(t, StateYear, years.State)
	assert.Equal(t, "Choose a year", years.Menu.Title)
	assert.Equal(t, [][]string{{"m_yr_2021", "m_yr_2022"}, {"c_yr_top"}}, tokens(years.Menu.Rows))

	months, err := d.Dispatch(ctx, "m_yr_2022", "de")
	require.NoError(t, err)
	assert.Equal(t, StateMonth, months.State)
	assert.Equal(t, [][]string{{"m_mo_2022-05", "m_mo_2022-06"}, {"c_mo_top"}}, tokens(months.Menu.Rows))
	assert.Equal(t, [][]string{{"Mai", "Juni"}, {"Zurück zum Start"}}, captions(months.Menu.Rows))

	days, err := d.Dispatch(ctx, "m_mo_2022-05", "en")
	require.NoError(t, err)
	assert.Equal(t, StateDay, days.State)
	assert.Equal(t, [][]string{{"c_dy_2022-05-01", "c_dy_2022-05-03"}, {"c_dy_top"}}, tokens(days.Menu.Rows))
	assert.Equal(t, [][]string{{"01", "03"}, {"Back to start"}}, captions(days.Menu.Rows))

	entry, err := d.Dispatch(ctx, "c_dy_2022-05-03", "en")
	require.NoError(t, err)
	assert.Equal(t, StateEntry, entry.State)
	require.NotNil(t, entry.Message)
	assert.Equal(t, "03 May 2022", entry.Message.LocalDate)

	top, err := d.Dispatch(ctx, "c_dy_top", "en")
	require.NoError(t, err)
	assert.Equal(t, StateMain, top.State)
	assert.Equal(t, d.Top("en"), top.Menu)
}

func TestDispatch_RowsOfSix(t *testing.T) {
	var recs []testutil.Record
	for _, day := range []string{"01", "02", "03", "04", "05", "06", "07", "08"} {
		recs = append(recs, testutil.Rec("2022-05-"+day, "mosaic"))
	}
	d := setup(t, recs...)

	resp, err := d.Dispatch(context.Background(), "m_mo_2022-05", "en")
	require.NoError(t, err)
	require.Len(t, resp.Menu.Rows, 3)
	assert.Len(t, resp.Menu.Rows[0], 6)
	assert.Len(t, resp.Menu.Rows[1], 2)
	assert.Equal(t, []string{"c_dy_top"}, tokens(resp.Menu.Rows)[2])
}

func TestDispatch_AbsentPeriods(t *testing.T) {
	d := setup(t, testutil.Rec("2022-05-01", "mosaic"), testutil.Rec("2022-06-01", "blog"))
	ctx := context.Background()

	for _, tok := range []string{"m_yr_2019", "m_mo_2022-06", "m_mo_2022-08", "c_dy_2022-05-02"} {
		resp, err := d.Dispatch(ctx, tok, "en")
		require.NoError(t, err, tok)
		assert.True(t, resp.NotFound, tok)
		assert.Equal(t, StateMain, resp.State, tok)
	}
}

func TestDispatch_ByDateIgnoresCalendarKind(t *testing.T) {
	d := setup(t, testutil.Rec("2022-06-01", "blog"))

	resp, err := d.Dispatch(context.Background(), "c_dy_2022-06-01", "en")
	require.NoError(t, err)
	require.NotNil(t, resp.Message)
	assert.Equal(t, "blog", resp.Message.Kind)
}

func TestDispatch_MalformedFallsBackToTop(t *testing.T) {
	d := setup(t, testutil.Rec("2022-05-01", "mosaic"))
	ctx := context.Background()

	for _, tok := range []string{
		"",
		"garbage",
		"c_ma",
		"x_ma_latest",
		"c_zz_latest",
		"m_yr_2022_05",
		"m_yr_2022-05",
		"m_mo_2022",
		"m_mo_2022-13",
		"c_dy_2022-02-30",
		"c_dy_2022-05",
		"m_ma_latest",
		"c_yr_2022",
	} {
		resp, err := d.Dispatch(ctx, tok, "en")
		require.NoError(t, err, tok)
		assert.Equal(t, StateMain, resp.State, tok)
		assert.False(t, resp.NotFound, tok)
		assert.Equal(t, d.Top("en"), resp.Menu, tok)
	}
}

func TestDispatch_MissingDataset(t *testing.T) {
	d := setup(t)

	_, err := d.Dispatch(context.Background(), "c_ma_latest", "en")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// Malformed tokens never touch the dataset.
	resp, err := d.Dispatch(context.Background(), "nope", "en")
	require.NoError(t, err)
	assert.Equal(t, StateMain, resp.State)
}

func TestDispatch_CorruptDataset(t *testing.T) {
	_, fs := testutil.TestDatasetDir(t)
	store := dataset.NewStore(fs, "mosaic", "blog")
	require.NoError(t, fs.Write(store.Paths().Live, []byte(`{"blog": [{"date": "soon"}]}`)))
	d := New(store, query.NewEngine(), render.New(i18n.Default(), ""), "mosaic", quietLogger())

	_, err := d.Dispatch(context.Background(), "m_ma_calendar", "en")
	assert.ErrorIs(t, err, apperr.ErrDatasetCorrupt)
}

func TestChunk(t *testing.T) {
	mk := func(n int) []Button {
		out := make([]Button, n)
		for i := range out {
			out[i] = Button{Caption: string(rune('a' + i))}
		}
		return out
	}
	assert.Empty(t, chunk(nil))
	assert.Len(t, chunk(mk(6)), 1)
	assert.Len(t, chunk(mk(7)), 2)
	assert.Len(t, chunk(mk(13)), 3)

	rows := chunk(mk(7))
	rows[0] = append(rows[0], Button{Caption: "x"})
	assert.Equal(t, "g", rows[1][0].Caption)
}
