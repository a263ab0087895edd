package dataset

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stopColumns = []string{"ticket", "day", "mph", "zone", "mphover", "mphpct", "age", "minority", "female"}

var stopRows = []string{
	"id,ticket,day,mph,zone,mphover,mphpct,age,minority,female,officer",
	"1,1,2,75,65,10,15.4,33,0,1,A",
	"2,0,3,68,65,3,4.6,41,0,0,B",
	"3,1,1,,55,12,21.8,27,1,0,A",
	"4,1,5,90,70,20,28.6,NA,1,1,C",
	"5,0,4,52,45,7,15.6,58,0,1,B",
	"6,1,6,81,65,16,24.6,22,1,0,",
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func loadStops(t *testing.T) *Table {
	t.Helper()
	tbl, err := Load(writeFile(t, "stops.csv", strings.Join(stopRows, "\n")+"\n"), LoadOptions{})
	require.NoError(t, err)
	return tbl
}

func TestLoad(t *testing.T) {
	tbl := loadStops(t)
	assert.Equal(t, "stops.csv", tbl.Name())
	assert.Equal(t, 6, tbl.Len())
	assert.Len(t, tbl.Columns(), 11)
	assert.True(t, tbl.Has("MPHPCT"), "lookup falls back to case-insensitive match")
}

func TestLoad_SniffsSemicolonAndTSV(t *testing.T) {
	semi := writeFile(t, "semi.csv", "a;b\n1;2\n3;4\n")
	tbl, err := Load(semi, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Columns())

	tsv := writeFile(t, "tab.tsv", "a\tb\n1\t2\n")
	tbl, err = Load(tsv, LoadOptions{})
	require.NoError(t, err)
	vals, err := tbl.Floats("b")
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, vals)
}

func TestLoad_DataAccessErrors(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"ragged":    "a,b\n1,2\n3\n",
		"bad quote": "a,b\n1,\"2\n",
		"dup col":   "a,a\n1,2\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "x.csv", content), LoadOptions{})
			var dae *DataAccessError
			require.ErrorAs(t, err, &dae)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), LoadOptions{})
	var dae *DataAccessError
	require.ErrorAs(t, err, &dae)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestClean_DropsMissingAndKeepsOrder(t *testing.T) {
	tbl := loadStops(t)
	clean, err := Clean(tbl, stopColumns)
	require.NoError(t, err)

	assert.Equal(t, stopColumns, clean.Columns())
	// rows 3 (empty mph) and 4 (NA age) are dropped; row 6's empty officer is not selected
	pcts := []string{clean.Row(0)[5], clean.Row(1)[5], clean.Row(2)[5], clean.Row(3)[5]}
	assert.Equal(t, []string{"15.4", "4.6", "15.6", "24.6"}, pcts)
	for _, c := range stopColumns {
		n, err := clean.CountMissing(c)
		require.NoError(t, err)
		assert.Zero(t, n, c)
	}
}

func TestClean_Idempotent(t *testing.T) {
	tbl := loadStops(t)
	once, err := Clean(tbl, stopColumns)
	require.NoError(t, err)
	twice, err := Clean(once, stopColumns)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.Equal(t, once.Len(), twice.Len())
}

func TestSelect_UnknownColumnIsSchemaError(t *testing.T) {
	tbl := loadStops(t)
	_, err := tbl.Select("ticket", "speed", "race")
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{"speed", "race"}, se.Missing)
	assert.Contains(t, err.Error(), "speed, race")
}

func TestFloats_NonNumericIsSchemaError(t *testing.T) {
	tbl, err := New([]string{"x"}, [][]string{{"1"}, {"fast"}})
	require.NoError(t, err)
	_, err = tbl.Floats("x")
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Row)
}

func TestFloats_NonFiniteIsSchemaError(t *testing.T) {
	for _, v := range []string{"Inf", "+Infinity", "-inf"} {
		tbl, err := New([]string{"x"}, [][]string{{"1"}, {v}, {"3"}})
		require.NoError(t, err)
		_, err = tbl.Floats("x")
		var se *SchemaError
		require.ErrorAs(t, err, &se, v)
		assert.Equal(t, 2, se.Row)
		assert.Equal(t, v, se.Value)
	}
}

func TestSelect_SameColumnTwiceIsSchemaError(t *testing.T) {
	tbl := loadStops(t)
	_, err := tbl.Select("ticket", "mph", "Ticket")
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "ticket", se.Column)
	assert.Contains(t, err.Error(), "selected more than once")
}

func TestCountBy_SumsToTotal(t *testing.T) {
	rows := make([][]string, 0, 3000)
	for i := 0; i < 3000; i++ {
		v := "0"
		if i < 1600 {
			v = "1"
		}
		rows = append(rows, []string{v})
	}
	tbl, err := New([]string{"ticket"}, rows)
	require.NoError(t, err)

	b, err := tbl.CountBy("ticket")
	require.NoError(t, err)
	assert.Equal(t, 1600, b.Count("1"))
	assert.Equal(t, 1400, b.Count("0"))
	assert.Equal(t, tbl.Len(), b.Count("1")+b.Count("0"))
	assert.Equal(t, "0", b.Counts[0].Value)
	assert.InDelta(t, 1600.0/3000, b.Share("1"), 1e-12)
}

func TestDescribe(t *testing.T) {
	tbl := loadStops(t)
	byName := map[string]ColumnSummary{}
	for _, s := range tbl.Describe() {
		byName[s.Name] = s
	}
	assert.Equal(t, "binary", byName["ticket"].Kind)
	assert.Equal(t, "numeric", byName["mph"].Kind)
	assert.Equal(t, 1, byName["mph"].Missing)
	assert.Equal(t, 52.0, byName["mph"].Min)
	assert.Equal(t, 90.0, byName["mph"].Max)
	assert.Equal(t, "categorical", byName["officer"].Kind)
	assert.Equal(t, "A", byName["officer"].TopValues[0].Value)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	tbl := loadStops(t)
	clean, err := Clean(tbl, stopColumns)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, clean.WriteCSV(&buf))
	back, err := Load(writeFile(t, "clean.csv", buf.String()), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, clean.Columns(), back.Columns())
	assert.Equal(t, clean.Len(), back.Len())
}
