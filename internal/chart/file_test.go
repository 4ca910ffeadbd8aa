package chart

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackev/blackjack"
)

func TestSaveLoad(t *testing.T) {
	opts := Options{Workers: 1, Upcards: []int{10}, HardTotals: []int{16}, SoftTotals: []int{19}}
	ch, err := Generate(context.Background(), singleDeck(), opts)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "chart.json")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, ch.Save(path, at))

	file, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, at, file.GeneratedAt)
	assert.Equal(t, ch.Rules, file.Chart.Rules)
	assert.Equal(t, ch.Upcards, file.Chart.Upcards)
	require.Len(t, file.Chart.Rows, 2)
	assert.Equal(t, Soft, file.Chart.Rows[1].Kind)
	assert.Equal(t, "S19", blackjack.Evaluate(file.Chart.Rows[1].Player).Code())
	for r := range ch.Rows {
		for c := range ch.Rows[r].Cells {
			assert.Equal(t, ch.Rows[r].Cells[c].Best, file.Chart.Rows[r].Cells[c].Best)
			assert.InDelta(t, ch.Rows[r].Cells[c].EV, file.Chart.Rows[r].Cells[c].EV, 1e-15)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	_, err = Load(write("garbage.json", "{"))
	assert.Error(t, err)

	_, err = Load(write("version.json", `{"version": 9, "chart": {}}`))
	assert.ErrorContains(t, err, "unsupported chart version")

	_, err = Load(write("empty.json", `{"version": 1}`))
	assert.Error(t, err)

	_, err = Load(write("rules.json", `{"version": 1, "chart": {"rules": {"decks": 0}}}`))
	assert.ErrorIs(t, err, blackjack.ErrInvalidRules)

	var nilChart *Chart
	assert.Error(t, nilChart.Save(filepath.Join(dir, "x.json"), time.Now()))
	assert.Error(t, (&Chart{}).Save("", time.Now()))
}
