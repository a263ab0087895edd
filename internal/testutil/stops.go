// Package testutil generates synthetic traffic-stop files for tests.
package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// StopsHeader is the column layout written by WriteStops.
const StopsHeader = "id,ticket,day,mph,zone,mphover,mphpct,age,minority,female"

// StopsCSV returns n synthetic stops. Ticket probability rises with mphpct and
// for minority drivers. Every rows in missingEvery (if > 0) has an empty age.
func StopsCSV(n int, seed int64, missingEvery int) string {
	rng := rand.New(rand.NewSource(seed))
	zones := []int{25, 35, 45, 55, 65}
	var b strings.Builder
	b.WriteString(StopsHeader + "\n")
	for i := 0; i < n; i++ {
		zone := zones[rng.Intn(len(zones))]
		over := 1 + rng.Intn(30)
		mph := zone + over
		pct := 100 * float64(over) / float64(zone)
		age := 16 + rng.Intn(60)
		minority := 0
		if rng.Float64() < 0.3 {
			minority = 1
		}
		female := 0
		if rng.Float64() < 0.4 {
			female = 1
		}
		eta := -2 + 0.05*pct + 1.2*float64(minority) - 0.01*float64(age-40)
		ticket := 0
		if rng.Float64() < 1/(1+math.Exp(-eta)) {
			ticket = 1
		}
		ageCell := fmt.Sprint(age)
		if missingEvery > 0 && i%missingEvery == missingEvery-1 {
			ageCell = ""
		}
		fmt.Fprintf(&b, "%d,%d,%d,%d,%d,%d,%.2f,%s,%d,%d\n",
			i+1, ticket, 1+rng.Intn(7), mph, zone, over, pct, ageCell, minority, female)
	}
	return b.String()
}

// WriteStops writes StopsCSV into a temp dir and returns its path.
func WriteStops(t testing.TB, n int, seed int64, missingEvery int) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "stops.csv")
	if err := os.WriteFile(p, []byte(StopsCSV(n, seed, missingEvery)), 0o644); err != nil {
		t.Fatalf("write stops: %v", err)
	}
	return p
}
