// Command seed generates a sample policy CSV for local runs and demos.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

type policyKind struct {
	name        string
	coverageMin int
	coverageMax int
	premiumMin  int
	premiumMax  int
}

var kinds = []policyKind{
	{"Health", 100_000, 500_000, 300, 1000},
	{"Auto", 50_000, 300_000, 200, 800},
	{"Life", 200_000, 1_000_000, 500, 2000},
	{"Home", 100_000, 700_000, 400, 1500},
	{"Travel", 25_000, 150_000, 100, 600},
}

func main() {
	var (
		out  string
		n    int
		seed int64
	)
	flag.StringVar(&out, "out", "insurance_policies.csv", "Output CSV path")
	flag.IntVar(&n, "n", 100, "Number of policies to generate")
	flag.Int64Var(&seed, "seed", 0, "Random seed (0 uses current time)")
	flag.Parse()

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	faker := gofakeit.New(uint64(seed))

	f, err := os.Create(out)
	if err != nil {
		log.Fatalf("creating %s: %v", out, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"policy_id", "customer_name", "policy_type", "coverage_amount", "premium", "renewal_date"}); err != nil {
		log.Fatalf("writing header: %v", err)
	}
	for i := 1; i <= n; i++ {
		kind := kinds[rng.Intn(len(kinds))]
		coverage := roundTo(kind.coverageMin+rng.Intn(kind.coverageMax-kind.coverageMin+1), 1000)
		premium := roundTo(kind.premiumMin+rng.Intn(kind.premiumMax-kind.premiumMin+1), 100)
		renewal := time.Now().AddDate(0, 0, 30+rng.Intn(336))

		row := []string{
			fmt.Sprintf("POL%03d", i),
			faker.Name(),
			kind.name,
			strconv.Itoa(coverage),
			strconv.Itoa(premium),
			renewal.Format("2006-01-02"),
		}
		if err := w.Write(row); err != nil {
			log.Fatalf("writing row %d: %v", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("flushing csv: %v", err)
	}
	fmt.Printf("wrote %d policies to %s\n", n, out)
}

func roundTo(v, step int) int {
	return (v + step/2) / step * step
}
