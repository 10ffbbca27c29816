package dataset

import (
	"math/rand"

	"ratelab/domain/policy"
)

// Split partitions a portfolio into train and test sets by a seeded shuffle.
// The same seed always yields the same partition.
func Split(p *policy.Portfolio, trainFraction float64, seed int64) (train, test *policy.Portfolio) {
	n := len(p.Records)
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	cut := int(float64(n) * trainFraction)
	if cut < 1 {
		cut = 1
	}
	if cut >= n {
		cut = n - 1
	}

	trainRecs := make([]policy.Record, 0, cut)
	testRecs := make([]policy.Record, 0, n-cut)
	for i, idx := range perm {
		if i < cut {
			trainRecs = append(trainRecs, p.Records[idx])
		} else {
			testRecs = append(testRecs, p.Records[idx])
		}
	}
	return &policy.Portfolio{Records: trainRecs}, &policy.Portfolio{Records: testRecs}
}

// Subsample draws up to size records without replacement, deterministically.
// Used for the variance-power profile, which does not need the full table.
func Subsample(p *policy.Portfolio, size int, seed int64) *policy.Portfolio {
	if size <= 0 || size >= len(p.Records) {
		return p
	}
	perm := rand.New(rand.NewSource(seed)).Perm(len(p.Records))
	recs := make([]policy.Record, size)
	for i := 0; i < size; i++ {
		recs[i] = p.Records[perm[i]]
	}
	return &policy.Portfolio{Records: recs}
}
