package analysis

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// TopicFitter fits k topics to a document-term matrix and returns one weight row per topic,
// indexed by term id.
type TopicFitter interface {
	Fit(ctx context.Context, m DocTermMatrix, k int) ([][]float64, error)
}

// GibbsLDA is latent Dirichlet allocation fitted by collapsed Gibbs sampling. The sampler is
// seeded, so the same matrix always yields the same topics.
type GibbsLDA struct {
	Iterations int
	Seed       uint64
	// Alpha and Eta are the document-topic and topic-term priors; zero means 1/k.
	Alpha float64
	Eta   float64
}

// NewGibbsLDA returns a sampler with 200 sweeps and seed 42.
func NewGibbsLDA() *GibbsLDA {
	return &GibbsLDA{Iterations: 200, Seed: 42}
}

func (g *GibbsLDA) Fit(ctx context.Context, m DocTermMatrix, k int) ([][]float64, error) {
	if k <= 0 {
		return nil, fmt.Errorf("GibbsLDA.Fit: topic count %d must be positive", k)
	}
	v := m.NumTerms()
	if v == 0 {
		return nil, errors.New("GibbsLDA.Fit: empty vocabulary")
	}
	alpha, eta := g.Alpha, g.Eta
	if alpha <= 0 {
		alpha = 1 / float64(k)
	}
	if eta <= 0 {
		eta = 1 / float64(k)
	}
	iters := g.Iterations
	if iters <= 0 {
		iters = 200
	}
	rng := rand.New(rand.NewPCG(g.Seed, g.Seed^0x9e3779b97f4a7c15))

	// Expand each document into term tokens, ordered by term id so map order never leaks in.
	docs := make([][]int, len(m.Docs))
	for d, row := range m.Docs {
		ids := make([]int, 0, len(row))
		for id := range row {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			for range row[id] {
				docs[d] = append(docs[d], id)
			}
		}
	}

	nDK := make([][]int, len(docs))
	nKW := make([][]int, k)
	for t := range nKW {
		nKW[t] = make([]int, v)
	}
	nK := make([]int, k)
	assign := make([][]int, len(docs))
	for d, words := range docs {
		nDK[d] = make([]int, k)
		assign[d] = make([]int, len(words))
		for i, w := range words {
			t := rng.IntN(k)
			assign[d][i] = t
			nDK[d][t]++
			nKW[t][w]++
			nK[t]++
		}
	}

	vEta := float64(v) * eta
	p := make([]float64, k)
	for range iters {
		if err := ctxErr(ctx); err != nil {
			return nil, err
		}
		for d, words := range docs {
			for i, w := range words {
				t := assign[d][i]
				nDK[d][t]--
				nKW[t][w]--
				nK[t]--

				var total float64
				for j := range k {
					total += (float64(nDK[d][j]) + alpha) * (float64(nKW[j][w]) + eta) / (float64(nK[j]) + vEta)
					p[j] = total
				}
				u := rng.Float64() * total
				t = k - 1
				for j := range k {
					if u < p[j] {
						t = j
						break
					}
				}

				assign[d][i] = t
				nDK[d][t]++
				nKW[t][w]++
				nK[t]++
			}
		}
	}

	out := make([][]float64, k)
	for t := range out {
		out[t] = make([]float64, v)
		for w := range v {
			out[t][w] = (float64(nKW[t][w]) + eta) / (float64(nK[t]) + vEta)
		}
	}
	return out, nil
}
