/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package memory

import (
	"fmt"
	"math"
	"slices"

	"chainguard.dev/evalcookbook/platform"
	"chainguard.dev/evalcookbook/prompt"
)

type classification struct {
	weighted map[string]float64
	byLabel  map[string]map[string]float64
	matrix   []map[string][]int
}

func label(v any) string {
	s, err := prompt.Value(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// classify computes per-label precision, recall and F1, their averages
// weighted by label support, accuracy, and the error matrix. Rows of the
// matrix are expected labels, columns predicted labels, both sorted.
func classify(tdps []platform.TestDataPoint) classification {
	seen := map[string]struct{}{}
	for _, tdp := range tdps {
		seen[label(tdp.ScenarioResult)] = struct{}{}
		seen[label(tdp.ModelPrediction)] = struct{}{}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	counts := make([][]int, len(labels))
	for i := range counts {
		counts[i] = make([]int, len(labels))
	}
	var correct int
	for _, tdp := range tdps {
		want, got := label(tdp.ScenarioResult), label(tdp.ModelPrediction)
		counts[index[want]][index[got]]++
		if want == got {
			correct++
		}
	}

	c := classification{
		weighted: map[string]float64{},
		byLabel:  map[string]map[string]float64{},
		matrix:   make([]map[string][]int, len(labels)),
	}
	var precision, recall, f1 float64
	for i, l := range labels {
		c.matrix[i] = map[string][]int{l: counts[i]}

		var support, predicted int
		for j := range labels {
			support += counts[i][j]
			predicted += counts[j][i]
		}
		tp := counts[i][i]
		p := ratio(tp, predicted)
		r := ratio(tp, support)
		f := 0.0
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}
		c.byLabel[l] = map[string]float64{"precision": p, "recall": r, "f1": f}

		w := float64(support)
		precision += w * p
		recall += w * r
		f1 += w * f
	}
	if n := float64(len(tdps)); n > 0 {
		c.weighted["precision"] = precision / n
		c.weighted["recall"] = recall / n
		c.weighted["f1"] = f1 / n
		c.weighted["accuracy"] = float64(correct) / n
	}
	return c
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// retrievalK are the cutoffs reported for retrieval runs.
var retrievalK = []int{1, 3, 5, 10}

// ids decodes a ranked list of document ids. Elements may be ids or objects
// with an "id" field.
func ids(v any) []string {
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				out = append(out, label(m["id"]))
				continue
			}
			out = append(out, label(e))
		}
		return out
	}
	return []string{label(v)}
}

// retrieve computes mean accuracy, precision, recall, MRR and NDCG at each
// cutoff, and the number of data points with no relevant result in the
// largest cutoff.
func retrieve(tdps []platform.TestDataPoint) (map[string]float64, int) {
	out := map[string]float64{}
	if len(tdps) == 0 {
		return out, 0
	}
	var misses int
	for _, tdp := range tdps {
		ranked := ids(tdp.ModelPrediction)
		relevant := map[string]bool{}
		for _, id := range ids(tdp.ScenarioResult) {
			relevant[id] = true
		}

		hitAtLargest := false
		for _, k := range retrievalK {
			top := ranked[:min(k, len(ranked))]
			var hits int
			first := 0
			dcg := 0.0
			for i, id := range top {
				if !relevant[id] {
					continue
				}
				hits++
				if first == 0 {
					first = i + 1
				}
				dcg += 1 / math.Log2(float64(i+2))
			}
			idcg := 0.0
			for i := range min(k, len(relevant)) {
				idcg += 1 / math.Log2(float64(i+2))
			}

			if hits > 0 {
				out[fmt.Sprintf("accuracy@%d", k)]++
				hitAtLargest = true
			}
			out[fmt.Sprintf("precision@%d", k)] += float64(hits) / float64(k)
			if len(relevant) > 0 {
				out[fmt.Sprintf("recall@%d", k)] += float64(hits) / float64(len(relevant))
			}
			if first > 0 {
				out[fmt.Sprintf("mrr@%d", k)] += 1 / float64(first)
			}
			if idcg > 0 {
				out[fmt.Sprintf("ndcg@%d", k)] += dcg / idcg
			}
		}
		if !hitAtLargest {
			misses++
		}
	}

	n := float64(len(tdps))
	for _, k := range retrievalK {
		for _, m := range []string{"accuracy", "precision", "recall", "mrr", "ndcg"} {
			key := fmt.Sprintf("%s@%d", m, k)
			out[key] /= n
		}
	}
	return out, misses
}
