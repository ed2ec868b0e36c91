// Package vec 提供召回与索引共用的向量计算：归一化、内积、余弦相似度，
// 以及内容召回使用的特征 map 相似度。
package vec

import "math"

// Normalize 返回 v 的 L2 归一化副本；零向量原样返回副本。
// 归一化后内积即余弦相似度，索引构建时统一做一次。
func Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// Dot 计算内积，长度不一致时返回 0。
func Dot(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

// Cosine 计算余弦相似度，零向量或长度不一致时返回 0。
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// CosineMaps 计算两个稀疏特征向量（map 形式）的余弦相似度。
func CosineMaps(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for k, va := range a {
		normA += va * va
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Jaccard 计算两个加权特征集合的 Jaccard 相似度。
func Jaccard(a, b map[string]float64) float64 {
	var intersection, union float64
	for k, va := range a {
		union += va
		if vb, ok := b[k]; ok {
			intersection += math.Min(va, vb)
		}
	}
	for k, vb := range b {
		if _, ok := a[k]; !ok {
			union += vb
		}
	}
	if union == 0 {
		return 0
	}
	return intersection / union
}
