package service

import (
	"math/rand/v2"

	"blog-api/internal/domain"
)

// Sample returns up to k posts chosen uniformly at random without replacement.
// The input slice is not modified.
func Sample(posts []domain.Post, k int, rng *rand.Rand) []domain.Post {
	if k <= 0 || len(posts) == 0 {
		return []domain.Post{}
	}
	if k > len(posts) {
		k = len(posts)
	}

	picked := make([]domain.Post, len(posts))
	copy(picked, posts)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked[:k]
}
