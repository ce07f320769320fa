package domain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"phraseguard/pkg/domain"
)

type ValueObjectsSuite struct {
	suite.Suite
}

func TestValueObjectsSuite(t *testing.T) {
	suite.Run(t, new(ValueObjectsSuite))
}

func vectorOf(dim int, fill func(i int) float32) []float32 {
	out := make([]float32, dim)
	for i := range out {
		out[i] = fill(i)
	}
	return out
}

func (s *ValueObjectsSuite) TestTextRangeConstruction() {
	s.Run("rejects negative start", func() {
		_, err := domain.NewTextRange(-1, 3)
		s.Require().Error(err)
		s.ErrorIs(err, domain.ErrInvalidTextRange)
	})

	s.Run("rejects empty range", func() {
		_, err := domain.NewTextRange(4, 4)
		s.ErrorIs(err, domain.ErrInvalidTextRange)
	})

	s.Run("rejects inverted range", func() {
		_, err := domain.NewTextRange(5, 2)
		s.ErrorIs(err, domain.ErrInvalidTextRange)
	})

	s.Run("accepts valid offsets", func() {
		r, err := domain.NewTextRange(2, 5)
		s.Require().NoError(err)
		s.Equal(2, r.Start())
		s.Equal(5, r.End())
		s.Equal(3, r.Len())
		s.False(r.IsZero())
	})

	s.Run("must panics on invalid offsets", func() {
		s.Panics(func() { domain.MustTextRange(3, 1) })
	})
}

func (s *ValueObjectsSuite) TestTextRangeRelations() {
	outer := domain.MustTextRange(0, 10)
	inner := domain.MustTextRange(2, 5)
	adjacent := domain.MustTextRange(10, 12)
	straddling := domain.MustTextRange(8, 12)

	s.True(outer.Contains(inner))
	s.False(inner.Contains(outer))
	s.True(outer.Overlaps(inner))
	s.True(outer.Overlaps(straddling))
	s.False(outer.Overlaps(adjacent))
	s.False(adjacent.Overlaps(outer))
}

func (s *ValueObjectsSuite) TestTextRangeExtractUsesRunes() {
	text := "このサプリは絶対に治る"

	s.Run("extracts multibyte substring", func() {
		got, err := domain.MustTextRange(9, 11).Extract(text)
		s.Require().NoError(err)
		s.Equal("治る", got)
	})

	s.Run("rejects range past end", func() {
		_, err := domain.MustTextRange(9, 12).Extract(text)
		s.ErrorIs(err, domain.ErrRangeOutOfBounds)
	})
}

func (s *ValueObjectsSuite) TestEmbeddingVectorConstruction() {
	s.Run("rejects unsupported dimension", func() {
		for _, dim := range []int{0, 3, 511, 1024} {
			_, err := domain.NewEmbeddingVector(make([]float32, dim))
			s.ErrorIs(err, domain.ErrUnsupportedDimension, "dim %d", dim)
		}
	})

	s.Run("accepts supported dimensions", func() {
		for _, dim := range domain.SupportedDimensions {
			v, err := domain.NewEmbeddingVector(make([]float32, dim))
			s.Require().NoError(err)
			s.Equal(dim, v.Dimension())
		}
	})

	s.Run("rejects NaN and infinities", func() {
		for _, bad := range []float32{float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1))} {
			values := make([]float32, 768)
			values[100] = bad
			_, err := domain.NewEmbeddingVector(values)
			s.ErrorIs(err, domain.ErrNonFiniteComponent)
		}
	})

	s.Run("copies input and output", func() {
		values := vectorOf(512, func(int) float32 { return 1 })
		v, err := domain.NewEmbeddingVector(values)
		s.Require().NoError(err)

		values[0] = 99
		s.Equal(float32(1), v.Values()[0])

		out := v.Values()
		out[1] = 42
		s.Equal(float32(1), v.Values()[1])
	})
}

func (s *ValueObjectsSuite) TestCosineSimilarity() {
	a, _ := domain.NewEmbeddingVector(vectorOf(768, func(i int) float32 { return float32(i%7) + 0.5 }))
	b, _ := domain.NewEmbeddingVector(vectorOf(768, func(i int) float32 { return float32((i*3)%11) - 2 }))
	zero, _ := domain.NewEmbeddingVector(make([]float32, 768))

	s.Run("self similarity is one", func() {
		sim, err := a.CosineSimilarity(a)
		s.Require().NoError(err)
		s.InDelta(1.0, sim, 1e-9)
	})

	s.Run("symmetric", func() {
		ab, err := a.CosineSimilarity(b)
		s.Require().NoError(err)
		ba, err := b.CosineSimilarity(a)
		s.Require().NoError(err)
		s.InDelta(ab, ba, 1e-12)
	})

	s.Run("zero vector yields zero", func() {
		sim, err := a.CosineSimilarity(zero)
		s.Require().NoError(err)
		s.Equal(0.0, sim)
	})

	s.Run("dimension mismatch is an error", func() {
		small, _ := domain.NewEmbeddingVector(vectorOf(512, func(int) float32 { return 1 }))
		_, err := a.CosineSimilarity(small)
		s.ErrorIs(err, domain.ErrDimensionMismatch)
	})
}
