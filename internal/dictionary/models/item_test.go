package models

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"phraseguard/internal/events"
	id "phraseguard/pkg/domain"
	dErrors "phraseguard/pkg/domain-errors"
)

type ItemSuite struct {
	suite.Suite
	now time.Time
}

func TestItemSuite(t *testing.T) {
	suite.Run(t, new(ItemSuite))
}

func (s *ItemSuite) SetupTest() {
	s.now = time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
}

func (s *ItemSuite) newItem() *Item {
	it, err := NewItem(NewItemParams{
		ID:             id.DictionaryItemID(uuid.New()),
		OrganizationID: id.OrganizationID(uuid.New()),
		Phrase:         "  絶対に治る ",
		Category:       CategoryNG,
	}, s.now)
	s.Require().NoError(err)
	it.PullEvents()
	return it
}

func embedding768() []float32 {
	v := make([]float32, 768)
	for i := range v {
		v[i] = float32(i%5) * 0.1
	}
	return v
}

func (s *ItemSuite) TestNewItem() {
	s.Run("trims phrase and records creation", func() {
		it, err := NewItem(NewItemParams{
			ID:             id.DictionaryItemID(uuid.New()),
			OrganizationID: id.OrganizationID(uuid.New()),
			Phrase:         " 治る ",
			Category:       CategoryNG,
		}, s.now)
		s.Require().NoError(err)
		s.Equal("治る", it.Phrase())
		s.False(it.HasVector())
		evts := it.PullEvents()
		s.Require().Len(evts, 1)
		s.Equal(events.NameDictionaryItemCreated, evts[0].EventName())
	})

	s.Run("rejects empty phrase", func() {
		_, err := NewItem(NewItemParams{
			ID:             id.DictionaryItemID(uuid.New()),
			OrganizationID: id.OrganizationID(uuid.New()),
			Phrase:         " ",
			Category:       CategoryNG,
		}, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects unknown category", func() {
		_, err := NewItem(NewItemParams{
			ID:             id.DictionaryItemID(uuid.New()),
			OrganizationID: id.OrganizationID(uuid.New()),
			Phrase:         "治る",
			Category:       "MAYBE",
		}, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ItemSuite) TestSetVectorRequiresGeneration() {
	it := s.newItem()

	err := it.SetVector(embedding768(), s.now)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	s.False(it.HasVector())

	s.Require().NoError(it.StartVectorGeneration(s.now))
	s.Require().NoError(it.SetVector(embedding768(), s.now))
	s.True(it.HasVector())
	s.False(it.IsGenerating())
	s.Equal(768, it.Vector().Dimension())

	var names []events.Name
	for _, e := range it.PullEvents() {
		names = append(names, e.EventName())
	}
	s.Equal([]events.Name{events.NameVectorGenerationStarted, events.NameVectorGenerated}, names)
}

func (s *ItemSuite) TestStartTwiceFails() {
	it := s.newItem()
	s.Require().NoError(it.StartVectorGeneration(s.now))
	err := it.StartVectorGeneration(s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	s.True(it.IsGenerating())
}

func (s *ItemSuite) TestSetVectorValidates() {
	it := s.newItem()
	s.Require().NoError(it.StartVectorGeneration(s.now))

	bad := embedding768()
	bad[3] = float32(math.NaN())
	err := it.SetVector(bad, s.now)
	s.Require().Error(err)
	s.ErrorIs(err, id.ErrNonFiniteComponent)
	s.True(it.IsGenerating())

	err = it.SetVector(make([]float32, 100), s.now)
	s.ErrorIs(err, id.ErrUnsupportedDimension)
	s.False(it.HasVector())
}

func (s *ItemSuite) TestFailVectorGeneration() {
	it := s.newItem()
	s.True(dErrors.HasCode(it.FailVectorGeneration("x", s.now), dErrors.CodeInvariantViolation))

	s.Require().NoError(it.StartVectorGeneration(s.now))
	s.Require().NoError(it.FailVectorGeneration("model unavailable", s.now))
	s.False(it.IsGenerating())
	s.False(it.HasVector())

	evts := it.PullEvents()
	s.Require().Len(evts, 2)
	failed, ok := evts[1].(events.VectorGenerationFailed)
	s.Require().True(ok)
	s.Equal("model unavailable", failed.Message)
}

func (s *ItemSuite) TestUpdateContent() {
	s.Run("no-op when nothing changes", func() {
		it := s.newItem()
		same := it.Phrase()
		cat := CategoryNG
		changed, err := it.UpdateContent(&same, &cat, s.now)
		s.Require().NoError(err)
		s.False(changed)
		s.Empty(it.PullEvents())

		changed, err = it.UpdateContent(nil, nil, s.now)
		s.Require().NoError(err)
		s.False(changed)
	})

	s.Run("phrase change invalidates vector", func() {
		it := s.newItem()
		s.Require().NoError(it.StartVectorGeneration(s.now))
		s.Require().NoError(it.SetVector(embedding768(), s.now))
		it.PullEvents()

		phrase := "必ず治る"
		changed, err := it.UpdateContent(&phrase, nil, s.now)
		s.Require().NoError(err)
		s.True(changed)
		s.False(it.HasVector())

		evts := it.PullEvents()
		s.Require().Len(evts, 1)
		updated, ok := evts[0].(events.DictionaryItemUpdated)
		s.Require().True(ok)
		s.True(updated.VectorInvalidated)
		s.Equal("必ず治る", updated.Phrase)
	})

	s.Run("category change abandons generation in flight", func() {
		it := s.newItem()
		s.Require().NoError(it.StartVectorGeneration(s.now))
		cat := CategoryAllow
		changed, err := it.UpdateContent(nil, &cat, s.now)
		s.Require().NoError(err)
		s.True(changed)
		s.False(it.IsGenerating())
		s.True(dErrors.HasCode(it.SetVector(embedding768(), s.now), dErrors.CodeInvariantViolation))
	})

	s.Run("rejects invalid phrase", func() {
		it := s.newItem()
		empty := ""
		_, err := it.UpdateContent(&empty, nil, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("絶対に治る", it.Phrase())
	})
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("ng")
	require.NoError(t, err)
	assert.Equal(t, CategoryNG, c)

	c, err = ParseCategory("Allow")
	require.NoError(t, err)
	assert.Equal(t, CategoryAllow, c)

	_, err = ParseCategory("block")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
