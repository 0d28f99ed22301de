package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/molstandardizer/internal/config"
	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/molstandardizer/pkg/errors"
	dto "github.com/turtacn/molstandardizer/pkg/types/molecule"
)

type ResultCacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache *ResultCache
}

func (s *ResultCacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	client := NewClientFromUniversal(db, config.RedisConfig{}, logging.NewNopLogger())
	s.cache = NewResultCache(client, logging.NewNopLogger(), WithPrefix("test:"), WithTTL(0))
}

func (s *ResultCacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func acetic() *dto.StandardizeResult {
	return &dto.StandardizeResult{
		ID:           "rec-1",
		Status:       dto.StatusStandardized,
		SMILES:       "CC(=O)O",
		CanonicalKey: "QTBSBXVTEAMEQO-UHFFFAOYSA-N",
		Formula:      "C2H4O2",
		HeavyAtoms:   4,
		Properties:   []dto.Property{{Name: "_Name", Value: "sodium acetate"}},
		Trace:        dto.Trace{StrippedAtoms: 1, Fragments: 1, UniqueFragments: 1},
	}
}

func (s *ResultCacheTestSuite) TestGet_Hit() {
	want := acetic()
	data, err := json.Marshal(want)
	s.Require().NoError(err)
	s.mock.ExpectGet("test:result:abc").SetVal(string(data))

	got, ok, err := s.cache.Get(context.Background(), "abc")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(want.SMILES, got.SMILES)
	s.Equal(want.CanonicalKey, got.CanonicalKey)
	s.Equal(want.Properties, got.Properties)
	s.Equal(want.Trace, got.Trace)
}

func (s *ResultCacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:result:abc").RedisNil()

	got, ok, err := s.cache.Get(context.Background(), "abc")
	s.NoError(err)
	s.False(ok)
	s.Nil(got)
}

func (s *ResultCacheTestSuite) TestGet_RedisError() {
	s.mock.ExpectGet("test:result:abc").SetErr(errors.New("connection reset"))

	_, ok, err := s.cache.Get(context.Background(), "abc")
	s.False(ok)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *ResultCacheTestSuite) TestGet_CorruptEntry() {
	s.mock.ExpectGet("test:result:abc").SetVal("{not json")

	_, ok, err := s.cache.Get(context.Background(), "abc")
	s.False(ok)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *ResultCacheTestSuite) TestSet() {
	res := acetic()
	data, err := json.Marshal(res)
	s.Require().NoError(err)
	s.mock.ExpectSet("test:result:abc", data, 0).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "abc", res))
}

func (s *ResultCacheTestSuite) TestSet_RedisError() {
	res := acetic()
	data, err := json.Marshal(res)
	s.Require().NoError(err)
	s.mock.ExpectSet("test:result:abc", data, 0).SetErr(errors.New("READONLY"))

	err = s.cache.Set(context.Background(), "abc", res)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func TestResultCacheTestSuite(t *testing.T) {
	suite.Run(t, new(ResultCacheTestSuite))
}

func TestNewResultCache_Defaults(t *testing.T) {
	db, _ := redismock.NewClientMock()
	client := NewClientFromUniversal(db, config.RedisConfig{}, nil)
	c := NewResultCache(client, nil)
	assert.Equal(t, defaultPrefix, c.prefix)
	assert.Equal(t, defaultTTL, c.ttl)

	client = NewClientFromUniversal(db, config.RedisConfig{KeyPrefix: "x:", DefaultTTL: time.Minute}, nil)
	c = NewResultCache(client, nil)
	assert.Equal(t, "x:result:d", c.key("d"))
	assert.Equal(t, time.Minute, c.ttl)
}

func TestJitterTTL(t *testing.T) {
	c := &ResultCache{}
	assert.Zero(t, c.jitterTTL(0))
	for i := 0; i < 100; i++ {
		got := c.jitterTTL(time.Hour)
		assert.GreaterOrEqual(t, got, 54*time.Minute)
		assert.LessOrEqual(t, got, 66*time.Minute)
	}
}

func TestResultCache_Miniredis(t *testing.T) {
	client, mr := newMiniredisClient(t)
	c := NewResultCache(client, nil, WithTTL(time.Hour))
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "d1", acetic()))
	assert.True(t, mr.Exists("molstd:result:d1"))
	ttl := mr.TTL("molstd:result:d1")
	assert.Greater(t, ttl, 50*time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, ok, err := c.Get(ctx, "d1")
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "CC(=O)O", got.SMILES)
		}()
	}
	wg.Wait()

	// Every caller owns its copy.
	a, _, _ := c.Get(ctx, "d1")
	a.SMILES = "changed"
	b, _, _ := c.Get(ctx, "d1")
	assert.Equal(t, "CC(=O)O", b.SMILES)
}
