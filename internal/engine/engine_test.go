package engine_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"

	"github.com/lc/stringbar/internal/config"
	"github.com/lc/stringbar/internal/engine"
	"github.com/lc/stringbar/internal/filesys"
	"github.com/lc/stringbar/internal/mocks"
	"github.com/lc/stringbar/internal/render"
	"github.com/lc/stringbar/internal/store"
)

type EngineTestSuite struct {
	suite.Suite
	store    *store.Store
	sink     *mocks.MockSink
	provider *mocks.MockProvider
	engine   *engine.Engine
}

func (s *EngineTestSuite) SetupTest() {
	st, err := store.New(config.NewWithPath(filesys.OS(), filepath.Join(s.T().TempDir(), "config.yaml")))
	s.Require().NoError(err)
	s.store = st
	s.sink = new(mocks.MockSink)
	s.provider = new(mocks.MockProvider)
	s.engine = engine.New(s.store, render.New(s.provider), s.sink)
}

// literal renders text verbatim through a timestamp template without
// conversion specifiers.
func literal(text string, intervalMS uint64) *config.Config {
	return &config.Config{
		Separator:        " | ",
		UpdateIntervalMS: intervalMS,
		Sections:         []config.Section{{Module: config.Timestamp{Template: text}}},
	}
}

func (s *EngineTestSuite) TestTickPublishesRenderedStatus() {
	s.store.Replace(literal("hello", 250))
	s.sink.On("Publish", mock.Anything, "hello").Return(nil).Once()

	wait := s.engine.Tick(context.Background())

	s.Equal(250*time.Millisecond, wait)
	s.sink.AssertExpectations(s.T())
	ticks, failures := s.engine.Stats()
	s.Equal(uint64(1), ticks)
	s.Equal(uint64(0), failures)
}

func (s *EngineTestSuite) TestReplaceDuringTickAppliesToNextTick() {
	s.store.Replace(literal("first", 10))
	s.sink.On("Publish", mock.Anything, "first").
		Run(func(mock.Arguments) { s.store.Replace(literal("second", 20)) }).
		Return(nil).Once()
	s.sink.On("Publish", mock.Anything, "second").Return(nil).Once()

	s.Equal(10*time.Millisecond, s.engine.Tick(context.Background()), "in-flight tick keeps its snapshot")
	s.Equal(20*time.Millisecond, s.engine.Tick(context.Background()))
	s.sink.AssertExpectations(s.T())
}

func (s *EngineTestSuite) TestPublishFailureIsCounted() {
	s.store.Replace(literal("x", 1000))
	s.sink.On("Publish", mock.Anything, "x").Return(errors.New("xsetroot: not found"))

	for i := 0; i < 3; i++ {
		s.Equal(time.Second, s.engine.Tick(context.Background()))
	}

	ticks, failures := s.engine.Stats()
	s.Equal(uint64(3), ticks)
	s.Equal(uint64(3), failures)
}

func (s *EngineTestSuite) TestPublishTimeout() {
	s.engine = engine.New(s.store, render.New(s.provider), s.sink, engine.WithPublishTimeout(20*time.Millisecond))
	s.store.Replace(literal("slow", 1000))

	var deadline bool
	s.sink.On("Publish", mock.Anything, "slow").
		Run(func(args mock.Arguments) {
			_, deadline = args.Get(0).(context.Context).Deadline()
		}).
		Return(nil).Once()

	s.engine.Tick(context.Background())
	s.True(deadline)
}

func (s *EngineTestSuite) TestRunSurvivesSinkErrors() {
	s.engine = engine.New(s.store, render.New(s.provider), s.sink, engine.WithErrorLogEvery(time.Hour))
	s.store.Replace(literal("tick", 1))
	s.sink.On("Publish", mock.Anything, "tick").Return(errors.New("no display"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.engine.Run(ctx) }()

	s.Eventually(func() bool {
		ticks, _ := s.engine.Stats()
		return ticks >= 5
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(3 * time.Second):
		s.Fail("Run did not return after cancel")
	}
	_, failures := s.engine.Stats()
	s.GreaterOrEqual(failures, uint64(5))
}

func (s *EngineTestSuite) TestRunPicksUpReload() {
	var last atomic.String
	s.store.Replace(literal("before", 5))
	s.sink.On("Publish", mock.Anything, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { last.Store(args.String(1)) }).
		Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.engine.Run(ctx) }()

	s.Eventually(func() bool { return last.Load() == "before" }, 3*time.Second, 10*time.Millisecond)
	s.store.Replace(literal("after", 5))
	s.Eventually(func() bool { return last.Load() == "after" }, 3*time.Second, 10*time.Millisecond)
}

func (s *EngineTestSuite) TestRunReturnsWhenAlreadyCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.NoError(s.engine.Run(ctx))
	s.sink.AssertNotCalled(s.T(), "Publish", mock.Anything, mock.Anything)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
