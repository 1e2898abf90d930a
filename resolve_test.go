package digo_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/centraunit/digo"
	"github.com/centraunit/digo/mock"
	"github.com/go-logr/logr/testr"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/suite"
)

type ResolveTestSuite struct {
	suite.Suite
	c *digo.Container
}

func (s *ResolveTestSuite) SetupTest() {
	s.c = digo.New(digo.WithLogger(testr.New(s.T())))
}

func (s *ResolveTestSuite) TearDownTest() {
	_ = s.c.Shutdown(context.Background())
}

func (s *ResolveTestSuite) TestEmptyMultibindings() {
	calls := &mock.Calls{}
	s.Require().NoError(digo.RegisterProvider(s.c, func(*digo.Container) (*mock.EchoPlugin, error) {
		calls.Inc()
		return &mock.EchoPlugin{}, nil
	}))

	set, err := digo.GetMultibindings[mock.EchoPlugin](s.c)
	s.Require().NoError(err)
	s.Zero(set.Len())
	s.Empty(set.Items())
	s.Zero(calls.Count(), "no factory may run for an empty multibinding")
	s.False(digo.HasMultibindings[mock.EchoPlugin](s.c))
}

func (s *ResolveTestSuite) TestMultibindingsDeduplicateAliases() {
	calls := &mock.Calls{}
	s.Require().NoError(digo.RegisterProvider(s.c, func(*digo.Container) (*mock.EchoPlugin, error) {
		calls.Inc()
		return &mock.EchoPlugin{Label: "x"}, nil
	}))
	s.Require().NoError(digo.AddMultibinding[mock.Plugin, mock.EchoPlugin](s.c))
	s.Require().NoError(digo.AddMultibinding[mock.Plugin, mock.EchoPlugin](s.c))
	var upper mock.Plugin = mock.UpperPlugin{}
	s.Require().NoError(digo.AddInstanceMultibinding(s.c, &upper))
	s.True(digo.HasMultibindings[mock.Plugin](s.c))

	set, err := digo.GetMultibindings[mock.Plugin](s.c)
	s.Require().NoError(err)
	s.Equal(2, set.Len())
	s.Equal(int32(1), calls.Count())

	var names []string
	for p := range set.All() {
		names = append(names, (*p).Name())
	}
	s.Equal([]string{"echo:x", "upper"}, names)
	s.True(set.Contains(&upper))

	again, err := digo.GetMultibindings[mock.Plugin](s.c)
	s.Require().NoError(err)
	s.Same(set, again)
}

func (s *ResolveTestSuite) TestMultibindingConstructors() {
	for _, name := range []string{"a", "b"} {
		s.Require().NoError(digo.RegisterMultibindingConstructor(s.c, func(*digo.Container) (mock.Settings, error) {
			return mock.Settings{Name: name}, nil
		}))
	}
	s.Require().NoError(digo.RegisterMultibindingProvider(s.c, func(*digo.Container) (*mock.Settings, error) {
		return &mock.Settings{Name: "c"}, nil
	}))

	set, err := digo.GetMultibindings[mock.Settings](s.c)
	s.Require().NoError(err)
	s.Require().Equal(3, set.Len())

	var names []string
	for _, p := range set.Items() {
		names = append(names, p.Name)
	}
	s.Equal([]string{"a", "b", "c"}, names)
	s.Len(s.c.ArenaUsage().Objects, 2)
	s.False(digo.Has[mock.Settings](s.c), "multibindings do not create a single binding")
}

func (s *ResolveTestSuite) TestMultibindingAddedAfterMaterialization() {
	s.Require().NoError(digo.AddInstanceMultibinding(s.c, &mock.EchoPlugin{Label: "a"}))
	_, err := digo.GetMultibindings[mock.EchoPlugin](s.c)
	s.Require().NoError(err)

	err = digo.AddInstanceMultibinding(s.c, &mock.EchoPlugin{Label: "b"})
	var checkErr *digo.CheckError
	s.Require().True(errors.As(err, &checkErr))
	s.Contains(checkErr.Message, "multibinding[mock.EchoPlugin]")
}

func (s *ResolveTestSuite) TestMultibindingsKeepEqualValues() {
	for range 2 {
		s.Require().NoError(digo.RegisterMultibindingConstructor(s.c, func(*digo.Container) (mock.Plugin, error) {
			return mock.UpperPlugin{}, nil
		}))
	}
	first, second := mock.Plugin(mock.UpperPlugin{}), mock.Plugin(mock.UpperPlugin{})
	s.Require().NoError(digo.AddInstanceMultibinding(s.c, &first))
	s.Require().NoError(digo.AddInstanceMultibinding(s.c, &second))

	set, err := digo.GetMultibindings[mock.Plugin](s.c)
	s.Require().NoError(err)
	s.Equal(4, set.Len(), "entries built apart stay apart even when their values are equal")
	s.True(set.Contains(&first))
	s.True(set.Contains(&second))
	s.Len(s.c.ArenaUsage().Objects, 2)
}

func (s *ResolveTestSuite) TestMultibindingProviderForInterface() {
	j := &mock.Journal{}
	s.Require().NoError(digo.AddMultibindingProvider[mock.Cache](s.c, func(*digo.Container) (*mock.MockCache, error) {
		return &mock.MockCache{Journal: j}, nil
	}))
	s.Require().NoError(digo.AddMultibindingProvider[mock.Cache](s.c, func(*digo.Container) (*mock.MockCache, error) {
		return &mock.MockCache{Journal: j}, nil
	}))
	s.False(digo.HasMultibindings[mock.MockCache](s.c), "entries land under the interface")

	set, err := digo.GetMultibindings[mock.Cache](s.c)
	s.Require().NoError(err)
	s.Require().Equal(2, set.Len())
	for _, p := range set.Items() {
		s.IsType(&mock.MockCache{}, *p)
	}

	s.Require().NoError(s.c.Shutdown(context.Background()))
	s.Equal([]string{"cache", "cache"}, j.Entries())
}

func (s *ResolveTestSuite) TestMultibindingProviderRejectsNonImplementation() {
	err := digo.AddMultibindingProvider[mock.Plugin](s.c, func(*digo.Container) (*mock.Settings, error) {
		return &mock.Settings{}, nil
	})
	var mismatch *digo.TypeMismatchError
	s.True(errors.As(err, &mismatch))

	var nilFactory *digo.NilFactoryError
	s.True(errors.As(digo.AddMultibindingProvider[mock.Plugin, mock.EchoPlugin](s.c, nil), &nilFactory))
}

func (s *ResolveTestSuite) TestProviderDefersConstruction() {
	calls := &mock.Calls{}
	s.Require().NoError(digo.RegisterProvider(s.c, mock.NewMockDB(nil, calls)))

	provider := digo.GetProvider[mock.MockDB](s.c)
	s.Zero(calls.Count())

	db, err := provider.GetPtr()
	s.Require().NoError(err)
	s.Equal(int32(1), calls.Count())

	direct, err := digo.GetPtr[mock.MockDB](s.c)
	s.Require().NoError(err)
	s.Same(db, direct)

	missing := digo.GetProvider[mock.Unregistered](s.c)
	_, err = missing.Get()
	s.Error(err)
}

func (s *ResolveTestSuite) TestBindInterface() {
	calls := &mock.Calls{}
	s.Require().NoError(digo.RegisterProvider(s.c, mock.NewMockDB(nil, calls)))
	s.Require().NoError(digo.Bind[mock.Database, mock.MockDB](s.c))

	db, err := digo.Get[mock.Database](s.c)
	s.Require().NoError(err)
	concrete, err := digo.GetPtr[mock.MockDB](s.c)
	s.Require().NoError(err)

	s.Same(concrete, db.(*mock.MockDB))
	s.True(db.IsConnected())
	s.Equal(int32(1), calls.Count())
}

func (s *ResolveTestSuite) TestBindRejectsNonImplementation() {
	err := digo.Bind[mock.Cache, mock.MockDB](s.c)

	var mismatch *digo.TypeMismatchError
	s.Require().True(errors.As(err, &mismatch))
	s.Equal("mock.Cache", mismatch.Expected)
	s.False(digo.Has[mock.Cache](s.c))
}

func (s *ResolveTestSuite) TestEager() {
	calls := &mock.Calls{}
	s.Require().NoError(digo.RegisterProvider(s.c, mock.NewMockDB(nil, calls)))
	s.Require().NoError(digo.RegisterProvider(s.c, mock.NewMockCache(nil)))
	s.Require().NoError(mock.RegisterDeep(s.c, "eager"))
	s.Require().NoError(digo.AddInstanceMultibinding(s.c, &mock.EchoPlugin{}))

	s.Require().NoError(s.c.Eager())
	s.Equal(int32(1), calls.Count())
	for _, info := range s.c.Bindings() {
		s.Equal(info.Entries, info.Constructed, info.Type)
	}
}

func (s *ResolveTestSuite) TestEagerAggregatesFailures() {
	s.Require().NoError(digo.RegisterProvider(s.c, func(*digo.Container) (*mock.Failing, error) {
		return nil, mock.ErrBoom
	}))
	s.Require().NoError(digo.RegisterProvider(s.c, func(c *digo.Container) (*mock.CircularA, error) {
		_, err := digo.GetPtr[mock.Unregistered](c)
		return &mock.CircularA{}, err
	}))
	s.Require().NoError(digo.RegisterProvider(s.c, mock.NewMockDB(nil, nil)))

	err := s.c.Eager()
	var merr *multierror.Error
	s.Require().True(errors.As(err, &merr))
	s.Len(merr.Errors, 2)
	s.ErrorIs(err, mock.ErrBoom)

	db, err := digo.GetPtr[mock.MockDB](s.c)
	s.Require().NoError(err)
	s.True(db.IsConnected())
}

func (s *ResolveTestSuite) TestCircularDependency() {
	s.Require().NoError(mock.RegisterCircular(s.c))

	_, err := digo.GetPtr[mock.CircularA](s.c)
	var cycle *digo.CircularDependencyError
	s.Require().True(errors.As(err, &cycle))
	s.Equal("mock.CircularA", cycle.Type)
	s.Equal([]string{"mock.CircularA", "mock.CircularB"}, cycle.Chain)
	s.Equal(digo.KindConfiguration, digo.KindOf(err))

	_, err = digo.GetPtr[mock.CircularB](s.c)
	s.True(errors.As(err, &cycle))
	s.Equal("mock.CircularB", cycle.Type)
}

func (s *ResolveTestSuite) TestConcurrentFirstResolution() {
	calls := &mock.Calls{}
	s.Require().NoError(digo.RegisterProvider(s.c, func(*digo.Container) (*mock.MockDB, error) {
		calls.Inc()
		time.Sleep(10 * time.Millisecond)
		return &mock.MockDB{}, nil
	}))
	s.Require().NoError(digo.RegisterProvider(s.c, mock.NewMockCache(nil)))

	const workers = 32
	var wg sync.WaitGroup
	results := make([]*mock.MockDB, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				cache, err := digo.GetPtr[mock.MockCache](s.c)
				if err != nil {
					errs <- err
					return
				}
				results[i] = cache.DB
				return
			}
			db, err := digo.GetPtr[mock.MockDB](s.c)
			if err != nil {
				errs <- err
				return
			}
			results[i] = db
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}
	s.Equal(int32(1), calls.Count())
	for _, db := range results {
		s.Same(results[0], db)
	}
}

func (s *ResolveTestSuite) TestConcurrentMultibindings() {
	for _, label := range []string{"c", "a", "b"} {
		s.Require().NoError(digo.RegisterMultibindingProvider(s.c, func(*digo.Container) (*mock.EchoPlugin, error) {
			return &mock.EchoPlugin{Label: label}, nil
		}))
	}

	var wg sync.WaitGroup
	sets := make(chan *digo.Set[mock.EchoPlugin], 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := digo.GetMultibindings[mock.EchoPlugin](s.c)
			if err == nil {
				sets <- set
			}
		}()
	}
	wg.Wait()
	close(sets)

	var first *digo.Set[mock.EchoPlugin]
	for set := range sets {
		if first == nil {
			first = set
		}
		s.Same(first, set)
	}
	s.Require().NotNil(first)

	var labels []string
	for _, p := range first.Items() {
		labels = append(labels, p.Label)
	}
	s.Equal([]string{"c", "a", "b"}, labels)
}

func TestResolveSuite(t *testing.T) {
	suite.Run(t, new(ResolveTestSuite))
}
