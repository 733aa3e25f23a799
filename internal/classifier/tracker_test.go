package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/user/trackscope/internal/repository/mocks"
)

type TrackerClassifierSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	resolver   *mocks.MockCNAMEResolver
	classifier *TrackerClassifier
}

func TestTrackerClassifierSuite(t *testing.T) {
	suite.Run(t, new(TrackerClassifierSuite))
}

func (s *TrackerClassifierSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.resolver = mocks.NewMockCNAMEResolver(s.ctrl)

	rules := NewFilterRuleSet()
	_, err := rules.Load(strings.NewReader("||marketing.example.com^\n||eulerian.net^$3p\n"), "Easy Privacy")
	s.Require().NoError(err)

	s.classifier = NewTrackerClassifier(rules,
		WithResolver(s.resolver),
		WithOrganizations(map[string]string{"eulerian.net": "Eulerian Technologies"}),
	)
}

func (s *TrackerClassifierSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *TrackerClassifierSuite) TestDirectTrackerSkipsDNS() {
	for _, host := range []string{"marketing.example.com", "sub.marketing.example.com", "https://marketing.example.com/a.js"} {
		v := s.classifier.Classify(context.Background(), host)
		s.True(v.IsDirectTracker, host)
		s.False(v.IsCloaked, host)
		s.Equal("||marketing.example.com^", v.MatchedRule)
		s.Equal("Easy Privacy", v.FilterList)
	}
}

func (s *TrackerClassifierSuite) TestSubstringIsNotSubdomain() {
	s.resolver.EXPECT().ResolveChain(gomock.Any(), "notmarketing.example.com").Return(nil, nil)

	v := s.classifier.Classify(context.Background(), "notmarketing.example.com")
	s.False(v.IsDirectTracker)
	s.False(v.IsCloaked)
	s.False(v.IsTracker())
}

func (s *TrackerClassifierSuite) TestCloakedTracker() {
	s.resolver.EXPECT().
		ResolveChain(gomock.Any(), "metrics.shop.fr").
		Return([]string{"shop.eulerian.net."}, nil)

	v := s.classifier.Classify(context.Background(), "metrics.shop.fr")
	s.False(v.IsDirectTracker)
	s.True(v.IsCloaked)
	s.Equal([]string{"shop.eulerian.net."}, v.CNAMEChain)
	s.Equal("||eulerian.net^$3p", v.MatchedRule)
	s.Equal("Eulerian Technologies", v.Organization)
}

func (s *TrackerClassifierSuite) TestCNAMEToUnlistedHostIsBenign() {
	s.resolver.EXPECT().
		ResolveChain(gomock.Any(), "www.shop.fr").
		Return([]string{"shop.cdn.example.net"}, nil)

	v := s.classifier.Classify(context.Background(), "www.shop.fr")
	s.False(v.IsTracker())
	s.Equal([]string{"shop.cdn.example.net"}, v.CNAMEChain)
}

func (s *TrackerClassifierSuite) TestResolverErrorIsBenign() {
	s.resolver.EXPECT().
		ResolveChain(gomock.Any(), "broken.shop.fr").
		Return(nil, errors.New("servfail"))

	v := s.classifier.Classify(context.Background(), "broken.shop.fr")
	s.False(v.IsTracker())
	s.Empty(v.CNAMEChain)
}

func (s *TrackerClassifierSuite) TestClassifyAllDeduplicates() {
	s.resolver.EXPECT().ResolveChain(gomock.Any(), "shop.fr").Return(nil, nil).Times(1)

	verdicts := s.classifier.ClassifyAll(context.Background(), []string{
		"shop.fr", "SHOP.fr", "marketing.example.com", "https://shop.fr/x",
	})
	s.Require().Len(verdicts, 2)
	s.Equal("marketing.example.com", verdicts[0].Hostname)
	s.Equal("shop.fr", verdicts[1].Hostname)
}

func TestTrackerClassifierWithoutResolver(t *testing.T) {
	rules := NewFilterRuleSet()
	r, ok := ParseRule("||marketing.example.com^")
	require.True(t, ok)
	rules.Add(r)

	c := NewTrackerClassifier(rules)
	assert.True(t, c.Classify(context.Background(), "marketing.example.com").IsDirectTracker)
	assert.False(t, c.Classify(context.Background(), "cdn.shop.fr").IsTracker())
	assert.Equal(t, "", c.Classify(context.Background(), "").Hostname)
}
