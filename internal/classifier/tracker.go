package classifier

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/utils"
)

// TrackerClassifier labels hostnames as direct trackers, CNAME-cloaked
// trackers or benign.
type TrackerClassifier struct {
	rules    *FilterRuleSet
	resolver repository.CNAMEResolver
	orgs     map[string]string
	logger   *zap.Logger
}

type TrackerOption func(*TrackerClassifier)

// WithResolver enables cloaking detection.
func WithResolver(r repository.CNAMEResolver) TrackerOption {
	return func(c *TrackerClassifier) { c.resolver = r }
}

// WithOrganizations maps listed hosts or registrable domains to owners.
func WithOrganizations(orgs map[string]string) TrackerOption {
	return func(c *TrackerClassifier) { c.orgs = orgs }
}

func WithTrackerLogger(l *zap.Logger) TrackerOption {
	return func(c *TrackerClassifier) { c.logger = l }
}

func NewTrackerClassifier(rules *FilterRuleSet, opts ...TrackerOption) *TrackerClassifier {
	c := &TrackerClassifier{rules: rules, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.rules == nil {
		c.rules = NewFilterRuleSet()
	}
	return c
}

// Classify decides whether candidate is a tracker. candidate may be a bare
// hostname or a URL. Resolution failures leave the verdict benign.
func (c *TrackerClassifier) Classify(ctx context.Context, candidate string) entity.TrackerVerdict {
	host := utils.NormalizeHost(candidate)
	v := entity.TrackerVerdict{Hostname: host}
	if host == "" {
		return v
	}

	if rule, ok := c.rules.Match(host); ok {
		v.IsDirectTracker = true
		c.annotate(&v, rule, host)
		return v
	}

	if c.resolver == nil {
		return v
	}
	chain, err := c.resolver.ResolveChain(ctx, host)
	if err != nil {
		c.logger.Debug("cname resolution failed", zap.String("host", host), zap.Error(err))
		return v
	}
	if len(chain) == 0 {
		return v
	}
	v.CNAMEChain = chain
	terminal := utils.NormalizeHost(chain[len(chain)-1])
	if terminal == "" || terminal == host {
		return v
	}
	if rule, ok := c.rules.Match(terminal); ok {
		v.IsCloaked = true
		c.annotate(&v, rule, terminal)
	}
	return v
}

// ClassifyAll classifies each distinct host once, in sorted order.
func (c *TrackerClassifier) ClassifyAll(ctx context.Context, hosts []string) []entity.TrackerVerdict {
	seen := make(map[string]struct{}, len(hosts))
	uniq := make([]string, 0, len(hosts))
	for _, h := range hosts {
		n := utils.NormalizeHost(h)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		uniq = append(uniq, n)
	}
	sort.Strings(uniq)

	out := make([]entity.TrackerVerdict, 0, len(uniq))
	for _, h := range uniq {
		if ctx.Err() != nil {
			break
		}
		out = append(out, c.Classify(ctx, h))
	}
	return out
}

func (c *TrackerClassifier) annotate(v *entity.TrackerVerdict, rule Rule, matched string) {
	v.MatchedRule = rule.Raw
	v.FilterList = rule.List
	for _, key := range []string{rule.Host, utils.RegistrableDomain(rule.Host), utils.RegistrableDomain(matched)} {
		if org, ok := c.orgs[key]; ok {
			v.Organization = org
			return
		}
	}
}
