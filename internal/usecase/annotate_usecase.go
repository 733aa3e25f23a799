package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/user/trackscope/internal/classifier"
	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/metrics"
)

// Annotator appends cookie and tracker verdicts to stored result documents.
// Fields written by the crawl are never modified.
type Annotator struct {
	results     repository.ResultStore
	trackers    *classifier.TrackerClassifier
	cookies     *classifier.TrackingCookieClassifier
	definitions repository.CookieDefinitionRepository
	logger      *zap.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewAnnotator creates an annotator. definitions may be nil, in which case
// no cookie is reported as identified.
func NewAnnotator(
	results repository.ResultStore,
	trackers *classifier.TrackerClassifier,
	cookies *classifier.TrackingCookieClassifier,
	definitions repository.CookieDefinitionRepository,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Annotator {
	return &Annotator{
		results:     results,
		trackers:    trackers,
		cookies:     cookies,
		definitions: definitions,
		logger:      logger.Named("annotator"),
		metrics:     m,
		now:         time.Now,
	}
}

// Annotate loads, annotates and saves the document of (profile, domain).
func (a *Annotator) Annotate(ctx context.Context, profile, domain string) (*entity.ResultDocument, error) {
	doc, err := a.results.Load(ctx, profile, domain)
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", profile, domain, err)
	}
	if err := a.AnnotateDocument(ctx, doc); err != nil {
		return nil, err
	}
	if err := a.results.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save %s/%s: %w", profile, domain, err)
	}
	return doc, nil
}

// AnnotateAll annotates every stored document of profile and returns the
// number annotated. Corrupt documents are skipped.
func (a *Annotator) AnnotateAll(ctx context.Context, profile string) (int, error) {
	refs, err := a.results.List(ctx, profile)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if _, err := a.Annotate(ctx, ref.Profile, ref.Domain); err != nil {
			if errors.Is(err, repository.ErrCorruptArtifact) {
				a.logger.Warn("Skipping corrupt artifact", zap.String("domain", ref.Domain), zap.String("profile", ref.Profile))
				continue
			}
			return n, err
		}
		n++
	}
	return n, nil
}

// AnnotateDocument sets cookie_analysis and tracker_analysis on doc.
func (a *Annotator) AnnotateDocument(ctx context.Context, doc *entity.ResultDocument) error {
	cookies, err := a.analyzeCookies(ctx, doc)
	if err != nil {
		return err
	}
	doc.CookieAnalysis = cookies
	if a.trackers != nil {
		doc.TrackerAnalysis = a.analyzeTrackers(ctx, doc)
	}
	return nil
}

func (a *Annotator) analyzeCookies(ctx context.Context, doc *entity.ResultDocument) (*entity.CookieAnalysis, error) {
	analysis := &entity.CookieAnalysis{
		Categories:      make(map[string]int),
		Scripts:         make(map[string]int),
		TrackingCookies: []string{},
		AnalyzedAt:      a.now().UTC(),
	}

	names := make(map[entity.CookieKey]struct{})
	for _, records := range doc.Cookies {
		for _, rec := range records {
			names[rec.Key()] = struct{}{}
		}
	}
	analysis.TotalCookies = len(names)

	if a.definitions != nil {
		for key := range names {
			def, err := a.definitions.Get(ctx, key.Name)
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("cookie definition %s: %w", key.Name, err)
			}
			analysis.IdentifiedCookies++
			if def.Category != "" {
				analysis.Categories[def.Category]++
			}
			if def.Script != "" {
				analysis.Scripts[def.Script]++
			}
		}
	}

	analysis.Verdicts = a.cookies.ClassifyAll(doc.Cookies)
	for _, v := range analysis.Verdicts {
		if v.IsTracking() {
			analysis.TrackingCookies = append(analysis.TrackingCookies, entity.CookieKey{Name: v.Name, Domain: v.Domain}.String())
		}
		if a.metrics != nil {
			a.metrics.VerdictsTotal.WithLabelValues("cookie", string(v.Outcome)).Inc()
		}
	}
	analysis.TrackingCount = len(analysis.TrackingCookies)
	return analysis, nil
}

func (a *Annotator) analyzeTrackers(ctx context.Context, doc *entity.ResultDocument) *entity.TrackerAnalysis {
	var hosts []string
	for _, visit := range doc.NetworkData {
		for _, r := range visit.Requests {
			hosts = append(hosts, r.Domain)
		}
		hosts = append(hosts, visit.DomainsContacted...)
	}

	analysis := &entity.TrackerAnalysis{
		Organizations: make(map[string]int),
		FilterLists:   make(map[string]int),
		CNAMECloaking: []entity.TrackerVerdict{},
		Verdicts:      []entity.TrackerVerdict{},
		AnalyzedAt:    a.now().UTC(),
	}
	verdicts := a.trackers.ClassifyAll(ctx, hosts)
	analysis.TotalHosts = len(verdicts)
	for _, v := range verdicts {
		outcome := "benign"
		switch {
		case v.IsDirectTracker:
			outcome = "direct"
			analysis.Direct++
		case v.IsCloaked:
			outcome = "cloaked"
			analysis.Cloaked++
			analysis.CNAMECloaking = append(analysis.CNAMECloaking, v)
		}
		if a.metrics != nil {
			a.metrics.VerdictsTotal.WithLabelValues("tracker", outcome).Inc()
		}
		if !v.IsTracker() {
			continue
		}
		analysis.TotalTracked++
		analysis.Verdicts = append(analysis.Verdicts, v)
		if v.Organization != "" {
			analysis.Organizations[v.Organization]++
		}
		if v.FilterList != "" {
			analysis.FilterLists[v.FilterList]++
		}
	}
	sort.SliceStable(analysis.Verdicts, func(i, j int) bool { return analysis.Verdicts[i].Hostname < analysis.Verdicts[j].Hostname })
	return analysis
}
