package observer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/trackscope/internal/browsertest"
	"github.com/user/trackscope/internal/entity"
)

func fpCall(category, api, source, url string) string {
	return fmt.Sprintf(`{"category":%q,"api":%q,"source":%q,"url":%q,"timestamp":1700000000000}`,
		category, api, source, url)
}

func TestFingerprintObserverCanvasAndFonts(t *testing.T) {
	ctx := context.Background()
	b := browsertest.NewBackend()
	page := "https://example.com/product?id=7"
	src := "https://fp.example.net/fp.js"
	b.Pages[page] = browsertest.Page{
		Calls: map[string][]string{
			FingerprintBinding: {
				fpCall("canvas", "getContext", src, page),
				fpCall("canvas", "toDataURL", src, page),
				fpCall("fonts", "check", src, page),
			},
		},
	}
	bc, err := b.Open(ctx, entity.Profile{Name: "baseline"})
	require.NoError(t, err)

	obs := NewFingerprintObserver()
	unsub, err := obs.Attach(ctx, bc, 0)
	require.NoError(t, err)
	require.Len(t, bc.(*browsertest.Context).InitScripts(), 1)
	assert.Contains(t, bc.(*browsertest.Context).InitScripts()[0], FingerprintBinding)

	obs.SetPage(1)
	_, err = bc.Navigate(ctx, page)
	require.NoError(t, err)
	require.NoError(t, obs.Flush(ctx, bc, 0))
	unsub()

	s, ok := obs.Summary(0)
	require.True(t, ok)
	assert.Equal(t, 3, s.TotalCalls)
	assert.Equal(t, 1, s.PagesAnalyzed)
	assert.Equal(t, []string{"canvas", "fonts"}, s.TechniquesDetected)
	assert.Equal(t, []string{"https://example.com/product"}, s.FingerprintingPages)
	assert.Equal(t, []string{src}, s.SuspiciousScripts)
	assert.True(t, s.LikelyFingerprinting)

	p := s.Pages["https://example.com/product"]
	assert.Equal(t, 2, p.CategoryCounts["canvas"])
	assert.Equal(t, 1, p.APICounts["toDataURL"])
	assert.True(t, p.LikelyFingerprinting)
}

func TestFingerprintTechniqueFallbacks(t *testing.T) {
	visitLevel := summarizeFingerprintVisit(0, []entity.FingerprintEvent{
		{Category: "webgl", API: "getParameter"},
		{Category: "hardware", API: "hardwareConcurrency"},
	})
	assert.Equal(t, []string{"hardware", "webgl"}, visitLevel.TechniquesDetected)
	assert.Zero(t, visitLevel.PagesAnalyzed)
	assert.False(t, visitLevel.LikelyFingerprinting)

	heuristic := summarizeFingerprintVisit(0, []entity.FingerprintEvent{
		{API: "toDataURL", URL: "https://example.com/"},
		{API: "createOscillator", URL: "https://example.com/"},
		{API: "somethingElse", URL: "https://example.com/"},
	})
	assert.Equal(t, []string{"audio", "canvas"}, heuristic.TechniquesDetected)
	assert.Equal(t, 1, heuristic.PagesAnalyzed)
}

func TestFingerprintCombinedSummaryKeepsVisits(t *testing.T) {
	obs := NewFingerprintObserver()
	obs.Record("audio", "createOscillator", "https://a.example/x.js", "https://example.com/", 0)
	obs.Record("hardware", "deviceMemory", "https://a.example/x.js", "https://example.com/", 0)
	require.NoError(t, obs.Flush(context.Background(), nil, 0))

	obs.visit = 1
	obs.Record("webrtc", "RTCPeerConnection", "", "https://example.com/contact", 0)
	obs.Record("bogus", "whatever", "", "https://example.com/contact", 0)
	require.NoError(t, obs.Flush(context.Background(), nil, 1))

	doc := entity.NewResultDocument("example.com", "baseline", time.Now())
	obs.Contribute(doc)

	sum := doc.Fingerprinting.Summary
	assert.Equal(t, 4, sum.TotalCalls)
	assert.Equal(t, 2, sum.PagesAnalyzed)
	assert.Equal(t, []string{"audio", "hardware", "webrtc"}, sum.TechniquesDetected)
	assert.True(t, sum.LikelyFingerprinting)
	require.Len(t, sum.VisitSummaries, 2)
	assert.Equal(t, doc.Fingerprinting.Visits["0"], sum.VisitSummaries[0])
	assert.Equal(t, doc.Fingerprinting.Visits["1"], sum.VisitSummaries[1])
	assert.False(t, doc.Fingerprinting.Visits["1"].LikelyFingerprinting)
	assert.Equal(t, 1, doc.Fingerprinting.Visits["1"].Pages["https://example.com/contact"].APICounts["whatever"])
}

func TestMalformedReportIsIgnored(t *testing.T) {
	obs := NewFingerprintObserver()
	obs.report("not json")
	require.NoError(t, obs.Flush(context.Background(), nil, 0))
	s, _ := obs.Summary(0)
	assert.Zero(t, s.TotalCalls)
}

func TestFingerprintCallsAfterFlushAreDropped(t *testing.T) {
	obs := NewFingerprintObserver()
	obs.Record("canvas", "toDataURL", "", "https://example.com/", 0)
	require.NoError(t, obs.Flush(context.Background(), nil, 0))

	obs.report(fpCall("canvas", "getImageData", "", "https://example.com/"))

	doc := entity.NewResultDocument("example.com", "baseline", time.Now())
	obs.Contribute(doc)
	assert.Equal(t, 1, doc.Fingerprinting.Visits["0"].TotalCalls)
	assert.Len(t, obs.events[0], 1)
}
