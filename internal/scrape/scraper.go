// Package scrape drives one headless-browser session through a municipal
// court portal's search flow:
//
//	Init → Launch → Navigate → AwaitForm → FillForm → Submit → AwaitResults → Extract
//
// Per-jurisdiction variation lives entirely in config.SourceConfig records;
// there is a single state-machine implementation for every portal.
package scrape

import (
	"context"
	"time"

	"ticket-scout/internal/common/config"
	"ticket-scout/internal/common/errors"
	"ticket-scout/internal/common/logger"
	"ticket-scout/internal/common/metrics"
	"ticket-scout/internal/extract"
	"ticket-scout/internal/models"
)

// portalDateLayout is what Texas municipal portals expect in their DOB
// inputs; criteria carry dates in ISO form.
const portalDateLayout = "01/02/2006"

type Scraper struct {
	factory BrowserFactory
	engine  *extract.Engine
	cfg     config.ScrapeConfig
	prior   float64
	logger  logger.Logger
}

func NewScraper(factory BrowserFactory, engine *extract.Engine, cfg config.ScrapeConfig, prior float64, log logger.Logger) *Scraper {
	return &Scraper{
		factory: factory,
		engine:  engine,
		cfg:     cfg,
		prior:   prior,
		logger:  log,
	}
}

// Run executes the full portal flow for one jurisdiction. Zero extracted
// records is a valid success, distinct from any failure. The browser session
// is torn down on every exit path.
func (s *Scraper) Run(ctx context.Context, source string, portal config.SourceConfig, criteria models.SearchCriteria) ([]models.UnifiedTicketRecord, error) {
	log := s.logger.WithFields(map[string]interface{}{"source": source})

	// Launch. A session that cannot be acquired is an infrastructure
	// problem: escalate to the next tier, never retry in place.
	browser, err := s.factory(ctx)
	if err != nil {
		metrics.ScrapeOutcomes.WithLabelValues(source, "browser_launch_failed").Inc()
		return nil, errors.NewBrowserLaunchFailedError(source, err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			log.Warn("browser teardown failed", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	// Navigate.
	navCtx, cancelNav := withTimeout(ctx, config.GetDuration(s.cfg.NavigationTimeout))
	err = browser.Navigate(navCtx, portal.BaseURL)
	cancelNav()
	if err != nil {
		metrics.ScrapeOutcomes.WithLabelValues(source, "navigation_timeout").Inc()
		return nil, errors.NewNavigationTimeoutError(source, portal.BaseURL)
	}

	// AwaitForm. Absence after the timeout means the portal's markup likely
	// changed underneath us.
	formCtx, cancelForm := withTimeout(ctx, config.GetDuration(s.cfg.FormTimeout))
	err = browser.WaitVisible(formCtx, portal.LicenseSelector)
	if err == nil && portal.RequiresDOB {
		err = browser.WaitVisible(formCtx, portal.DOBSelector)
	}
	cancelForm()
	if err != nil {
		metrics.ScrapeOutcomes.WithLabelValues(source, "form_not_found").Inc()
		return nil, errors.NewFormNotFoundError(source, portal.LicenseSelector)
	}

	// FillForm + Submit.
	if err := s.fillAndSubmit(ctx, browser, portal, criteria); err != nil {
		metrics.ScrapeOutcomes.WithLabelValues(source, "submit_failed").Inc()
		return nil, errors.NewSubmitFailedError(source, err)
	}

	// AwaitResults. Result-page markup is not guaranteed; a missing results
	// container is not a failure, results may still be present as plain
	// text, so fall through to Extract regardless.
	if portal.ResultsSelector != "" {
		graceCtx, cancelGrace := withTimeout(ctx, config.GetDuration(s.cfg.ResultsGrace))
		if waitErr := browser.WaitVisible(graceCtx, portal.ResultsSelector); waitErr != nil {
			log.Debug("results container never appeared, extracting page text anyway", map[string]interface{}{
				"selector": portal.ResultsSelector,
			})
		}
		cancelGrace()
	}

	// Extract against visible text, not raw markup, to tolerate structural
	// drift.
	records, err := s.extractRecords(ctx, browser, source)
	if err != nil {
		metrics.ScrapeOutcomes.WithLabelValues(source, "extract_failed").Inc()
		return nil, err
	}

	metrics.ScrapeOutcomes.WithLabelValues(source, "success").Inc()
	metrics.RecordsExtracted.WithLabelValues(source).Add(float64(len(records)))
	log.Info("portal scrape finished", map[string]interface{}{"records": len(records)})

	return records, nil
}

func (s *Scraper) fillAndSubmit(ctx context.Context, browser Browser, portal config.SourceConfig, criteria models.SearchCriteria) error {
	fillCtx, cancel := withTimeout(ctx, config.GetDuration(s.cfg.FormTimeout))
	defer cancel()

	if err := browser.SendKeys(fillCtx, portal.LicenseSelector, criteria.LicenseNumber); err != nil {
		return err
	}
	if portal.RequiresDOB {
		dob := criteria.DateOfBirth
		if parsed, parseErr := time.Parse("2006-01-02", dob); parseErr == nil {
			dob = parsed.Format(portalDateLayout)
		}
		if err := browser.SendKeys(fillCtx, portal.DOBSelector, dob); err != nil {
			return err
		}
	}
	return browser.Click(fillCtx, portal.SubmitSelector)
}

func (s *Scraper) extractRecords(ctx context.Context, browser Browser, source string) ([]models.UnifiedTicketRecord, error) {
	html, err := browser.PageHTML(ctx)
	if err != nil {
		return nil, errors.NewSubmitFailedError(source, err)
	}

	text, err := VisibleText(html)
	if err != nil {
		// Unparseable markup degrades to an empty result, not a crash.
		s.logger.Warn("result page could not be parsed", map[string]interface{}{
			"source": source,
			"error":  err.Error(),
		})
		return []models.UnifiedTicketRecord{}, nil
	}

	tag, known := SourceTag(source)
	if !known {
		tag = models.Source(source)
	}

	capturedAt := time.Now().UTC()
	groups := s.engine.ExtractAll(text)

	records := make([]models.UnifiedTicketRecord, 0, len(groups))
	for _, group := range groups {
		if group.Fields.CitationNumber == "" {
			continue
		}
		// Regex matches against free page text never score above the
		// scrape prior, and sparse extractions score below it.
		confidence := s.prior * group.Coverage
		records = append(records, models.NewRecord(group.Fields, confidence, tag, models.Evidence{
			RawText:    text,
			CapturedAt: capturedAt,
		}))
	}
	return records, nil
}
