package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/newsletter/internal/cache"
	"github.com/deusflow/newsletter/internal/config"
	"github.com/deusflow/newsletter/internal/fetch"
	"github.com/deusflow/newsletter/internal/finalcheck"
	"github.com/deusflow/newsletter/internal/llm"
	"github.com/deusflow/newsletter/internal/logger"
	"github.com/deusflow/newsletter/internal/metrics"
	"github.com/deusflow/newsletter/internal/news"
	"github.com/deusflow/newsletter/internal/postprocess"
	"github.com/deusflow/newsletter/internal/scoring"
	"github.com/deusflow/newsletter/internal/storage"
	"github.com/deusflow/newsletter/internal/telegram"
	"github.com/deusflow/newsletter/internal/translate"
)

// ContentFiller completes items that arrived without a description.
type ContentFiller interface {
	Fill(ctx context.Context, items []news.Item) []news.Item
}

// Sources are the fetch adapters for both sides. Foreign and Filler may be nil.
type Sources struct {
	Domestic fetch.Domestic
	Foreign  fetch.Foreign
	Filler   ContentFiller
}

// Pipeline runs one newsletter: fetch, score, filter, translate, check,
// deliver and record what was sent.
type Pipeline struct {
	Config  *config.Config
	Sources Sources
	History storage.History
	Sender  Sender

	Scorer     *scoring.Scorer
	Translator *translate.Translator
	Checker    *finalcheck.Checker

	Now func() time.Time
}

func New(cfg *config.Config, c llm.Completer, model string, src Sources, history storage.History, sender Sender) *Pipeline {
	memo := cache.New[translate.Translation]()
	return &Pipeline{
		Config:     cfg,
		Sources:    src,
		History:    history,
		Sender:     sender,
		Scorer:     scoring.New(c, model, cfg.Tuning),
		Translator: translate.New(c, model, cfg.Tuning, memo),
		Checker:    finalcheck.New(c, model, cfg.Tuning),
		Now:        time.Now,
	}
}

// Run executes the pipeline once. Delivery failures are logged and recorded
// in metrics but do not fail the run; nothing is added to the history then.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	runID := uuid.NewString()
	log := logger.With("run_id", runID)

	metrics.Global.SetLastRun(runID)
	defer func() {
		metrics.Global.RecordProcessingTime(time.Since(start))
	}()

	log.Info("starting newsletter run", "topics", len(p.Config.Topics))

	digests := make([]news.TopicDigest, 0, len(p.Config.Topics))
	for _, topic := range p.Config.Topics {
		if err := ctx.Err(); err != nil {
			return err
		}
		digests = append(digests, p.collectTopic(ctx, log, topic))
	}

	digests = p.Checker.CheckAll(ctx, digests, p.Config.AIAPIKey)

	if countItems(digests) == 0 {
		log.Warn("no relevant news found, nothing to send")
		return nil
	}

	now := p.Now()
	subject := Subject(p.Config.Topics, now)
	msg := Message{
		Recipient: p.Config.TelegramChatID,
		Subject:   subject,
		HTMLBody:  telegram.RenderDigest(subject, digests, now),
	}

	if err := p.Sender.Send(ctx, msg); err != nil {
		log.Error("failed to deliver digest", "error", err)
		metrics.Deliveries.WithLabelValues(metrics.OutcomeFailed).Inc()
		metrics.Global.SetError(err.Error())
		return nil
	}
	metrics.Deliveries.WithLabelValues(metrics.OutcomeOK).Inc()
	metrics.Global.IncrementMessagesSent()

	p.record(log, digests, now)
	log.Info("newsletter run finished", "items", countItems(digests), "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func (p *Pipeline) collectTopic(ctx context.Context, log *slog.Logger, topic config.Topic) news.TopicDigest {
	log = log.With("topic", topic.Topic)
	digest := news.TopicDigest{Topic: topic.Topic}

	domestic := p.fill(ctx, p.unsent(log, p.Sources.Domestic.FetchDomestic(ctx, topic.Topic)))
	log.Info("domestic news fetched", "count", len(domestic))
	digest.Domestic = p.rank(ctx, topic, domestic, news.Domestic)
	log.Info("domestic news selected", "count", len(digest.Domestic))

	switch {
	case !topic.IncludeForeign:
	case p.Sources.Foreign == nil:
		log.Warn("foreign news requested but no foreign source configured")
	case topic.ForeignAPIKey == "":
		log.Warn("foreign news requested but no API key set, skipping foreign side")
	default:
		keyword := topic.SearchKeyword()
		foreign := p.fill(ctx, p.unsent(log, p.Sources.Foreign.FetchForeign(ctx, keyword, topic.ForeignAPIKey)))
		log.Info("foreign news fetched", "count", len(foreign), "keyword", keyword)
		ranked := p.rank(ctx, topic, foreign, news.Foreign)
		digest.Foreign = p.Translator.Translate(ctx, ranked, p.Config.AIAPIKey)
		log.Info("foreign news selected", "count", len(digest.Foreign))
	}
	return digest
}

func (p *Pipeline) rank(ctx context.Context, topic config.Topic, items []news.Item, side news.Side) []news.ScoredItem {
	if len(items) == 0 {
		return nil
	}
	scored := p.Scorer.Score(ctx, scoring.Request{
		Items:           items,
		Topic:           topic.Topic,
		RelatedConcepts: topic.RelatedConcepts,
		APIKey:          p.Config.AIAPIKey,
		Side:            side,
	})
	return postprocess.Process(scored, side, p.Config.Tuning)
}

func (p *Pipeline) fill(ctx context.Context, items []news.Item) []news.Item {
	if p.Sources.Filler == nil || len(items) == 0 {
		return items
	}
	return p.Sources.Filler.Fill(ctx, items)
}

// unsent drops items already delivered in an earlier run.
func (p *Pipeline) unsent(log *slog.Logger, items []news.Item) []news.Item {
	if p.History == nil {
		return items
	}
	out := items[:0:0]
	for _, it := range items {
		if p.History.IsLinkAlreadySent(it.Link) || p.History.IsAlreadySent(storage.GenerateNewsHash(it.Title, it.Link)) {
			continue
		}
		out = append(out, it)
	}
	if skipped := len(items) - len(out); skipped > 0 {
		log.Info("skipped already sent news", "count", skipped)
	}
	return out
}

func (p *Pipeline) record(log *slog.Logger, digests []news.TopicDigest, sentAt time.Time) {
	if p.History == nil {
		return
	}
	for _, d := range digests {
		for _, it := range append(append([]news.ScoredItem{}, d.Domestic...), d.Foreign...) {
			err := p.History.MarkAsSent(storage.SentNewsItem{
				Hash:   storage.GenerateNewsHash(it.Title, it.Link),
				Title:  it.Title,
				Link:   it.Link,
				Topic:  d.Topic,
				SentAt: sentAt,
				Source: it.Source,
			})
			if err != nil {
				log.Warn("failed to record sent news", "link", it.Link, "error", err)
			}
		}
	}
}

// Subject joins the topic names, for example "배터리/수소 news digest (Jun 11, Wednesday)".
func Subject(topics []config.Topic, date time.Time) string {
	names := make([]string, 0, len(topics))
	for _, t := range topics {
		names = append(names, t.Topic)
	}
	joined := strings.Join(names, "/")
	if joined == "" {
		joined = "custom topics"
	}
	return fmt.Sprintf("%s news digest (%s)", joined, date.Format("Jan 2, Monday"))
}

func countItems(digests []news.TopicDigest) int {
	n := 0
	for _, d := range digests {
		n += len(d.Domestic) + len(d.Foreign)
	}
	return n
}
