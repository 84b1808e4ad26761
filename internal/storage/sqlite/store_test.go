package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	_ "modernc.org/sqlite"

	"mp_scraper/internal/domain"
)

type StoreTestSuite struct {
	suite.Suite
	ctx context.Context
	db  *sqlx.DB

	articles  *ArticleStore
	batchRuns *BatchRunStore
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()

	db, err := sqlx.Connect("sqlite", ":memory:")
	s.Require().NoError(err)
	// One connection so the in-memory database is shared by all statements.
	db.SetMaxOpenConns(1)
	s.db = db

	s.Require().NoError(Migrate(s.ctx, db))

	s.articles = NewArticleStore(db)
	s.batchRuns = NewBatchRunStore(db)
}

func (s *StoreTestSuite) TearDownTest() {
	_ = s.db.Close()
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) article(url string, ts int64) *domain.Article {
	return &domain.Article{
		AccountName:      "Tech Daily",
		Title:            "Some Title",
		URL:              url,
		Digest:           "digest",
		PublishTime:      domain.FormatTimestamp(ts),
		PublishTimestamp: ts,
		BatchID:          "batch_test",
	}
}

func (s *StoreTestSuite) count() int {
	var n int
	s.Require().NoError(s.db.GetContext(s.ctx, &n, "SELECT COUNT(*) FROM articles"))
	return n
}

func (s *StoreTestSuite) fetch(url string) domain.Article {
	var a domain.Article
	s.Require().NoError(s.db.GetContext(s.ctx, &a,
		`SELECT id, account_name, title, url, digest, publish_time,
		        publish_timestamp, content, batch_id, created_at
		 FROM articles WHERE url = ?`, url))
	return a
}

func (s *StoreTestSuite) TestUpsert_Insert() {
	a := s.article("https://example.com/1", 1750000000)
	a.Content = "body"

	s.NoError(s.articles.Upsert(s.ctx, a))

	stored := s.fetch(a.URL)
	s.Equal("Tech Daily", stored.AccountName)
	s.Equal("Some Title", stored.Title)
	s.Equal("body", stored.Content)
	s.Equal(int64(1750000000), stored.PublishTimestamp)
	s.NotZero(stored.CreatedAt)
}

func (s *StoreTestSuite) TestUpsert_SameURLKeepsOneRow() {
	a := s.article("https://example.com/1", 1750000000)
	s.NoError(s.articles.Upsert(s.ctx, a))

	updated := s.article("https://example.com/1", 1750000000)
	updated.Title = "Corrected Title"
	updated.BatchID = "batch_later"
	s.NoError(s.articles.Upsert(s.ctx, updated))

	s.Equal(1, s.count())

	stored := s.fetch(a.URL)
	s.Equal("Corrected Title", stored.Title)
	s.Equal("batch_later", stored.BatchID)
}

func (s *StoreTestSuite) TestUpsert_EmptyContentDoesNotClobber() {
	enriched := s.article("https://example.com/1", 1750000000)
	enriched.Content = "enriched body"
	s.NoError(s.articles.Upsert(s.ctx, enriched))

	bare := s.article("https://example.com/1", 1750000000)
	s.NoError(s.articles.Upsert(s.ctx, bare))

	stored := s.fetch(enriched.URL)
	s.Equal("enriched body", stored.Content)

	richer := s.article("https://example.com/1", 1750000000)
	richer.Content = "newer body"
	s.NoError(s.articles.Upsert(s.ctx, richer))

	s.Equal("newer body", s.fetch(enriched.URL).Content)
}

func (s *StoreTestSuite) TestUpsert_CreatedAtIsStable() {
	a := s.article("https://example.com/1", 1750000000)
	a.CreatedAt = 1111111111
	s.NoError(s.articles.Upsert(s.ctx, a))

	again := s.article("https://example.com/1", 1750000000)
	again.CreatedAt = 2222222222
	s.NoError(s.articles.Upsert(s.ctx, again))

	s.Equal(int64(1111111111), s.fetch(a.URL).CreatedAt)
}

func (s *StoreTestSuite) TestListByAccountAndRange() {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Unix()
	for i := range 5 {
		a := s.article("https://example.com/"+string(rune('a'+i)), base+int64(i)*86400)
		s.NoError(s.articles.Upsert(s.ctx, a))
	}
	other := s.article("https://example.com/other", base+86400)
	other.AccountName = "Other Account"
	s.NoError(s.articles.Upsert(s.ctx, other))

	got, err := s.articles.ListByAccountAndRange(s.ctx, "Tech Daily", base+86400, base+3*86400)
	s.NoError(err)
	s.Len(got, 3)

	// Newest first.
	s.Equal(base+3*86400, got[0].PublishTimestamp)
	s.Equal(base+86400, got[2].PublishTimestamp)
	for _, a := range got {
		s.Equal("Tech Daily", a.AccountName)
	}
}

func (s *StoreTestSuite) TestCountByBatch() {
	for i := range 3 {
		a := s.article("https://example.com/"+string(rune('a'+i)), 1750000000+int64(i))
		s.NoError(s.articles.Upsert(s.ctx, a))
	}
	other := s.article("https://example.com/z", 1750000000)
	other.BatchID = "batch_other"
	s.NoError(s.articles.Upsert(s.ctx, other))

	n, err := s.articles.CountByBatch(s.ctx, "batch_test")
	s.NoError(err)
	s.Equal(3, n)
}

func (s *StoreTestSuite) TestBatchRun_Lifecycle() {
	accounts := []string{"Tech Daily", "科技日报"}
	s.NoError(s.batchRuns.Create(s.ctx, "batch_abc", "2025-06-01", "2025-06-07", accounts))

	run, err := s.batchRuns.Get(s.ctx, "batch_abc")
	s.NoError(err)
	s.Require().NotNil(run)
	s.Equal(domain.BatchRunning, run.Status)
	s.Equal("2025-06-01", run.StartDate)
	s.Equal("2025-06-07", run.EndDate)
	s.JSONEq(`["Tech Daily", "科技日报"]`, run.Accounts)
	s.Zero(run.CompletedAt)

	s.NoError(s.batchRuns.Finish(s.ctx, "batch_abc", domain.BatchCompleted, 17))

	run, err = s.batchRuns.Get(s.ctx, "batch_abc")
	s.NoError(err)
	s.Require().NotNil(run)
	s.Equal(domain.BatchCompleted, run.Status)
	s.Equal(17, run.TotalArticles)
	s.NotZero(run.CompletedAt)
}

func (s *StoreTestSuite) TestBatchRun_RecreateResets() {
	s.NoError(s.batchRuns.Create(s.ctx, "batch_abc", "2025-06-01", "2025-06-07", []string{"Tech Daily"}))
	s.NoError(s.batchRuns.Finish(s.ctx, "batch_abc", domain.BatchFailed, 3))

	s.NoError(s.batchRuns.Create(s.ctx, "batch_abc", "2025-06-08", "2025-06-14", []string{"Tech Daily"}))

	run, err := s.batchRuns.Get(s.ctx, "batch_abc")
	s.NoError(err)
	s.Require().NotNil(run)
	s.Equal(domain.BatchRunning, run.Status)
	s.Equal("2025-06-08", run.StartDate)
	s.Zero(run.TotalArticles)
	s.Zero(run.CompletedAt)
}

func (s *StoreTestSuite) TestBatchRun_GetMissing() {
	run, err := s.batchRuns.Get(s.ctx, "batch_nope")
	s.NoError(err)
	s.Nil(run)
}
